package domain

// Test tags recognized in the catalog
const (
	TagAsm      = "asm"
	TagCProgram = "c_program"
	TagUnit     = "unit"
	TagSystem   = "system"
)

// KnownTags lists every tag a catalog entry may carry
var KnownTags = []string{TagAsm, TagCProgram, TagUnit, TagSystem}

// TestSpec describes a single test as declared in the catalog
type TestSpec struct {
	Tags    []string `yaml:"tags"`
	TB      string   `yaml:"tb"`      // Testbench source, relative to the testbench directory
	Defines []string `yaml:"defines"` // Extra preprocessor defines, in order
}

// HasTag reports whether the test carries the given tag
func (s TestSpec) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ResolvedPaths is the per-test filesystem context. It is built fresh for
// every run of a test and discarded afterwards.
type ResolvedPaths struct {
	ProjectDir    string
	RTLDir        string
	IncludeDirs   []string
	LibraryDirs   []string
	TBPath        string
	CommonSources []string // Shared testbench sources compiled with every test
	OutDir        string   // <out>/<test>
	FilelistDir   string
	HexDir        string
	InstrHex      string // Set only when found for a system test
	DataHex       string // Set only when found for a system test
}
