// Package simcmd plans simulator invocations. It never spawns processes or
// writes files, so a command can be logged before anything runs.
package simcmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"simrun/internal/domain"
)

// StrictFlags are passed to every compile
var StrictFlags = []string{
	"-g2012",
	"-Wall",
	"-Wextra",
	"-Wimplicit",
	"-Wno-timescale",
	"-Wno-fatal",
	"-Winfloop",
	"-Wportbind",
	"-Wmultidriver",
	"-Wwidth",
	"-Wselect-range",
	"-Wcaseincomplete",
	"-Wno-sensitivity-entire",
	"-Wno-sensitivity-incomplete",
	"-Wno-sensitivity-complete",
	"-pfileline=1",
	"-Ttyp",
	"-DDEBUG_BUILD",
}

const (
	// BuildModeDefine is always defined for simulation builds
	BuildModeDefine = "SIM"
	// SharedFilelist is the file list shared by system tests
	SharedFilelist = "top.f"
	// ArtifactExt is the compiled simulation artifact extension
	ArtifactExt = ".vvp"
	// DumpExt is the waveform dump extension
	DumpExt = ".vcd"
)

// ArtifactFinder locates a named file anywhere under root
type ArtifactFinder interface {
	Find(root, name string) (string, error)
}

// Options configures a Synthesizer
type Options struct {
	Simulator string
	SourceExt string
	// PerTestFilelists gives system tests their own list instead of top.f.
	// Required whenever tests may run concurrently.
	PerTestFilelists bool
}

// Synthesizer builds simulator invocations
type Synthesizer struct {
	opts   Options
	finder ArtifactFinder
	log    *zap.Logger
}

// Invocation is a fully planned compile command
type Invocation struct {
	Args         []string // Args[0] is the simulator binary
	Defines      []string
	FilelistPath string
	Filelist     []string // Module sources, in compile order
	Artifact     string   // Executable produced by the compile
	Warnings     []error  // ArtifactMissing warnings raised while planning
}

// NewSynthesizer creates a new Synthesizer
func NewSynthesizer(opts Options, finder ArtifactFinder, log *zap.Logger) *Synthesizer {
	return &Synthesizer{opts: opts, finder: finder, log: log}
}

// Synthesize plans the compile of test. globalDefines is not modified. For
// system tests the hex artifacts found are recorded in paths.
func (s *Synthesizer) Synthesize(test string, spec domain.TestSpec, paths *domain.ResolvedPaths, globalDefines, deps []string) *Invocation {
	inv := &Invocation{
		Filelist: deps,
		Artifact: filepath.Join(paths.OutDir, test+ArtifactExt),
	}

	defines := make([]string, 0, len(globalDefines)+len(spec.Defines)+4)
	defines = append(defines, globalDefines...)
	defines = append(defines, spec.Defines...)
	defines = append(defines, fmt.Sprintf(`DUMP_PATH="%s"`, filepath.Join(paths.OutDir, test+DumpExt)))
	defines = append(defines, BuildModeDefine)

	if spec.HasTag(domain.TagSystem) {
		defines = append(defines, s.hexDefines(test, spec, paths, inv)...)
	}
	inv.Defines = defines

	if spec.HasTag(domain.TagSystem) && !s.opts.PerTestFilelists {
		inv.FilelistPath = filepath.Join(paths.FilelistDir, SharedFilelist)
	} else {
		inv.FilelistPath = filepath.Join(paths.FilelistDir, test+".f")
	}

	args := []string{s.opts.Simulator}
	args = append(args, StrictFlags...)
	for _, dir := range paths.IncludeDirs {
		args = append(args, "-I", dir)
	}
	for _, dir := range paths.LibraryDirs {
		args = append(args, "-y", dir, "-Y", s.opts.SourceExt)
	}
	for _, define := range defines {
		args = append(args, "-D", define)
	}
	args = append(args, "-f", inv.FilelistPath)
	args = append(args, paths.TBPath)
	args = append(args, paths.CommonSources...)
	args = append(args, "-o", inv.Artifact)
	inv.Args = args

	return inv
}

// hexDefines finds the instruction and data images of a system test. A
// missing instruction image is always a warning; a missing data image only
// for C programs, since assembly tests normally have none.
func (s *Synthesizer) hexDefines(test string, spec domain.TestSpec, paths *domain.ResolvedPaths, inv *Invocation) []string {
	var defines []string

	instr, err := s.finder.Find(paths.HexDir, test+".text.hex")
	if err == nil {
		paths.InstrHex = instr
		defines = append(defines, fmt.Sprintf(`INSTR_HEX_FILE="%s"`, instr))
	} else {
		inv.Warnings = append(inv.Warnings, &domain.Error{Kind: domain.KindArtifactMissing, Op: "find instruction hex", Path: test, Err: err})
		s.log.Warn("Could not find instruction file for: " + test)
	}

	data, err := s.finder.Find(paths.HexDir, test+".data.hex")
	if err == nil {
		paths.DataHex = data
		defines = append(defines, fmt.Sprintf(`DATA_HEX_FILE="%s"`, data))
	} else if spec.HasTag(domain.TagCProgram) {
		inv.Warnings = append(inv.Warnings, &domain.Error{Kind: domain.KindArtifactMissing, Op: "find data hex", Path: test, Err: err})
		s.log.Warn("Could not find data file for: " + test)
	} else {
		s.log.Info("No data file for: " + test)
	}

	return defines
}

// FilelistContent renders the file list artifact, one path per line
func (inv *Invocation) FilelistContent() string {
	return strings.Join(inv.Filelist, "\n") + "\n"
}

// String renders the command line for logs
func (inv *Invocation) String() string {
	return strings.Join(inv.Args, " ")
}
