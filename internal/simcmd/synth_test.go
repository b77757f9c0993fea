package simcmd

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"simrun/internal/domain"
)

type fakeFinder map[string]string

func (f fakeFinder) Find(root, name string) (string, error) {
	if p, ok := f[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", name, domain.ErrNotFound)
}

func testPaths(test string) *domain.ResolvedPaths {
	return &domain.ResolvedPaths{
		ProjectDir:    "/proj",
		RTLDir:        "/proj/rtl",
		IncludeDirs:   []string{"/proj/common/includes", "/proj/tb/common"},
		LibraryDirs:   []string{"/proj/rtl"},
		TBPath:        "/proj/tb/unit/alu_tb.sv",
		CommonSources: []string{"/proj/tb/common/clk_gen.sv"},
		OutDir:        "/out/" + test,
		FilelistDir:   "/proj/filelists",
		HexDir:        "/proj/test_inputs/compiled_programs",
	}
}

func newSynth(finder ArtifactFinder, log *zap.Logger, perTest bool) *Synthesizer {
	return NewSynthesizer(Options{Simulator: "iverilog", SourceExt: ".sv", PerTestFilelists: perTest}, finder, log)
}

func TestSynthesize_UnitTest(t *testing.T) {
	s := newSynth(fakeFinder{}, zap.NewNop(), false)
	global := []string{"TRACE"}
	spec := domain.TestSpec{Tags: []string{domain.TagUnit}, TB: "unit/alu_tb.sv", Defines: []string{"ALU_ADD", "WIDTH=32"}}
	deps := []string{"/proj/rtl/alu.sv", "/proj/rtl/adder.sv"}

	inv := s.Synthesize("alu_add", spec, testPaths("alu_add"), global, deps)

	want := []string{"iverilog"}
	want = append(want, StrictFlags...)
	want = append(want,
		"-I", "/proj/common/includes",
		"-I", "/proj/tb/common",
		"-y", "/proj/rtl", "-Y", ".sv",
		"-D", "TRACE",
		"-D", "ALU_ADD",
		"-D", "WIDTH=32",
		"-D", `DUMP_PATH="/out/alu_add/alu_add.vcd"`,
		"-D", "SIM",
		"-f", "/proj/filelists/alu_add.f",
		"/proj/tb/unit/alu_tb.sv",
		"/proj/tb/common/clk_gen.sv",
		"-o", "/out/alu_add/alu_add.vvp",
	)
	if diff := cmp.Diff(want, inv.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "/out/alu_add/alu_add.vvp", inv.Artifact)
	assert.Equal(t, "/proj/rtl/alu.sv\n/proj/rtl/adder.sv\n", inv.FilelistContent())
	assert.Empty(t, inv.Warnings)
	assert.Equal(t, []string{"TRACE"}, global, "global defines must not be mutated")
}

func TestSynthesize_GlobalDefinesNotShared(t *testing.T) {
	s := newSynth(fakeFinder{}, zap.NewNop(), false)
	global := make([]string, 1, 8)
	global[0] = "TRACE"

	first := s.Synthesize("a", domain.TestSpec{TB: "a_tb.sv", Defines: []string{"A_ONLY"}}, testPaths("a"), global, nil)
	second := s.Synthesize("b", domain.TestSpec{TB: "b_tb.sv"}, testPaths("b"), global, nil)

	assert.Contains(t, first.Defines, "A_ONLY")
	assert.NotContains(t, second.Defines, "A_ONLY")
	assert.Equal(t, "TRACE", second.Defines[0])
}

func TestSynthesize_SystemTestArtifacts(t *testing.T) {
	finder := fakeFinder{
		"hello.text.hex": "/hex/c/hello/hello.text.hex",
		"hello.data.hex": "/hex/c/hello/hello.data.hex",
	}
	s := newSynth(finder, zap.NewNop(), false)
	paths := testPaths("hello")

	inv := s.Synthesize("hello", domain.TestSpec{Tags: []string{domain.TagSystem, domain.TagCProgram}, TB: "system/top_tb.sv"}, paths, nil, nil)

	assert.Contains(t, inv.Defines, `INSTR_HEX_FILE="/hex/c/hello/hello.text.hex"`)
	assert.Contains(t, inv.Defines, `DATA_HEX_FILE="/hex/c/hello/hello.data.hex"`)
	assert.Equal(t, "/proj/filelists/top.f", inv.FilelistPath)
	assert.Equal(t, "/hex/c/hello/hello.text.hex", paths.InstrHex)
	assert.Equal(t, "/hex/c/hello/hello.data.hex", paths.DataHex)
	assert.Empty(t, inv.Warnings)
}

func TestSynthesize_MissingHexPolicy(t *testing.T) {
	tests := []struct {
		name         string
		tags         []string
		finder       fakeFinder
		wantWarnings int
		wantWarnLogs []string
		wantInfoLogs []string
	}{
		{
			name:         "asm system test without data hex is quiet",
			tags:         []string{domain.TagSystem, domain.TagAsm},
			finder:       fakeFinder{"boot.text.hex": "/hex/boot.text.hex"},
			wantWarnings: 0,
			wantInfoLogs: []string{"No data file for: boot"},
		},
		{
			name:         "c program without data hex warns",
			tags:         []string{domain.TagSystem, domain.TagCProgram},
			finder:       fakeFinder{"boot.text.hex": "/hex/boot.text.hex"},
			wantWarnings: 1,
			wantWarnLogs: []string{"Could not find data file for: boot"},
		},
		{
			name:         "missing instruction hex always warns",
			tags:         []string{domain.TagSystem, domain.TagAsm},
			finder:       fakeFinder{},
			wantWarnings: 1,
			wantWarnLogs: []string{"Could not find instruction file for: boot"},
			wantInfoLogs: []string{"No data file for: boot"},
		},
		{
			name:         "c program missing both",
			tags:         []string{domain.TagSystem, domain.TagCProgram},
			finder:       fakeFinder{},
			wantWarnings: 2,
			wantWarnLogs: []string{"Could not find instruction file for: boot", "Could not find data file for: boot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			s := newSynth(tt.finder, zap.New(core), false)

			inv := s.Synthesize("boot", domain.TestSpec{Tags: tt.tags, TB: "system/top_tb.sv"}, testPaths("boot"), nil, nil)

			require.Len(t, inv.Warnings, tt.wantWarnings)
			for _, w := range inv.Warnings {
				assert.Equal(t, domain.KindArtifactMissing, domain.KindOf(w))
			}
			assert.Equal(t, tt.wantWarnLogs, messages(logs.FilterLevelExact(zapcore.WarnLevel).All()))
			assert.Equal(t, tt.wantInfoLogs, messages(logs.FilterLevelExact(zapcore.InfoLevel).All()))
			for _, d := range inv.Defines {
				assert.NotContains(t, d, "DATA_HEX_FILE")
			}
		})
	}
}

func TestSynthesize_PerTestFilelists(t *testing.T) {
	s := newSynth(fakeFinder{}, zap.NewNop(), true)
	inv := s.Synthesize("boot", domain.TestSpec{Tags: []string{domain.TagSystem}, TB: "system/top_tb.sv"}, testPaths("boot"), nil, nil)
	assert.Equal(t, "/proj/filelists/boot.f", inv.FilelistPath)
}

func TestInvocation_EmptyFilelist(t *testing.T) {
	inv := &Invocation{}
	assert.Equal(t, "\n", inv.FilelistContent())
}

func messages(entries []observer.LoggedEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}
