package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"simrun/internal/domain"
)

const sampleCatalog = `
tests:
  alu_add:
    tags: [unit]
    tb: unit/alu_tb.sv
    defines: [ALU_ADD]
  alu_sub:
    tags: [unit]
    tb: unit/alu_tb.sv
    defines: [ALU_SUB, "WIDTH=32"]
  hello_c:
    tags: [system, c_program]
    tb: system/top_tb.sv
  branch_asm:
    tags: [system, asm]
    tb: system/top_tb.sv
regressions:
  smoke: [alu_add, hello_c]
  full: [alu_add, alu_sub, hello_c, branch_asm]
  broken: [alu_add, does_not_exist]
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_catalog.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cat, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cat.Tests) != 4 {
		t.Errorf("expected 4 tests, got %d", len(cat.Tests))
	}
	spec, ok := cat.Lookup("alu_sub")
	if !ok {
		t.Fatal("expected alu_sub in catalog")
	}
	if spec.TB != "unit/alu_tb.sv" {
		t.Errorf("expected tb unit/alu_tb.sv, got %s", spec.TB)
	}
	if len(spec.Defines) != 2 || spec.Defines[1] != "WIDTH=32" {
		t.Errorf("unexpected defines: %v", spec.Defines)
	}
	if !cat.Tests["hello_c"].HasTag(domain.TagCProgram) {
		t.Error("expected hello_c to be tagged c_program")
	}
	if got := cat.Regressions["full"]; len(got) != 4 || got[3] != "branch_asm" {
		t.Errorf("unexpected full regression: %v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yml") },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unparseable yaml",
			path:    func(t *testing.T) string { return writeCatalog(t, "tests: [unclosed") },
			wantErr: domain.ErrMalformed,
		},
		{
			name: "test without testbench",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  t1:\n    tags: [unit]\n")
			},
			wantErr: domain.ErrMalformed,
		},
		{
			name: "unknown tag",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  t1:\n    tags: [bogus]\n    tb: t1_tb.sv\n")
			},
			wantErr: domain.ErrMalformed,
		},
		{
			name: "empty test name",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  '':\n    tb: t1_tb.sv\n")
			},
			wantErr: domain.ErrMalformed,
		},
		{
			name: "dot test name",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  '.':\n    tb: t1_tb.sv\n")
			},
			wantErr: domain.ErrMalformed,
		},
		{
			name: "parent dir test name",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  '..':\n    tb: t1_tb.sv\n")
			},
			wantErr: domain.ErrMalformed,
		},
		{
			name: "test name escaping output dir",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  '../escape':\n    tb: t1_tb.sv\n")
			},
			wantErr: domain.ErrMalformed,
		},
		{
			name: "test name with slash",
			path: func(t *testing.T) string {
				return writeCatalog(t, "tests:\n  'a/b':\n    tb: t1_tb.sv\n")
			},
			wantErr: domain.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
			if domain.KindOf(err) != domain.KindConfiguration {
				t.Errorf("expected configuration error kind, got %v", domain.KindOf(err))
			}
		})
	}
}

func TestCatalog_WithTag(t *testing.T) {
	cat, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	system := cat.WithTag(domain.TagSystem)
	if len(system) != 2 || system[0] != "branch_asm" || system[1] != "hello_c" {
		t.Errorf("unexpected system tests: %v", system)
	}
	if len(cat.WithTag("")) != 4 {
		t.Errorf("empty tag should match all tests")
	}
	if got := cat.RegressionNames(); len(got) != 3 || got[0] != "broken" {
		t.Errorf("unexpected regression names: %v", got)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cat, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Tests == nil || cat.Regressions == nil {
		t.Error("expected initialized maps")
	}
}
