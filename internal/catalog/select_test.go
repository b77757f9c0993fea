package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"simrun/internal/domain"
)

func mustParse(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	return cat
}

func TestSelect(t *testing.T) {
	cat := mustParse(t)

	tests := []struct {
		name        string
		regressions []string
		tests       []string
		want        []string
		warnings    int
	}{
		{
			name:        "single regression keeps member order",
			regressions: []string{"full"},
			want:        []string{"alu_add", "alu_sub", "hello_c", "branch_asm"},
		},
		{
			name:        "overlapping regressions deduplicate",
			regressions: []string{"smoke", "full"},
			want:        []string{"alu_add", "hello_c", "alu_sub", "branch_asm"},
		},
		{
			name:        "explicit tests come first",
			regressions: []string{"smoke"},
			tests:       []string{"branch_asm", "alu_add"},
			want:        []string{"branch_asm", "alu_add", "hello_c"},
		},
		{
			name:        "unknown regression skipped",
			regressions: []string{"nightly", "smoke"},
			want:        []string{"alu_add", "hello_c"},
			warnings:    1,
		},
		{
			name:        "unknown member dropped",
			regressions: []string{"broken"},
			want:        []string{"alu_add"},
			warnings:    1,
		},
		{
			name:     "unknown explicit test dropped",
			tests:    []string{"ghost", "alu_sub", "alu_sub"},
			want:     []string{"alu_sub"},
			warnings: 1,
		},
		{
			name: "nothing requested",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(tt.regressions, tt.tests, cat, zap.NewNop())
			if diff := cmp.Diff(tt.want, sel.Tests); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
			assert.Len(t, sel.Warnings, tt.warnings)
			for _, w := range sel.Warnings {
				assert.Equal(t, domain.KindSelection, domain.KindOf(w))
				assert.ErrorIs(t, w, domain.ErrNotFound)
			}
		})
	}
}

func TestSelect_LogsWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Select([]string{"nightly"}, []string{"ghost"}, mustParse(t), zap.New(core))

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Unable to find regression: nightly", warnings[0].Message)
	assert.Equal(t, "Unable to find test: ghost", warnings[1].Message)
}
