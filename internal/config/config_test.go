package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"simrun/internal/domain"
)

func TestConfig_Paths(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		get      func(c *Config) string
		expected string
	}{
		{
			name:     "rtl dir relative to project",
			config:   &Config{ProjectDir: "/project", RTLDir: "rtl"},
			get:      (*Config).GetRTLDir,
			expected: "/project/rtl",
		},
		{
			name:     "absolute output dir kept",
			config:   &Config{ProjectDir: "/project", OutputDir: "/tmp/results"},
			get:      (*Config).GetOutputDir,
			expected: "/tmp/results",
		},
		{
			name:     "testbench with subdirectory",
			config:   &Config{ProjectDir: "/project", TBDir: "tb"},
			get:      func(c *Config) string { return c.GetTBPath("system/top_tb.sv") },
			expected: "/project/tb/system/top_tb.sv",
		},
		{
			name:     "results file under output dir",
			config:   &Config{ProjectDir: "/project", OutputDir: "sim_results"},
			get:      (*Config).GetResultsPath,
			expected: "/project/sim_results/test-results.json",
		},
		{
			name:     "isolated run output",
			config:   &Config{ProjectDir: "/project", OutputDir: "out", RunID: "abc", Flags: Flags{Isolate: true}},
			get:      (*Config).GetRunOutputDir,
			expected: "/project/out/abc",
		},
		{
			name:     "run id ignored without isolate",
			config:   &Config{ProjectDir: "/project", FilelistDir: "filelists", RunID: "abc"},
			get:      (*Config).GetRunFilelistDir,
			expected: "/project/filelists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.get(tt.config)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestConfig_LibraryDirsDefaultToRTL(t *testing.T) {
	cfg := New()
	cfg.ProjectDir = "/project"

	dirs := cfg.GetLibraryDirs()
	if len(dirs) != 1 || dirs[0] != "/project/rtl" {
		t.Errorf("expected [/project/rtl], got %v", dirs)
	}

	cfg.LibraryDirs = []string{"rtl", "/opt/ip"}
	dirs = cfg.GetLibraryDirs()
	if len(dirs) != 2 || dirs[1] != "/opt/ip" {
		t.Errorf("unexpected library dirs: %v", dirs)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Simulator != DefaultSimulator {
		t.Errorf("expected Simulator %s, got %s", DefaultSimulator, cfg.Simulator)
	}
	if cfg.Jobs != DefaultJobs {
		t.Errorf("expected Jobs %d, got %d", DefaultJobs, cfg.Jobs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	yml := "simulator: /opt/iverilog/bin/iverilog\njobs: 2\nsim_timeout: 90s\nlibrary_dirs: [rtl, ip]\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(yml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SIMRUN_OUTPUT_DIR=from_env\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("SIMRUN_OUTPUT_DIR", "")
	os.Unsetenv("SIMRUN_OUTPUT_DIR")
	t.Setenv("SIMRUN_JOBS", "3")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Simulator != "/opt/iverilog/bin/iverilog" {
		t.Errorf("expected simulator from file, got %s", cfg.Simulator)
	}
	if cfg.SimTimeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", cfg.SimTimeout)
	}
	if cfg.Jobs != 3 {
		t.Errorf("expected env to override jobs, got %d", cfg.Jobs)
	}
	if cfg.OutputDir != "from_env" {
		t.Errorf("expected output dir from .env, got %s", cfg.OutputDir)
	}
	if cfg.RTLDir != DefaultRTLDir {
		t.Errorf("expected default rtl dir to survive, got %s", cfg.RTLDir)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit config missing", func(t *testing.T) {
		_, err := Load(t.TempDir(), "/does/not/exist.yaml")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("malformed config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(path, []byte("jobs: [1"), 0644)
		_, err := Load(t.TempDir(), path)
		if !errors.Is(err, domain.ErrMalformed) {
			t.Errorf("expected malformed, got %v", err)
		}
		if domain.KindOf(err) != domain.KindConfiguration {
			t.Errorf("expected configuration kind, got %v", domain.KindOf(err))
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		cfg := New()
		cfg.Jobs = 0
		cfg.LogLevel = "loud"
		if err := cfg.Validate(); !errors.Is(err, domain.ErrMalformed) {
			t.Errorf("expected malformed, got %v", err)
		}
	})
}
