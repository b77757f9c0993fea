// Package config holds the orchestrator configuration. Values come from
// defaults, an optional project YAML file, the project .env, SIMRUN_*
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"simrun/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	// Project layout, relative paths resolve against ProjectDir
	ProjectDir  string   `yaml:"-"`
	CatalogFile string   `yaml:"catalog"`
	RTLDir      string   `yaml:"rtl_dir"`
	IncludeDir  string   `yaml:"include_dir"`
	TBDir       string   `yaml:"tb_dir"`
	TBCommonDir string   `yaml:"tb_common_dir"`
	HexDir      string   `yaml:"hex_dir"`
	FilelistDir string   `yaml:"filelist_dir"`
	LibraryDirs []string `yaml:"library_dirs"` // Defaults to the RTL dir when empty

	// Output settings
	OutputDir string `yaml:"output_dir"`

	// Toolchain settings
	Simulator      string `yaml:"simulator"`
	SourceExt      string `yaml:"source_ext"`
	InstancePrefix string `yaml:"instance_prefix"`

	// Execution settings
	Jobs               int           `yaml:"jobs"`
	SimTimeout         time.Duration `yaml:"sim_timeout"`
	WarnMissingModules bool          `yaml:"warn_missing_modules"`

	// Reporting settings
	HistoryDSN  string `yaml:"history_dsn"`
	MetricsFile string `yaml:"metrics_file"`
	LogLevel    string `yaml:"log_level"`

	// RunID identifies the current invocation
	RunID string `yaml:"-"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Flags holds command-line flags
type Flags struct {
	Regressions []string
	Tests       []string
	Defines     []string
	OnlyFailed  bool
	Isolate     bool
	Progress    bool
	NameFilter  string
	Tag         string
	ListRegress bool
	Limit       int
	TestName    string
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectDir:     DefaultProjectDir,
		CatalogFile:    DefaultCatalogFile,
		RTLDir:         DefaultRTLDir,
		IncludeDir:     DefaultIncludeDir,
		TBDir:          DefaultTBDir,
		TBCommonDir:    DefaultTBCommonDir,
		HexDir:         DefaultHexDir,
		FilelistDir:    DefaultFilelistDir,
		OutputDir:      DefaultOutputDir,
		Simulator:      DefaultSimulator,
		SourceExt:      DefaultSourceExt,
		InstancePrefix: DefaultInstancePrefix,
		Jobs:           DefaultJobs,
		SimTimeout:     DefaultSimTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// Load builds the config for projectDir. configFile may be empty, in which
// case <project>/simrun.yaml is used if present. Load never reads flags;
// callers apply them afterwards.
func Load(projectDir, configFile string) (*Config, error) {
	if projectDir == "" {
		projectDir = DefaultProjectDir
	}

	cfg := New()
	path := configFile
	if path == "" {
		path = filepath.Join(projectDir, DefaultConfigFile)
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	cfg.ProjectDir = projectDir

	// .env is optional; variables already set in the environment win
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cause := err
		if errors.Is(err, fs.ErrNotExist) {
			cause = fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		return nil, &domain.Error{Kind: domain.KindConfiguration, Op: "read config", Path: path, Err: cause}
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &domain.Error{Kind: domain.KindConfiguration, Op: "parse config", Path: path, Err: fmt.Errorf("%w: %v", domain.ErrMalformed, err)}
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var problems []string
	if c.Jobs < 1 {
		problems = append(problems, fmt.Sprintf("jobs must be at least 1, got %d", c.Jobs))
	}
	if c.SimTimeout < 0 {
		problems = append(problems, fmt.Sprintf("sim_timeout must be non-negative, got %v", c.SimTimeout))
	}
	if c.Simulator == "" {
		problems = append(problems, "simulator must not be empty")
	}
	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		problems = append(problems, fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel))
	}
	if len(problems) > 0 {
		return &domain.Error{Kind: domain.KindConfiguration, Op: "validate config", Err: fmt.Errorf("%w: %s", domain.ErrMalformed, strings.Join(problems, "; "))}
	}
	return nil
}

// applyEnvOverrides applies SIMRUN_* environment variables to the config
func applyEnvOverrides(cfg *Config) {
	strs := map[string]*string{
		"CATALOG":       &cfg.CatalogFile,
		"RTL_DIR":       &cfg.RTLDir,
		"INCLUDE_DIR":   &cfg.IncludeDir,
		"TB_DIR":        &cfg.TBDir,
		"TB_COMMON_DIR": &cfg.TBCommonDir,
		"HEX_DIR":       &cfg.HexDir,
		"FILELIST_DIR":  &cfg.FilelistDir,
		"OUTPUT_DIR":    &cfg.OutputDir,
		"SIMULATOR":     &cfg.Simulator,
		"HISTORY_DSN":   &cfg.HistoryDSN,
		"METRICS_FILE":  &cfg.MetricsFile,
		"LOG_LEVEL":     &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvPrefix + "LIBRARY_DIRS"); v != "" {
		cfg.LibraryDirs = filepath.SplitList(v)
	}
	if v := os.Getenv(EnvPrefix + "JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Jobs = n
		}
	}
	if v := os.Getenv(EnvPrefix + "SIM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SimTimeout = d
		}
	}
	if v := os.Getenv(EnvPrefix + "WARN_MISSING_MODULES"); v != "" {
		cfg.WarnMissingModules = v == "true" || v == "1"
	}
}

// resolve makes p absolute, relative to the project dir
func (c *Config) resolve(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ProjectDir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetProjectDir returns the absolute project root
func (c *Config) GetProjectDir() string { return c.resolve(".") }

// GetCatalogPath returns the absolute catalog path
func (c *Config) GetCatalogPath() string { return c.resolve(c.CatalogFile) }

// GetRTLDir returns the absolute RTL root
func (c *Config) GetRTLDir() string { return c.resolve(c.RTLDir) }

// GetIncludeDirs returns the include directories passed to the simulator
func (c *Config) GetIncludeDirs() []string {
	return []string{c.resolve(c.IncludeDir), c.resolve(c.TBCommonDir)}
}

// GetLibraryDirs returns the module library search directories
func (c *Config) GetLibraryDirs() []string {
	if len(c.LibraryDirs) == 0 {
		return []string{c.GetRTLDir()}
	}
	dirs := make([]string, len(c.LibraryDirs))
	for i, d := range c.LibraryDirs {
		dirs[i] = c.resolve(d)
	}
	return dirs
}

// GetTBPath returns the absolute testbench path for a catalog tb entry
func (c *Config) GetTBPath(tb string) string { return c.resolve(filepath.Join(c.TBDir, tb)) }

// GetTBCommonDir returns the absolute common testbench directory
func (c *Config) GetTBCommonDir() string { return c.resolve(c.TBCommonDir) }

// GetHexDir returns the absolute hex artifact root
func (c *Config) GetHexDir() string { return c.resolve(c.HexDir) }

// GetFilelistDir returns the absolute file-list directory
func (c *Config) GetFilelistDir() string { return c.resolve(c.FilelistDir) }

// GetOutputDir returns the absolute results directory
func (c *Config) GetOutputDir() string { return c.resolve(c.OutputDir) }

// GetRunOutputDir returns where this invocation writes per-test output. With
// --isolate every invocation gets its own run-ID subdirectory.
func (c *Config) GetRunOutputDir() string {
	if c.Flags.Isolate && c.RunID != "" {
		return filepath.Join(c.GetOutputDir(), c.RunID)
	}
	return c.GetOutputDir()
}

// GetRunFilelistDir returns where this invocation writes file lists
func (c *Config) GetRunFilelistDir() string {
	if c.Flags.Isolate && c.RunID != "" {
		return filepath.Join(c.GetFilelistDir(), c.RunID)
	}
	return c.GetFilelistDir()
}

// GetResultsPath returns the run summary path, so run, list and failures agree
func (c *Config) GetResultsPath() string {
	return filepath.Join(c.GetOutputDir(), DefaultResultsFile)
}

// GetRunLogPath returns the run-level log path
func (c *Config) GetRunLogPath() string {
	return filepath.Join(c.GetRunOutputDir(), DefaultRunLogFile)
}
