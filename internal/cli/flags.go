package cli

import (
	"time"

	"simrun/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	// Persistent
	ProjectDir string
	ConfigFile string
	LogLevel   string

	// run
	Regressions        []string
	Tests              []string
	Defines            []string
	OutputDir          string
	CatalogFile        string
	Jobs               int
	Timeout            time.Duration
	OnlyFailed         bool
	Isolate            bool
	Progress           bool
	WarnMissingModules bool
	MetricsFile        string
	HistoryDSN         string

	// list and history
	NameFilter  string
	Tag         string
	ListRegress bool
	Limit       int
	TestName    string
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Regressions: f.Regressions,
		Tests:       f.Tests,
		Defines:     f.Defines,
		OnlyFailed:  f.OnlyFailed,
		Isolate:     f.Isolate,
		Progress:    f.Progress,
		NameFilter:  f.NameFilter,
		Tag:         f.Tag,
		ListRegress: f.ListRegress,
		Limit:       f.Limit,
		TestName:    f.TestName,
	}
}

// Apply overrides cfg with every setting flag the user actually passed.
// changed reports whether the named flag was set on the command line.
func (f *Flags) Apply(cfg *config.Config, changed func(name string) bool) {
	if changed("log-level") {
		cfg.LogLevel = f.LogLevel
	}
	if changed("output-dir") {
		cfg.OutputDir = f.OutputDir
	}
	if changed("catalog") {
		cfg.CatalogFile = f.CatalogFile
	}
	if changed("jobs") {
		cfg.Jobs = f.Jobs
	}
	if changed("timeout") {
		cfg.SimTimeout = f.Timeout
	}
	if changed("warn-missing-modules") {
		cfg.WarnMissingModules = f.WarnMissingModules
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.MetricsFile
	}
	if changed("history-dsn") {
		cfg.HistoryDSN = f.HistoryDSN
	}
	cfg.Flags = f.ToConfigFlags()
}
