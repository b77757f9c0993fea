package commands

import (
	"github.com/spf13/cobra"

	"simrun/internal/cli"
	"simrun/internal/config"
	"simrun/internal/discovery"
	"simrun/internal/storage"
	"simrun/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run      *RunCommand
	List     *ListCommand
	Failures *FailuresCommand
	History  *HistoryCommand
}

// NewCommands creates all commands with dependencies. cfg is filled in from
// the project configuration and flags before any command executes.
func NewCommands(cfg *config.Config) *Commands {
	jsonStorage := storage.NewJSONStorage(cfg)
	filter := discovery.NewFilter()
	failureViewer := ui.NewFailureViewer(jsonStorage)

	return &Commands{
		Run:      NewRunCommand(cfg, jsonStorage),
		List:     NewListCommand(cfg, filter, jsonStorage),
		Failures: NewFailuresCommand(cfg, jsonStorage, failureViewer),
		History:  NewHistoryCommand(cfg),
	}
}

// prepare loads the project configuration into cfg and applies the flags
func prepare(cmd *cobra.Command, flags *cli.Flags, cfg *config.Config) error {
	loaded, err := config.Load(flags.ProjectDir, flags.ConfigFile)
	if err != nil {
		return err
	}
	*cfg = *loaded
	flags.Apply(cfg, cmd.Flags().Changed)
	return cfg.Validate()
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	preRun := func(cmd *cobra.Command, args []string) error {
		return prepare(cmd, flags, cfg)
	}

	rootCmd.PersistentFlags().StringVar(&flags.ProjectDir, "project-dir", config.DefaultProjectDir, "Project root containing rtl/, tb/ and the test catalog")
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Config file (default <project-dir>/"+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")

	// Run command
	runCmd := &cobra.Command{
		Use:     "run [test...]",
		Short:   "Compile and simulate selected tests",
		Long:    "Select tests by regression and name, compile each testbench with its dependencies and simulate it, then report passed, failed and warning tests",
		RunE:    c.Run.Execute,
		PreRunE: preRun,
	}
	runCmd.Flags().StringSliceVarP(&flags.Regressions, "regressions", "r", nil, "Regressions to run")
	runCmd.Flags().StringSliceVarP(&flags.Tests, "tests", "t", nil, "Tests to run (also accepted as arguments)")
	runCmd.Flags().StringArrayVarP(&flags.Defines, "defines", "D", nil, "Preprocessor define passed to every test (repeatable)")
	runCmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "o", config.DefaultOutputDir, "Directory for test outputs")
	runCmd.Flags().StringVarP(&flags.CatalogFile, "catalog", "c", config.DefaultCatalogFile, "Test catalog file")
	runCmd.Flags().IntVarP(&flags.Jobs, "jobs", "j", config.DefaultJobs, "Number of tests to run at once")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", config.DefaultSimTimeout, "Kill a simulation after this long (0 = no limit)")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Also run the tests that failed in the last run")
	runCmd.Flags().BoolVar(&flags.Isolate, "isolate", false, "Write outputs and file lists under a per-run directory")
	runCmd.Flags().BoolVar(&flags.Progress, "progress", false, "Show a progress bar")
	runCmd.Flags().BoolVar(&flags.WarnMissingModules, "warn-missing-modules", false, "Warn about instantiated modules that have no source file")
	runCmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	runCmd.Flags().StringVar(&flags.HistoryDSN, "history-dsn", "", "Record the run in a history database (sqlite://path or mysql://dsn)")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List catalog tests or regressions",
		Long:    "List the tests of the catalog with their tags and testbench, or the regressions with their members. Tests that failed in the last run are marked [F].",
		RunE:    c.List.Execute,
		PreRunE: preRun,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g. 'alu_*' or '*branch*')")
	listCmd.Flags().StringVar(&flags.Tag, "tag", "", "Only list tests carrying this tag")
	listCmd.Flags().BoolVar(&flags.ListRegress, "regressions", false, "List regressions instead of tests")
	listCmd.Flags().StringVarP(&flags.CatalogFile, "catalog", "c", config.DefaultCatalogFile, "Test catalog file")
	listCmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "o", config.DefaultOutputDir, "Directory holding the last run's results")
	rootCmd.AddCommand(listCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "View failed tests interactively",
		Long:    "Browse the failed and warning tests of the last run with their logs",
		RunE:    c.Failures.Execute,
		PreRunE: preRun,
	}
	failuresCmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "o", config.DefaultOutputDir, "Directory holding the last run's results")
	rootCmd.AddCommand(failuresCmd)

	// History command
	historyCmd := &cobra.Command{
		Use:     "history",
		Short:   "Show recent runs",
		Long:    "Show recent runs, or the outcomes of one test across runs, from the history database",
		RunE:    c.History.Execute,
		PreRunE: preRun,
	}
	historyCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringVar(&flags.TestName, "test", "", "Show the history of a single test")
	historyCmd.Flags().StringVar(&flags.HistoryDSN, "history-dsn", "", "History database (sqlite://path or mysql://dsn)")
	rootCmd.AddCommand(historyCmd)
}
