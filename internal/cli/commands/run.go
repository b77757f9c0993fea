package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"simrun/internal/catalog"
	"simrun/internal/config"
	"simrun/internal/domain"
	"simrun/internal/execution"
	"simrun/internal/logging"
	"simrun/internal/metrics"
	"simrun/internal/storage"
	"simrun/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config  *config.Config
	storage storage.Storage
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(cfg *config.Config, st storage.Storage) *RunCommand {
	return &RunCommand{
		config:  cfg,
		storage: st,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.config
	cfg.RunID = uuid.NewString()
	ctx := cmd.Context()

	log, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Console: cmd.ErrOrStderr(),
		File:    cfg.GetRunLogPath(),
	})
	if err != nil {
		return err
	}
	defer closeLog()
	log.Debug("starting run", zap.String("run_id", cfg.RunID), zap.String("output_dir", cfg.GetRunOutputDir()))

	cat, err := catalog.Load(cfg.GetCatalogPath())
	if err != nil {
		log.Error("Could not load test catalog", zap.Error(err))
		return err
	}

	tests := append(append([]string{}, cfg.Flags.Tests...), args...)
	if cfg.Flags.OnlyFailed {
		failed, err := rc.lastFailures()
		if err != nil {
			return err
		}
		if len(failed) == 0 && len(tests) == 0 && len(cfg.Flags.Regressions) == 0 {
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ No failed tests in the last run")
			return nil
		}
		tests = append(tests, failed...)
	}

	selection := catalog.Select(cfg.Flags.Regressions, tests, cat, log)

	runner := execution.NewRunner(cfg, log)
	pool := execution.NewWorkerPool(cfg, runner, cat, log)
	collector := metrics.NewCollector()
	pool.AddObserver(collector)
	if cfg.Flags.Progress && len(selection.Tests) > 0 {
		pool.SetProgress(ui.NewProgressBar(len(selection.Tests), cmd.ErrOrStderr()))
	}

	set, elapsed, err := pool.Execute(ctx, selection.Tests, cfg.Flags.Defines)
	if err != nil {
		return err
	}

	formatter := ui.NewFormatter(cmd.OutOrStdout(), log)
	formatter.Render(set)

	summary := set.Summary(cfg.RunID, cfg.Jobs, elapsed, cfg.GetRunOutputDir())
	if err := rc.storage.Save(summary); err != nil {
		log.Error("Could not save run summary", zap.Error(err))
	}

	collector.ObserveRun(summary.Meta)
	if cfg.MetricsFile != "" {
		path := cfg.MetricsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.GetProjectDir(), path)
		}
		if err := collector.Write(path); err != nil {
			log.Warn("Could not write metrics", zap.String("path", path), zap.Error(err))
		}
	}

	if cfg.HistoryDSN != "" {
		if err := recordHistory(cmd, cfg.HistoryDSN, summary); err != nil {
			log.Warn("Could not record run history", zap.Error(err))
		}
	}

	formatter.PrintMetaStats(summary.Meta)
	return nil
}

// lastFailures returns the failed tests of the previous run. No previous
// run means nothing failed.
func (rc *RunCommand) lastFailures() ([]string, error) {
	last, err := rc.storage.Load()
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	return last.FailedNames(), nil
}

func recordHistory(cmd *cobra.Command, dsn string, summary *domain.RunSummary) error {
	history, err := storage.OpenHistory(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer history.Close()
	return history.Record(cmd.Context(), summary)
}
