package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"simrun/internal/config"
	"simrun/internal/storage"
	"simrun/internal/ui"
)

// HistoryCommand handles the history command
type HistoryCommand struct {
	config *config.Config
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(cfg *config.Config) *HistoryCommand {
	return &HistoryCommand{config: cfg}
}

// Execute runs the command
func (hc *HistoryCommand) Execute(cmd *cobra.Command, args []string) error {
	if hc.config.HistoryDSN == "" {
		return fmt.Errorf("no history database configured (set --history-dsn, history_dsn or %sHISTORY_DSN)", config.EnvPrefix)
	}

	history, err := storage.OpenHistory(cmd.Context(), hc.config.HistoryDSN)
	if err != nil {
		return err
	}
	defer history.Close()

	formatter := ui.NewFormatter(cmd.OutOrStdout(), zap.NewNop())
	limit := hc.config.Flags.Limit
	if limit <= 0 {
		limit = 20
	}

	if name := hc.config.Flags.TestName; name != "" {
		recs, err := history.TestHistory(cmd.Context(), name, limit)
		if err != nil {
			return err
		}
		formatter.PrintTestHistory(name, recs)
		return nil
	}

	runs, err := history.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	formatter.PrintHistory(runs)
	return nil
}
