package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"simrun/internal/catalog"
	"simrun/internal/config"
	"simrun/internal/discovery"
	"simrun/internal/storage"
	"simrun/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config  *config.Config
	filter  *discovery.Filter
	storage storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	filter *discovery.Filter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:  cfg,
		filter:  filter,
		storage: st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(lc.config.GetCatalogPath())
	if err != nil {
		return err
	}

	// Failures of the last run, if any
	failed := make(map[string]struct{})
	if last, err := lc.storage.Load(); err == nil {
		for _, name := range last.FailedNames() {
			failed[name] = struct{}{}
		}
	}

	formatter := ui.NewFormatter(cmd.OutOrStdout(), zap.NewNop())
	if lc.config.Flags.ListRegress {
		formatter.PrintRegressions(cat, failed)
		return nil
	}

	tests := cat.WithTag(lc.config.Flags.Tag)
	tests = lc.filter.FilterByName(tests, lc.config.Flags.NameFilter)

	if len(tests) == 0 {
		color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "No tests found")
		return nil
	}

	formatter.PrintTestList(tests, cat, failed)
	return nil
}
