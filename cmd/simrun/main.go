package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"simrun/internal/cli"
	"simrun/internal/cli/commands"
	"simrun/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "simrun",
		Short:         "HDL simulation test runner",
		Long:          `Selects tests from a catalog, resolves each testbench's module dependencies, compiles and simulates it with Icarus Verilog, and reports which tests passed, failed or raised warnings.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Interrupts stop the batch; running simulators are killed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
