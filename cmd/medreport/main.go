package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
	dsn        string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "medreport",
		Short:         "Extract lab metrics and clinical notes from medical reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "optional YAML config file")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&f.dsn, "db", "", "record runs in this job ledger (postgres URL or sqlite:path)")

	root.AddCommand(
		newExtractCmd(f),
		newTextCmd(f),
		newBatchCmd(f),
		newWatchCmd(f),
		newMCPCmd(f),
	)
	return root
}
