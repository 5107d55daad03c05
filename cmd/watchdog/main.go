package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

type options struct {
	configPath string
	logLevel   string
}

func addFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.configPath, "config", "c", "", "Path to the YAML config file (default ./watchdog.yaml)")
	fs.StringVar(&o.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "watchdog",
		Short:         "Watch one resource and keep Discord channels informed of its status",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o)
		},
	}
	addFlags(root.PersistentFlags(), o)

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Start the monitor (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "watchdog:", err)
		os.Exit(1)
	}
}
