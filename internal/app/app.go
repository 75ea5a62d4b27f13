package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/logging"
)

var version = "0.1.0"

// Run bootstraps the vidtube backend application.
func Run(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newRootCmd creates the root command for the vidtube CLI.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vidtube",
		Short:         "Video sharing platform backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("vidtube version {{.Version}}\n")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())

	return rootCmd
}

// load reads the configuration and installs the process logger.
func load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With("env", cfg.Env)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
