// Package cli implements the auditdash command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustnocode/auditdash/internal/config"
	"github.com/trustnocode/auditdash/internal/logging"
)

// globalFlags are shared by every command and override loaded configuration.
type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
	storageDir string
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}
	sf := &serveFlags{}

	root := &cobra.Command{
		Use:   "auditdash",
		Short: "Filesystem backend for the audit dashboard",
		Long: `auditdash serves the audit dashboard API: validating paths, browsing
directories, listing and reading audit reports, and storing short-lived
bootstrap prompts.

Running auditdash without a command starts the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, gf, sf)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&gf.configFile, "config", "", "YAML config file (default $AUDITDASH_CONFIG)")
	pf.StringVar(&gf.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&gf.logFormat, "log-format", "", "log format: json, console, auto")
	pf.StringVar(&gf.storageDir, "storage-dir", "", "directory for bootstrap artifacts")
	sf.register(root)

	root.AddCommand(
		newServeCmd(gf),
		newCleanupCmd(gf),
		newDrivesCmd(gf),
		newValidateCmd(gf),
		newListCmd(gf),
		newShowCmd(gf),
	)
	return root
}

// loadConfig loads configuration, applies flags the user set and starts
// logging.
func loadConfig(cmd *cobra.Command, gf *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadFile(gf.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = gf.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = gf.logFormat
	}
	if flags.Changed("storage-dir") {
		cfg.StorageDir = gf.storageDir
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogOutput,
	}); err != nil {
		return nil, fmt.Errorf("logging init error: %w", err)
	}
	return cfg, nil
}
