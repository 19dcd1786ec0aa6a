package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/savewarden/savewarden/agent/internal/config"
	"github.com/savewarden/savewarden/agent/internal/logging"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	watchDir   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "savewarden",
		Short: "Keep one backup per Barony session and restore it when the save disappears",
		Long: `savewarden watches a directory of .baronysave files. Every new or
updated save is copied into <dir>/backups under a descriptive name, keeping a
single backup per session. When a save is deleted, the latest backup for its
session is copied back into place.

Run without a subcommand to start watching.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", config.DefaultPath(), "path to the config file")
	pf.StringVar(&o.watchDir, "dir", "", "directory holding the save files (overrides watch_dir)")
	pf.StringVar(&o.logLevel, "log-level", "", "debug | info | warn | error (overrides log.level)")

	root.AddCommand(
		newRunCmd(o),
		newListCmd(o),
		newRestoreCmd(o),
		newLabelCmd(),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the save directory until interrupted (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd, o)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "savewarden", version)
		},
	}
}

// setup loads the config, applies flag overrides and installs the default
// logger. The caller closes the returned Logger.
func (o *options) setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.watchDir != "" {
		cfg.WatchDir = o.watchDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger.Logger)
	return cfg, logger, nil
}
