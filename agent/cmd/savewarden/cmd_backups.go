package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/savewarden/savewarden/agent/internal/retention"
	"github.com/savewarden/savewarden/agent/internal/savefile"
)

// noKey groups backups whose save carried no session key.
const noKey = "(none)"

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups grouped by session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := o.setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			entries, err := retention.New(cfg.WatchDir).List()
			if err != nil {
				return err
			}
			return printBackups(cmd.OutOrStdout(), entries)
		},
	}
}

func newRestoreCmd(o *options) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Copy the latest backup of a session back into the save directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			store := retention.New(cfg.WatchDir)
			latest, err := store.Latest(savefile.SessionKey(key))
			if errors.Is(err, retention.ErrNoBackup) {
				return fmt.Errorf("no backup for session %q in %s", key, store.BackupDir())
			}
			if err != nil {
				return err
			}
			if err := store.Restore(latest.Name, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", args[0], latest.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "session key (lobbykey or gamekey) to restore")
	cmd.MarkFlagRequired("key") //nolint:errcheck
	return cmd
}

func newLabelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label <file>",
		Short: "Print the backup name a save file would be stored under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := savefile.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), savefile.Describe(doc).Filename())
			return nil
		},
	}
}

// printBackups writes entries grouped by session key, groups sorted by key.
func printBackups(w io.Writer, entries []retention.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no backups")
		return err
	}

	groups := make(map[string][]retention.Entry)
	for _, e := range entries {
		k := noKey
		if e.Info.HasKey {
			k = string(e.Info.SessionKey)
		}
		groups[k] = append(groups[k], e)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "session %s\n", k)
		for _, e := range groups[k] {
			fmt.Fprintf(tw, "  %s\t%s\t%s %s\tlvl %s\tfloor %s\t%d bytes\n",
				e.Name,
				e.ModTime.Local().Format(time.DateTime),
				e.Info.Race, e.Info.Class,
				e.Info.Level, e.Info.Floor,
				e.Size,
			)
		}
	}
	return tw.Flush()
}
