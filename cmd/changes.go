package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openconf/schedtrack/config"
	"github.com/openconf/schedtrack/pkg/schedule"
)

var (
	changesAll      bool
	changesMarkSeen bool
	changesDay      int
)

// NewChangesCommand creates the changes command.
func NewChangesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List sessions flagged by the last reconciliation",
		Long: `List the stored sessions whose fields changed in the last fetch,
including new sessions and canceled ones. With --all every stored
session is listed regardless of flags.`,
		RunE: runChanges,
	}

	cmd.Flags().BoolVar(&changesAll, "all", false, "list all stored sessions, not only changed ones")
	cmd.Flags().BoolVar(&changesMarkSeen, "mark-seen", false, "mark the current changes as seen")
	cmd.Flags().IntVar(&changesDay, "day", 0, "restrict to one day number")

	return cmd
}

func runChanges(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	sessions, closeStore, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var stored []*schedule.Session
	if changesDay > 0 {
		stored, err = sessions.LoadDay(ctx, changesDay)
	} else {
		stored, err = sessions.LoadAll(ctx)
	}
	if err != nil {
		return err
	}
	meta, err := sessions.Meta(ctx)
	if err != nil {
		return err
	}

	var views []sessionView
	for _, s := range stored {
		if changesAll || s.Changes.Any() {
			views = append(views, viewOf(s))
		}
	}

	if changesMarkSeen {
		prefs, redisClient := openPrefStore(ctx, cfg, logger)
		if redisClient != nil {
			defer redisClient.Close()
		}
		if err := prefs.SetChangesSeen(ctx, true); err != nil {
			return err
		}
	}

	if outputFormat(cfg) == config.OutputFormatJSON {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"version":  meta.Version,
			"sessions": views,
		})
	}

	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No changed sessions")
		return nil
	}
	fmt.Fprintf(out, "Schedule %s: %d sessions\n", meta.Version, len(views))
	for _, v := range views {
		line := fmt.Sprintf("  day %d %s  [%s] %s", v.Day, v.Start, v.Room, v.Title)
		if len(v.Changes) > 0 {
			line += fmt.Sprintf("  (%v)", v.Changes)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
