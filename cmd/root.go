package cmd

import (
	"github.com/spf13/cobra"
)

// Global flags shared by all subcommands.
var (
	flagOutput string
	flagDebug  bool
)

// NewRootCommand creates the schedtrack root command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "schedtrack",
		Short: "Track changes in a conference schedule",
		Long: `schedtrack downloads a conference schedule document, parses it into
sessions, and diffs the result against the previously stored schedule.
Every changed field is flagged per session, vanished sessions are kept
as canceled entries, and the "changes seen" preference is cleared so a
front end knows there is something new to show.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagOutput, "output", "", "output format: text, json")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(NewParseCommand())
	root.AddCommand(NewFetchCommand())
	root.AddCommand(NewChangesCommand())
	root.AddCommand(NewVersionCommand())

	return root
}
