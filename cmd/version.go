package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openconf/schedtrack/pkg/buildinfo"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the schedtrack version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagOutput == "json" {
				return printJSON(cmd.OutOrStdout(), buildinfo.Get())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schedtrack", buildinfo.String())
			return nil
		},
	}
}
