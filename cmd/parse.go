package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openconf/schedtrack/config"
	"github.com/openconf/schedtrack/pkg/schedule"
	"github.com/openconf/schedtrack/pkg/schedule/validate"
)

var parseQuiet bool

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a schedule document from a local file",
		Long: `Parse a schedule XML document from a local file and print the result.

No stored schedule is consulted and nothing is persisted; this command
exists to inspect a document before pointing fetch at its source.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().BoolVarP(&parseQuiet, "quiet", "q", false, "only print the summary line")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	sessions, meta, err := schedule.Parse(cmd.Context(), string(data), "")
	if err != nil {
		if meta.Version != "" {
			return fmt.Errorf("parsing schedule version %q: %w", meta.Version, err)
		}
		return fmt.Errorf("parsing schedule: %w", err)
	}

	issues := validate.Validate(sessions)

	if outputFormat(cfg) == config.OutputFormatJSON {
		views := make([]sessionView, len(sessions))
		for i, s := range sessions {
			views[i] = viewOf(s)
		}
		issueTexts := make([]string, len(issues))
		for i, issue := range issues {
			issueTexts[i] = issue.String()
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"title":    meta.Title,
			"version":  meta.Version,
			"num_days": meta.NumDays,
			"sessions": views,
			"issues":   issueTexts,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): %d sessions across %d days\n",
		meta.Title, meta.Version, len(sessions), meta.NumDays)
	if parseQuiet {
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "  day %d %02d:%02d  [%s] %s\n",
			s.Day, s.StartTime/60, s.StartTime%60, s.Room, s.Title)
	}
	for _, issue := range issues {
		fmt.Fprintf(out, "warning: %s\n", issue)
	}
	return nil
}
