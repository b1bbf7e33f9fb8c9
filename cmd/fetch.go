package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openconf/schedtrack/config"
	"github.com/openconf/schedtrack/pkg/fetch"
	"github.com/openconf/schedtrack/pkg/logging"
	"github.com/openconf/schedtrack/pkg/metrics"
	"github.com/openconf/schedtrack/pkg/schedule/events"
	"github.com/openconf/schedtrack/pkg/schedule/pipeline"
)

var (
	fetchURL    string
	fetchDryRun bool
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the schedule, diff it against the stored one, and persist",
		Long: `Download the schedule document, parse it, and reconcile it against the
previously stored schedule. Changed fields are flagged per session and
sessions that vanished are kept as canceled entries.

On success the reconciled schedule replaces the stored one and a
schedule.updated event is published. On failure or cancellation the
stored schedule is left untouched.`,
		RunE: runFetch,
	}

	cmd.Flags().StringVar(&fetchURL, "url", "", "schedule document URL (defaults to schedule_url from config)")
	cmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "diff only, do not persist or publish")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	url := fetchURL
	if url == "" {
		url = cfg.ScheduleURL
	}
	if url == "" {
		return errors.New("no schedule URL: pass --url or set schedule_url in the config")
	}

	sessions, closeStore, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	prefs, redisClient := openPrefStore(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	fetched, err := fetch.NewFetcher(cfg.CacheDir, logger).Fetch(ctx, url)
	if err != nil {
		return err
	}

	m := metrics.New("schedtrack")
	runner := pipeline.NewRunner(sessions, prefs, logger, pipeline.WithMetrics(m))
	outcome, err := runner.Run(ctx, string(fetched.Body), fetched.ETag)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		version := ""
		if outcome != nil {
			version = outcome.Version
		}
		if redisClient != nil && !fetchDryRun {
			publisher := events.NewPublisher(redisClient, logger)
			if pubErr := publisher.PublishParseFailed(ctx, version, err.Error()); pubErr != nil {
				logger.Warn("Could not publish parse failure event", logging.Err(pubErr))
			}
		}
		// The stored schedule survives a bad download; report which
		// release failed when the document said so.
		if version != "" {
			return fmt.Errorf("schedule version %q rejected: %w", version, err)
		}
		return err
	}

	counts := outcome.Counts()

	if !fetchDryRun {
		if err := sessions.ReplaceAll(ctx, outcome.Sessions, outcome.Meta); err != nil {
			return err
		}
		if redisClient != nil {
			publisher := events.NewPublisher(redisClient, logger)
			if err := publisher.PublishScheduleUpdated(ctx, events.ScheduleUpdatedEvent{
				Version:          outcome.Meta.Version,
				ETag:             outcome.Meta.ETag,
				NumDays:          outcome.Meta.NumDays,
				Sessions:         len(outcome.Sessions),
				Changed:          outcome.Changed,
				NewSessions:      counts.New,
				CanceledSessions: counts.Canceled,
				UpdatedSessions:  counts.Updated,
			}); err != nil {
				logger.Warn("Could not publish update event", logging.Err(err))
			}
		}
	}

	if outputFormat(cfg) == config.OutputFormatJSON {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"version":  outcome.Meta.Version,
			"etag":     outcome.Meta.ETag,
			"sessions": len(outcome.Sessions),
			"num_days": outcome.Meta.NumDays,
			"changed":  outcome.Changed,
			"new":      counts.New,
			"canceled": counts.Canceled,
			"updated":  counts.Updated,
			"dry_run":  fetchDryRun,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Schedule %s: %d sessions, %d days\n",
		outcome.Meta.Version, len(outcome.Sessions), outcome.Meta.NumDays)
	if outcome.Changed {
		fmt.Fprintf(out, "Changes: %d new, %d canceled, %d updated\n",
			counts.New, counts.Canceled, counts.Updated)
	} else {
		fmt.Fprintln(out, "No changes since the stored schedule")
	}
	return nil
}
