// Package cmd provides the CLI commands for the schedtrack tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/openconf/schedtrack/config"
	"github.com/openconf/schedtrack/pkg/logging"
	"github.com/openconf/schedtrack/pkg/schedule"
	"github.com/openconf/schedtrack/pkg/schedule/store"
)

// newLogger builds the CLI logger from the loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	return logging.New(&logging.Config{Level: level})
}

// openSessionStore returns the configured session store. Without a
// database configuration it falls back to an empty in-memory store, so
// read-only commands still work in a fresh environment.
func openSessionStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.SessionStore, func(), error) {
	if !cfg.Database.IsConfigured() {
		logger.Debug("No database configured, using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	pg := store.NewPostgresStore(pool, logger)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

// openPrefStore returns the Redis-backed preference store, or an
// in-memory one when Redis is unreachable.
func openPrefStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.PrefStore, *redis.Client) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Debug("Redis unreachable, preferences kept in memory", logging.Err(err))
		client.Close()
		return store.NewMemoryPrefs(), nil
	}
	return store.NewRedisPrefs(client), client
}

// sessionView is the wire shape for session output.
type sessionView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Day      int      `json:"day"`
	Date     string   `json:"date,omitempty"`
	Room     string   `json:"room"`
	Start    string   `json:"start"`
	Duration int      `json:"duration"`
	Track    string   `json:"track,omitempty"`
	Speakers string   `json:"speakers,omitempty"`
	Changes  []string `json:"changes,omitempty"`
}

func viewOf(s *schedule.Session) sessionView {
	return sessionView{
		ID:       s.ID,
		Title:    s.Title,
		Day:      s.Day,
		Date:     s.Date,
		Room:     s.Room,
		Start:    fmt.Sprintf("%02d:%02d", s.StartTime/60, s.StartTime%60),
		Duration: s.Duration,
		Track:    s.Track,
		Speakers: s.Speakers,
		Changes:  changeLabels(s.Changes),
	}
}

func changeLabels(f schedule.ChangeFlags) []string {
	var labels []string
	add := func(set bool, label string) {
		if set {
			labels = append(labels, label)
		}
	}
	add(f.New, "new")
	add(f.Canceled, "canceled")
	add(f.Title, "title")
	add(f.Subtitle, "subtitle")
	add(f.Speakers, "speakers")
	add(f.Language, "language")
	add(f.Room, "room")
	add(f.Track, "track")
	add(f.Day, "day")
	add(f.Time, "time")
	add(f.Duration, "duration")
	add(f.RecordingOptOut, "recording-optout")
	return labels
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputFormat(cfg *config.Config) config.OutputFormat {
	if flagOutput != "" {
		return config.OutputFormat(flagOutput)
	}
	return cfg.OutputFormat
}

// loadConfig loads the CLI configuration and applies root flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDebug {
		cfg.Debug = true
	}
	return cfg, nil
}
