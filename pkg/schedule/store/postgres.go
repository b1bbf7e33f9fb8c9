package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openconf/schedtrack/pkg/logging"
	"github.com/openconf/schedtrack/pkg/schedule"
)

// PostgresStore is a SessionStore backed by PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore creates a store on top of an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger logging.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With(logging.F("component", "session_store")),
	}
}

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
    id                TEXT PRIMARY KEY,
    title             TEXT NOT NULL DEFAULT '',
    subtitle          TEXT NOT NULL DEFAULT '',
    slug              TEXT NOT NULL DEFAULT '',
    track             TEXT NOT NULL DEFAULT '',
    session_type      TEXT NOT NULL DEFAULT '',
    language          TEXT NOT NULL DEFAULT '',
    abstract          TEXT NOT NULL DEFAULT '',
    description       TEXT NOT NULL DEFAULT '',
    speakers          TEXT NOT NULL DEFAULT '',
    links             TEXT NOT NULL DEFAULT '',
    start_time        INTEGER NOT NULL DEFAULT 0,
    rel_start_time    INTEGER NOT NULL DEFAULT 0,
    duration          INTEGER NOT NULL DEFAULT 0,
    date_utc          TIMESTAMPTZ,
    day               INTEGER NOT NULL DEFAULT 0,
    date              TEXT NOT NULL DEFAULT '',
    room              TEXT NOT NULL DEFAULT '',
    room_index        INTEGER NOT NULL DEFAULT 0,
    recording_license TEXT NOT NULL DEFAULT '',
    recording_optout  BOOLEAN NOT NULL DEFAULT FALSE,
    flag_new              BOOLEAN NOT NULL DEFAULT FALSE,
    flag_canceled         BOOLEAN NOT NULL DEFAULT FALSE,
    flag_title            BOOLEAN NOT NULL DEFAULT FALSE,
    flag_subtitle         BOOLEAN NOT NULL DEFAULT FALSE,
    flag_speakers         BOOLEAN NOT NULL DEFAULT FALSE,
    flag_language         BOOLEAN NOT NULL DEFAULT FALSE,
    flag_room             BOOLEAN NOT NULL DEFAULT FALSE,
    flag_track            BOOLEAN NOT NULL DEFAULT FALSE,
    flag_day              BOOLEAN NOT NULL DEFAULT FALSE,
    flag_time             BOOLEAN NOT NULL DEFAULT FALSE,
    flag_duration         BOOLEAN NOT NULL DEFAULT FALSE,
    flag_recording_optout BOOLEAN NOT NULL DEFAULT FALSE,
    position          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_day ON sessions (day);

CREATE TABLE IF NOT EXISTS schedule_meta (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    title      TEXT NOT NULL DEFAULT '',
    subtitle   TEXT NOT NULL DEFAULT '',
    version    TEXT NOT NULL DEFAULT '',
    num_days   INTEGER NOT NULL DEFAULT 0,
    day_change INTEGER NOT NULL DEFAULT 0,
    etag       TEXT NOT NULL DEFAULT ''
);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const sessionColumns = `
    id, title, subtitle, slug, track, session_type, language, abstract,
    description, speakers, links, start_time, rel_start_time, duration,
    date_utc, day, date, room, room_index, recording_license,
    recording_optout, flag_new, flag_canceled, flag_title, flag_subtitle,
    flag_speakers, flag_language, flag_room, flag_track, flag_day,
    flag_time, flag_duration, flag_recording_optout`

func (s *PostgresStore) LoadAll(ctx context.Context) ([]*schedule.Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *PostgresStore) LoadDay(ctx context.Context, day int) ([]*schedule.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE day = $1 ORDER BY position`, day)
	if err != nil {
		return nil, fmt.Errorf("loading sessions for day %d: %w", day, err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]*schedule.Session, error) {
	var sessions []*schedule.Session
	for rows.Next() {
		var sess schedule.Session
		var dateUTC *time.Time
		if err := rows.Scan(
			&sess.ID, &sess.Title, &sess.Subtitle, &sess.Slug, &sess.Track,
			&sess.Type, &sess.Language, &sess.Abstract, &sess.Description,
			&sess.Speakers, &sess.Links, &sess.StartTime, &sess.RelStartTime,
			&sess.Duration, &dateUTC, &sess.Day, &sess.Date, &sess.Room,
			&sess.RoomIndex, &sess.RecordingLicense, &sess.RecordingOptOut,
			&sess.Changes.New, &sess.Changes.Canceled, &sess.Changes.Title,
			&sess.Changes.Subtitle, &sess.Changes.Speakers, &sess.Changes.Language,
			&sess.Changes.Room, &sess.Changes.Track, &sess.Changes.Day,
			&sess.Changes.Time, &sess.Changes.Duration, &sess.Changes.RecordingOptOut,
		); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if dateUTC != nil {
			sess.DateUTC = dateUTC.UTC()
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	return sessions, nil
}

// ReplaceAll swaps the stored schedule for the given one in a single
// transaction, so readers never observe a half-written schedule.
func (s *PostgresStore) ReplaceAll(ctx context.Context, sessions []*schedule.Session, meta schedule.Meta) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}

	const insert = `INSERT INTO sessions (` + sessionColumns + `, position) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
        $29, $30, $31, $32, $33, $34)`

	for i, sess := range sessions {
		var dateUTC *time.Time
		if !sess.DateUTC.IsZero() {
			t := sess.DateUTC
			dateUTC = &t
		}
		if _, err := tx.Exec(ctx, insert,
			sess.ID, sess.Title, sess.Subtitle, sess.Slug, sess.Track,
			sess.Type, sess.Language, sess.Abstract, sess.Description,
			sess.Speakers, sess.Links, sess.StartTime, sess.RelStartTime,
			sess.Duration, dateUTC, sess.Day, sess.Date, sess.Room,
			sess.RoomIndex, sess.RecordingLicense, sess.RecordingOptOut,
			sess.Changes.New, sess.Changes.Canceled, sess.Changes.Title,
			sess.Changes.Subtitle, sess.Changes.Speakers, sess.Changes.Language,
			sess.Changes.Room, sess.Changes.Track, sess.Changes.Day,
			sess.Changes.Time, sess.Changes.Duration, sess.Changes.RecordingOptOut,
			i,
		); err != nil {
			return fmt.Errorf("inserting session %s: %w", sess.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO schedule_meta (id, title, subtitle, version, num_days, day_change, etag)
        VALUES (1, $1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            title = EXCLUDED.title, subtitle = EXCLUDED.subtitle,
            version = EXCLUDED.version, num_days = EXCLUDED.num_days,
            day_change = EXCLUDED.day_change, etag = EXCLUDED.etag`,
		meta.Title, meta.Subtitle, meta.Version, meta.NumDays, meta.DayChange, meta.ETag,
	); err != nil {
		return fmt.Errorf("storing metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing schedule: %w", err)
	}

	s.logger.Debug("Stored schedule",
		logging.F("sessions", len(sessions)),
		logging.F("version", meta.Version))
	return nil
}

func (s *PostgresStore) Meta(ctx context.Context) (schedule.Meta, error) {
	var meta schedule.Meta
	err := s.pool.QueryRow(ctx, `
        SELECT title, subtitle, version, num_days, day_change, etag
        FROM schedule_meta WHERE id = 1`).Scan(
		&meta.Title, &meta.Subtitle, &meta.Version, &meta.NumDays,
		&meta.DayChange, &meta.ETag)
	if err == pgx.ErrNoRows {
		return schedule.Meta{}, nil
	}
	if err != nil {
		return schedule.Meta{}, fmt.Errorf("loading metadata: %w", err)
	}
	return meta, nil
}
