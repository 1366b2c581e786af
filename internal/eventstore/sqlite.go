package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/retry"
)

// SQLiteJournal implements Store using SQLite.
type SQLiteJournal struct {
	db    *sql.DB
	mu    sync.RWMutex
	retry retry.Policy
}

// JournalOption configures a SQLiteJournal.
type JournalOption func(*SQLiteJournal)

// WithRetryPolicy sets how appends back off while another process holds the
// database lock.
func WithRetryPolicy(p retry.Policy) JournalOption {
	return func(j *SQLiteJournal) {
		if p.Validate() == nil {
			j.retry = p
		}
	}
}

// NewSQLiteJournal opens (creating if needed) a journal database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteJournal(dbPath string, opts ...JournalOption) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.EventStoreError("could not open event store database").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db, retry: retry.DefaultPolicy()}
	for _, opt := range opts {
		opt(j)
	}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.EventStoreError("failed to initialize event store schema").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}

	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ping_id TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_ping_id ON events(ping_id);
	CREATE INDEX IF NOT EXISTS idx_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append adds a new event to the journal.
func (j *SQLiteJournal) Append(ctx context.Context, event Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var metadataJSON []byte
	if md := event.Metadata(); md != nil {
		var err error
		metadataJSON, err = json.Marshal(md)
		if err != nil {
			return errors.EventStoreError("failed to marshal event metadata").WithCause(err).Build()
		}
	}

	ts := event.Timestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	payload := event.Payload()
	if payload == nil {
		payload = []byte("{}")
	}

	err := j.retry.Do(ctx, isBusy, func() error {
		_, err := j.db.ExecContext(ctx,
			"INSERT INTO events (ping_id, run_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?, ?)",
			event.PingID(), event.RunID(), event.Type(), ts.UnixMilli(), payload, metadataJSON,
		)
		return err
	})
	if err != nil {
		return errors.EventStoreError("failed to append event to store").
			WithCause(err).
			WithContext("event", event.Type()).
			WithContext("ping_id", event.PingID()).
			Build()
	}

	return nil
}

// GetByPingID retrieves all events for a specific ping.
func (j *SQLiteJournal) GetByPingID(ctx context.Context, pingID string) ([]Event, error) {
	return j.query(ctx, "WHERE ping_id = ?", pingID)
}

// GetByRunID retrieves all events written by a store instance.
func (j *SQLiteJournal) GetByRunID(ctx context.Context, runID string) ([]Event, error) {
	return j.query(ctx, "WHERE run_id = ?", runID)
}

// GetRange retrieves events within a time range.
func (j *SQLiteJournal) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return j.query(ctx, "WHERE timestamp >= ? AND timestamp <= ?", start.UnixMilli(), end.UnixMilli())
}

func (j *SQLiteJournal) query(ctx context.Context, where string, args ...any) ([]Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, ping_id, run_id, event_type, timestamp, payload, metadata FROM events "+where+" ORDER BY id",
		args...,
	)
	if err != nil {
		return nil, errors.EventStoreError("failed to query events from store").WithCause(err).Build()
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var tsMillis int64
		var metadataJSON []byte

		if err := rows.Scan(&e.EventID, &e.EventPingID, &e.EventRunID, &e.EventType, &tsMillis, &e.EventPayload, &metadataJSON); err != nil {
			return nil, errors.EventStoreError("failed to scan event rows").WithCause(err).Build()
		}

		e.EventTimestamp = time.UnixMilli(tsMillis)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, errors.EventStoreError("failed to unmarshal event metadata").WithCause(err).Build()
			}
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.EventStoreError("failed to iterate event rows").WithCause(err).Build()
	}

	return events, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// isBusy reports a lock held by another connection, which is worth retrying.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !stderrors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
