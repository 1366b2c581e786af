package state

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/eventstore"
	"git.home.luguber.info/inful/pingtriage/internal/foundation"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
	"git.home.luguber.info/inful/pingtriage/internal/metrics"
)

// MigrationResult describes one migration attempt.
type MigrationResult struct {
	Performed       bool      `json:"performed"`
	PingsMigrated   int       `json:"pings_migrated"`
	ThreadsMigrated int       `json:"threads_migrated"`
	CursorsMigrated int       `json:"cursors_migrated"`
	SyncedURLs      int       `json:"synced_urls"`
	Reason          string    `json:"reason,omitempty"`
	StartTime       time.Time `json:"start_time"`
	Duration        string    `json:"duration"`
}

// legacyState is the pre-3.x state.json layout. It had no synced-URL list.
type legacyState struct {
	LastFetch map[string]string  `json:"last_fetch"`
	Pings     map[string]*Ping   `json:"pings"`
	Threads   map[string]*Thread `json:"threads"`
}

// Migrator imports state.json into the document once. The state.json.migrated
// marker makes every later run a no-op, even if a fresh state.json appears.
type Migrator struct {
	store    *JSONStore
	logger   *slog.Logger
	recorder metrics.Recorder
	journal  Journal
	runID    string
}

// NewMigrator creates a migrator for the store's directory.
func NewMigrator(store *JSONStore, logger *slog.Logger, recorder metrics.Recorder) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Migrator{store: store, logger: logger, recorder: recorder}
}

// WithJournal records a migration.completed event on success.
func (m *Migrator) WithJournal(j Journal, runID string) *Migrator {
	m.journal = j
	m.runID = runID
	return m
}

// Migrate copies last_fetch, pings and threads from the legacy file into doc,
// rebuilds the synced-URL set from synced pings, saves, and renames the
// legacy file. A read or parse failure leaves doc untouched. A save failure
// restores doc and keeps the legacy file so the next start retries.
func (m *Migrator) Migrate(ctx context.Context, doc *Document) foundation.Result[MigrationResult, error] {
	start := time.Now()
	result := MigrationResult{StartTime: start}
	finish := func() MigrationResult {
		result.Duration = time.Since(start).String()
		return result
	}

	legacyPath := m.store.LegacyPath()
	if _, err := os.Stat(m.store.MigratedPath()); err == nil {
		result.Reason = "already migrated"
		m.recorder.IncMigration(metrics.MigrationSkipped)
		return foundation.Ok[MigrationResult, error](finish())
	}
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			result.Reason = "no legacy state file"
			m.recorder.IncMigration(metrics.MigrationSkipped)
			return foundation.Ok[MigrationResult, error](finish())
		}
		m.recorder.IncMigration(metrics.MigrationAbandoned)
		return foundation.Err[MigrationResult, error](
			errors.MigrationError("failed to read legacy state file").
				WithCause(err).
				WithContext("path", legacyPath).
				Build(),
		)
	}

	var legacy legacyState
	if err := json.Unmarshal(data, &legacy); err != nil {
		m.recorder.IncMigration(metrics.MigrationAbandoned)
		return foundation.Err[MigrationResult, error](
			errors.MigrationError("legacy state file is malformed").
				WithCause(err).
				WithContext("path", legacyPath).
				Build(),
		)
	}

	previous := doc.State
	previousIndex := doc.syncedIndex

	doc.State.LastFetch = legacy.LastFetch
	doc.State.Pings = legacy.Pings
	doc.State.Threads = legacy.Threads
	doc.State.SyncedURLs = nil
	doc.backfill(time.Now())
	for _, p := range doc.State.Pings {
		if p.Status == StatusSynced {
			doc.addSyncedURL(p.Permalink())
		}
	}

	if err := m.store.Save(doc); err != nil {
		doc.State = previous
		doc.syncedIndex = previousIndex
		m.recorder.IncMigration(metrics.MigrationFailed)
		return foundation.Err[MigrationResult, error](
			errors.MigrationError("failed to save migrated state; legacy file kept for retry").
				WithCause(err).
				WithContext("path", m.store.Path()).
				Build(),
		)
	}

	result.Performed = true
	result.PingsMigrated = len(doc.State.Pings)
	result.ThreadsMigrated = len(doc.State.Threads)
	result.CursorsMigrated = len(doc.State.LastFetch)
	result.SyncedURLs = len(doc.State.SyncedURLs)
	m.recorder.IncMigration(metrics.MigrationPerformed)

	if err := os.Rename(legacyPath, m.store.MigratedPath()); err != nil {
		result.Reason = "migrated, but legacy file could not be renamed: " + err.Error()
		m.logger.Warn("Failed to rename legacy state file after migration",
			logfields.Path(legacyPath), logfields.Error(err))
	} else {
		m.logger.Info("Migrated legacy state file",
			logfields.Path(m.store.MigratedPath()),
			logfields.Count(result.PingsMigrated))
	}

	if m.journal != nil {
		ev, err := eventstore.NewMigrationCompleted(m.runID, eventstore.MigrationPayload{
			Pings:      result.PingsMigrated,
			Threads:    result.ThreadsMigrated,
			Cursors:    result.CursorsMigrated,
			SyncedURLs: result.SyncedURLs,
			Source:     legacyPath,
		})
		if err == nil {
			err = m.journal.Append(ctx, ev)
		}
		if err != nil {
			m.logger.Warn("Failed to journal migration", logfields.Error(err))
		}
	}

	return foundation.Ok[MigrationResult, error](finish())
}
