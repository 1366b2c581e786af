package state

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
	"git.home.luguber.info/inful/pingtriage/internal/metrics"
)

// Options configures Open.
type Options struct {
	// Lock takes an exclusive advisory lock on <dir>/.lock until Close.
	Lock     bool
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Journal receives lifecycle events; nil disables journaling.
	Journal Journal
	Clock   func() time.Time
	// RunID stamps journal events; a random UUID is used when empty.
	RunID string
}

// Store is a Repository persisted to <base>/.pings-triage/config.json.
type Store struct {
	*Repository

	json      *JSONStore
	lock      *dirLock
	migration MigrationResult
	runID     string
	logger    *slog.Logger
}

// Open prepares the state for baseDir: it takes the optional lock, loads the
// document (defaults when absent), runs the one-time legacy migration and
// wires the repository. Migration problems are logged, never returned.
func Open(ctx context.Context, baseDir string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	js := NewJSONStore(baseDir, WithStoreLogger(logger), WithStoreClock(clock))

	var lock *dirLock
	if opts.Lock {
		if err := os.MkdirAll(js.Dir(), 0o750); err != nil {
			return nil, errors.FileSystemError("failed to create state directory").
				WithCause(err).
				WithContext("path", js.Dir()).
				Build()
		}
		l, err := acquireDirLock(filepath.Join(js.Dir(), LockFile))
		if err != nil {
			return nil, err
		}
		lock = l
	}

	doc, err := js.Load()
	if err != nil {
		_ = lock.release()
		return nil, err
	}

	migrator := NewMigrator(js, logger, recorder)
	if opts.Journal != nil {
		migrator.WithJournal(opts.Journal, runID)
	}
	res := migrator.Migrate(ctx, doc)
	var migration MigrationResult
	if res.IsErr() {
		logger.Warn("Legacy migration abandoned", logfields.Error(res.UnwrapErr()))
		migration.Reason = res.UnwrapErr().Error()
	} else {
		migration = res.Unwrap()
	}

	repoOpts := []RepositoryOption{
		WithLogger(logger),
		WithRecorder(recorder),
		WithClock(clock),
		WithRunID(runID),
	}
	if opts.Journal != nil {
		repoOpts = append(repoOpts, WithJournal(opts.Journal))
	}

	s := &Store{
		Repository: NewRepository(doc, js, repoOpts...),
		json:       js,
		lock:       lock,
		migration:  migration,
		runID:      runID,
		logger:     logger,
	}
	logger.Debug("State store opened", logfields.Path(js.Path()), logfields.RunID(runID))
	return s, nil
}

// Close releases the advisory lock, if held. The document is already on disk
// after every mutation, so there is nothing to flush.
func (s *Store) Close() error {
	return s.lock.release()
}

// Migration reports what the legacy migration did during Open.
func (s *Store) Migration() MigrationResult { return s.migration }

// RunID identifies this store instance in the journal.
func (s *Store) RunID() string { return s.runID }

// Dir returns the .pings-triage directory.
func (s *Store) Dir() string { return s.json.Dir() }

// Path returns the document path.
func (s *Store) Path() string { return s.json.Path() }

// Exists reports whether the document file is on disk.
func (s *Store) Exists() bool { return s.json.Exists() }

// IsValid reports whether the document exists, names a Linear team and
// enables at least one platform.
func (s *Store) IsValid() bool {
	return s.Exists() && s.SettingsValid()
}

// UserContext formats the user block, or explains that nothing is configured
// yet when the document was never written.
func (s *Store) UserContext() string {
	if !s.Exists() {
		return "No user context configured."
	}
	return s.Repository.UserContext()
}

// Reload replaces the in-memory document with the file on disk. It is used
// when another process wrote the document. A file that cannot be read or
// parsed is reported and the current document is kept; the file itself is
// left alone for its writer.
func (s *Store) Reload() error {
	doc, err := s.json.Read()
	if err != nil {
		return err
	}
	s.replace(doc)
	s.logger.Debug("State document reloaded", logfields.Path(s.json.Path()))
	return nil
}
