package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/eventstore"
	"git.home.luguber.info/inful/pingtriage/internal/foundation"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
	"git.home.luguber.info/inful/pingtriage/internal/metrics"
)

// Repository runs lifecycle operations over an owned Document. Every
// mutation persists the whole document before returning.
type Repository struct {
	mu        sync.RWMutex
	doc       *Document
	persister Persister
	journal   Journal
	recorder  metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
	runID     string
	saveErr   error
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(l *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) RepositoryOption {
	return func(r *Repository) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithJournal enables lifecycle event journaling.
func WithJournal(j Journal) RepositoryOption {
	return func(r *Repository) { r.journal = j }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunID stamps journal events with id.
func WithRunID(id string) RepositoryOption {
	return func(r *Repository) { r.runID = id }
}

// NewRepository wraps doc. A nil persister keeps everything in memory. A
// supplied document is backfilled first, so a hand-built or zero Document is
// usable.
func NewRepository(doc *Document, persister Persister, opts ...RepositoryOption) *Repository {
	r := &Repository{
		persister: persister,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if doc == nil {
		doc = NewDocument(r.now())
	} else {
		doc.backfill(r.now())
	}
	r.doc = doc
	r.refreshGaugesLocked()
	return r
}

// NewMemoryRepository returns a repository over a fresh default document
// that never touches the filesystem.
func NewMemoryRepository(opts ...RepositoryOption) *Repository {
	return NewRepository(nil, nil, opts...)
}

// Save forces a write of the current document and returns the error, if any.
func (r *Repository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistLocked()
	return r.saveErr
}

// LastSaveError returns the error of the most recent save, or nil.
func (r *Repository) LastSaveError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saveErr
}

// Snapshot returns the document encoded as JSON.
func (r *Repository) Snapshot() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.Encode()
}

// replace swaps in a freshly loaded document.
func (r *Repository) replace(doc *Document) {
	doc.backfill(r.now())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = doc
	r.refreshGaugesLocked()
}

// persistLocked writes the document. A failure is logged and counted but
// never rolls back the in-memory change; the next successful save carries it.
func (r *Repository) persistLocked() {
	defer r.refreshGaugesLocked()
	if r.persister == nil {
		return
	}
	start := time.Now()
	err := r.persister.Save(r.doc)
	r.recorder.ObserveSave(time.Since(start), err == nil)
	r.saveErr = err
	if err != nil {
		r.logger.Warn("Failed to save state document; changes kept in memory",
			logfields.Error(err))
	}
}

func (r *Repository) refreshGaugesLocked() {
	s := r.statsLocked()
	r.recorder.SetPingsByStatus(string(StatusNew), s.NewPings)
	r.recorder.SetPingsByStatus(string(StatusAnalyzed), s.AnalyzedPings)
	r.recorder.SetPingsByStatus(string(StatusSynced), s.SyncedPings)
	r.recorder.SetThreads(s.TotalThreads)
}

func (r *Repository) timestamp() string {
	return formatTimestamp(r.now())
}

// eventBuilder defers construction of a journal event until after the save.
type eventBuilder func() (*eventstore.BaseEvent, error)

func (r *Repository) emit(ctx context.Context, build eventBuilder) {
	if r.journal == nil || build == nil {
		return
	}
	ev, err := build()
	if err == nil {
		err = r.journal.Append(ctx, ev)
	}
	if err != nil {
		r.logger.Warn("Failed to journal state event", logfields.RunID(r.runID), logfields.Error(err))
	}
}

// updatePing applies mutate to an existing ping, persists, then journals the
// returned event. Unknown ids are reported and nothing is written.
func (r *Repository) updatePing(
	ctx context.Context,
	id string,
	mutate func(p *Ping, now string) (eventBuilder, error),
) foundation.Result[struct{}, error] {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.doc.State.Pings[id]
	if !ok {
		return foundation.Err[struct{}, error](pingNotFound(id))
	}

	event, err := mutate(p, r.timestamp())
	if err != nil {
		return foundation.Err[struct{}, error](err)
	}

	r.persistLocked()
	r.emit(ctx, event)
	return foundation.Ok[struct{}, error](struct{}{})
}

func pingNotFound(id string) error {
	return errors.NotFoundError("ping").WithContext("ping_id", id).Build()
}

// IsNotFound reports whether err is an unknown-id error from the repository.
// Callers that prefer to ignore unknown ids can test for it explicitly.
func IsNotFound(err error) bool {
	return errors.HasCategory(err, errors.CategoryNotFound)
}
