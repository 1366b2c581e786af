// Package watcher notices when another process rewrites the state document.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
)

// DefaultDebounce coalesces the write/rename bursts of one save.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called once per debounced burst of changes.
type ChangeFunc func(ctx context.Context) error

// DocumentWatcher watches a single file through its parent directory, which
// survives the file being replaced by rename.
type DocumentWatcher struct {
	path     string
	onChange ChangeFunc
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	trigger chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// Option configures a DocumentWatcher.
type Option func(*DocumentWatcher)

// WithDebounce sets the quiet period before onChange runs.
func WithDebounce(d time.Duration) Option {
	return func(w *DocumentWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *DocumentWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, onChange ChangeFunc, opts ...Option) (*DocumentWatcher, error) {
	if onChange == nil {
		return nil, errors.ValidationError("watcher requires a change callback").Build()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve watched path").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.RuntimeError("failed to create file watcher").WithCause(err).Build()
	}
	w := &DocumentWatcher{
		path:     abs,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		watcher:  fw,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *DocumentWatcher) Path() string { return w.path }

// Start watches the parent directory and runs until ctx is done or Stop is
// called. The directory must exist.
func (w *DocumentWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.RuntimeError("watcher already started").Build()
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return errors.FileSystemError("failed to watch state directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	w.started = true
	w.logger.Info("Watching state document", logfields.Path(w.path))

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop ends both loops and closes the underlying watcher. It waits for an
// in-flight callback to return.
func (w *DocumentWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stop)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return errors.RuntimeError("failed to close file watcher").WithCause(err).Build()
	}
	return nil
}

func (w *DocumentWatcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				w.logger.Debug("State document change detected",
					logfields.Path(event.Name), logfields.Event(event.Op.String()))
				w.notify()
			case event.Has(fsnotify.Remove):
				w.logger.Warn("State document removed", logfields.Path(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("State watcher error", logfields.Error(err))
		}
	}
}

func (w *DocumentWatcher) notify() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// debounceLoop runs onChange after the document has been quiet for the
// debounce period. Callbacks run on this goroutine, one at a time.
func (w *DocumentWatcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.trigger:
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("State document reload failed", logfields.Path(w.path), logfields.Error(err))
			}
		}
	}
}
