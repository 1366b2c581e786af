package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
)

// SessionLayout is the directory name format, YYYY-MM-DD_HHMM.
const SessionLayout = "2006-01-02_1504"

// SessionManager hands out the session directory for one run.
type SessionManager struct {
	baseDir string
	now     func() time.Time
	logger  *slog.Logger

	mu    sync.Mutex
	stamp string
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithClock overrides time.Now. Only the first call matters.
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used when a directory is created.
func WithLogger(l *slog.Logger) Option {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewSessionManager creates a manager rooted at baseDir. Nothing touches the
// filesystem until SessionDir is called.
func NewSessionManager(baseDir string, opts ...Option) *SessionManager {
	if baseDir == "" {
		baseDir = "."
	}
	m := &SessionManager{
		baseDir: baseDir,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stamp returns the session name, fixing it on first use.
func (m *SessionManager) Stamp() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stampLocked()
}

func (m *SessionManager) stampLocked() string {
	if m.stamp == "" {
		m.stamp = m.now().Format(SessionLayout)
	}
	return m.stamp
}

// SessionDir returns the session directory, creating it if needed. It is
// safe to call repeatedly; a directory removed in between is recreated.
func (m *SessionManager) SessionDir() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Join(m.baseDir, m.stampLocked())
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.FileSystemError("failed to create session directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	m.logger.Info("Created session directory", logfields.Path(dir))
	return dir, nil
}

// SessionFile returns the path of name inside the session directory. The
// file itself is not created.
func (m *SessionManager) SessionFile(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", errors.ValidationError("session file name must be a plain file name").
			WithContext("name", name).
			Build()
	}
	dir, err := m.SessionDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
