package state

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
)

// File layout under the base directory.
const (
	DirName        = ".pings-triage"
	DocumentFile   = "config.json"
	LegacyFile     = "state.json"
	MigratedSuffix = ".migrated"
	LockFile       = ".lock"
	tempSuffix     = ".tmp"
	corruptInfix   = ".corrupt-"
)

// JSONStore loads and saves the state document as a single JSON file.
type JSONStore struct {
	dir       string
	logger    *slog.Logger
	now       func() time.Time
	mu        sync.Mutex
	lastSaved *time.Time
}

// JSONStoreOption configures a JSONStore.
type JSONStoreOption func(*JSONStore)

// WithStoreLogger sets the logger used for load/save warnings.
func WithStoreLogger(l *slog.Logger) JSONStoreOption {
	return func(js *JSONStore) {
		if l != nil {
			js.logger = l
		}
	}
}

// WithStoreClock overrides time.Now.
func WithStoreClock(now func() time.Time) JSONStoreOption {
	return func(js *JSONStore) {
		if now != nil {
			js.now = now
		}
	}
}

// NewJSONStore creates a store rooted at <baseDir>/.pings-triage. Nothing is
// created on disk until the first Save.
func NewJSONStore(baseDir string, opts ...JSONStoreOption) *JSONStore {
	js := &JSONStore{
		dir:    filepath.Join(baseDir, DirName),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(js)
	}
	return js
}

// Dir returns the .pings-triage directory.
func (js *JSONStore) Dir() string { return js.dir }

// Path returns the document path.
func (js *JSONStore) Path() string { return filepath.Join(js.dir, DocumentFile) }

// LegacyPath returns the pre-3.x state file path.
func (js *JSONStore) LegacyPath() string { return filepath.Join(js.dir, LegacyFile) }

// MigratedPath returns the marker written once the legacy file is imported.
func (js *JSONStore) MigratedPath() string { return js.LegacyPath() + MigratedSuffix }

// Exists reports whether the document file is present.
func (js *JSONStore) Exists() bool {
	info, err := os.Stat(js.Path())
	return err == nil && !info.IsDir()
}

// LastSaved returns the time of the last successful save.
func (js *JSONStore) LastSaved() (time.Time, bool) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.lastSaved == nil {
		return time.Time{}, false
	}
	return *js.lastSaved, true
}

// Load reads the document and never fails. A missing file yields a default
// document. A file that cannot be read is left in place and a default
// document is returned. A file that does not parse is moved aside to
// config.json.corrupt-<ts> before falling back to defaults.
func (js *JSONStore) Load() (*Document, error) {
	path := js.Path()
	doc, err := LoadDocument(path, js.now())
	if err == nil {
		return doc, nil
	}
	if !errors.HasCategory(err, errors.CategoryState) {
		js.logger.Warn("State document is unreadable; starting from defaults",
			logfields.Path(path), logfields.Error(err))
		return NewDocument(js.now()), nil
	}

	quarantine := path + corruptInfix + js.now().UTC().Format("20060102T150405Z")
	if rerr := os.Rename(path, quarantine); rerr != nil {
		js.logger.Warn("Failed to quarantine corrupt state document",
			logfields.Path(path), logfields.Error(rerr))
	} else {
		js.logger.Warn("State document was corrupt; moved aside and starting from defaults",
			logfields.Path(quarantine), logfields.Error(err))
	}
	return NewDocument(js.now()), nil
}

// Read loads the document without touching the file system: unreadable and
// unparsable files are returned as errors and nothing is renamed.
func (js *JSONStore) Read() (*Document, error) {
	return LoadDocument(js.Path(), js.now())
}

// LoadDocument reads a document from path. A missing file yields a default
// document; unreadable files return a filesystem error and unparsable files
// a state error.
func LoadDocument(path string, now time.Time) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return NewDocument(now), nil
		}
		return nil, errors.FileSystemError("failed to read state document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	doc, err := DecodeDocument(data, now)
	if err != nil {
		return nil, errors.StateError("failed to decode state document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return doc, nil
}

// Save writes the whole document to config.json.tmp, syncs it and renames it
// over config.json. Readers never observe a partial file. The temp file is
// removed when any step fails.
func (js *JSONStore) Save(doc *Document) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := doc.Encode()
	if err != nil {
		return errors.InternalError("failed to marshal state document").WithCause(err).Build()
	}

	if err := os.MkdirAll(js.dir, 0o750); err != nil {
		return errors.FileSystemError("failed to create state directory").
			WithCause(err).
			WithContext("path", js.dir).
			Build()
	}

	statePath := js.Path()
	tempPath := statePath + tempSuffix
	if err := writeFileSynced(tempPath, data); err != nil {
		_ = os.Remove(tempPath)
		return errors.FileSystemError("failed to write temporary state file").
			WithCause(err).
			WithContext("path", tempPath).
			Build()
	}

	if err := os.Rename(tempPath, statePath); err != nil {
		_ = os.Remove(tempPath)
		return errors.FileSystemError("failed to replace state file").
			WithCause(err).
			WithContext("path", statePath).
			Build()
	}

	now := js.now()
	js.lastSaved = &now
	return nil
}

// writeFileSynced writes data and fsyncs before closing. The handle is
// closed on every path.
func writeFileSynced(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
