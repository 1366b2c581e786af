package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

func startWatcher(t *testing.T, path string, fn ChangeFunc) *DocumentWatcher {
	t.Helper()
	w, err := New(path, fn, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	var calls atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte{byte('0' + i)}, 0o600))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherSeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	changed := make(chan struct{}, 4)
	startWatcher(t, path, func(context.Context) error {
		changed <- struct{}{}
		return nil
	})

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"version":"3.2.1"}`), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("replace by rename was not reported")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, filepath.Join(dir, "config.json"), func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{}"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatcherValidation(t *testing.T) {
	_, err := New("config.json", nil)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	w, err := New(filepath.Join(t.TempDir(), "missing", "config.json"), func(context.Context) error { return nil })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	err = w.Start(t.Context())
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w := startWatcher(t, filepath.Join(t.TempDir(), "config.json"), func(context.Context) error { return nil })
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
