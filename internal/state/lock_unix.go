//go:build unix

package state

import (
	stderrors "errors"
	"os"

	"golang.org/x/sys/unix"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

// dirLock is an exclusive advisory flock held for the store lifetime.
type dirLock struct {
	file *os.File
}

func acquireDirLock(path string) (*dirLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.FileSystemError("failed to open lock file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if stderrors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.StateError("state directory is locked by another process").
				WithContext("path", path).
				UserAction().
				Build()
		}
		return nil, errors.FileSystemError("failed to lock state directory").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return &dirLock{file: file}, nil
}

func (l *dirLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
