//go:build !unix

package state

// dirLock is a no-op where flock is unavailable.
type dirLock struct{}

func acquireDirLock(string) (*dirLock, error) { return &dirLock{}, nil }

func (*dirLock) release() error { return nil }
