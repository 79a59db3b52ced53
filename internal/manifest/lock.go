package manifest

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// LockFileName is the lock file kept in the output directory.
const LockFileName = ".frogsort.lock"

// ErrLocked is returned when another process holds the output directory.
var ErrLocked = errors.New("manifest: output directory is in use by another run")

// Lock guards an output directory against concurrent runs.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes an exclusive, non-blocking lock on outputDir.
func AcquireLock(outputDir string) (*Lock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "manifest: create %s", outputDir)
	}

	fl := flock.New(filepath.Join(outputDir, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrap(err, "manifest: acquire lock")
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks. The lock file stays in place so every run locks the same
// inode.
func (l *Lock) Release() error {
	return eris.Wrap(l.fl.Unlock(), "manifest: release lock")
}
