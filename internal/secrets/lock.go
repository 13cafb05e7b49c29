package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
)

// LockTimeout bounds how long Lock waits for a competing process
var LockTimeout = 10 * time.Second

var errLockBusy = errors.New("lock held by another process")

// Lock takes an exclusive advisory lock on path, retrying with exponential
// backoff until LockTimeout elapses. The returned func releases it.
func Lock(ctx context.Context, path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = LockTimeout

	err := backoff.Retry(func() error {
		locked, err := fl.TryLock()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !locked {
			return errLockBusy
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}

	return func() { _ = fl.Unlock() }, nil
}
