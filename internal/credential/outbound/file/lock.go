package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
)

var errLockHeld = errors.New("lock file held")

// acquire creates <path>.lock exclusively and writes a fresh owner token
// into it. It retries with Fibonacci backoff until lockTimeout, then fails
// with goerror.ErrLocked. The returned func removes the lock only while it
// still carries our token.
func (f *File) acquire(ctx context.Context) (func(), error) {
	token := f.uuid.Generate()

	b := retry.NewFibonacci(10 * time.Millisecond)
	b = retry.WithCappedDuration(250*time.Millisecond, b)
	b = retry.WithMaxDuration(f.lockTimeout, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := f.tryLock(token)
		if errors.Is(err, errLockHeld) {
			if f.breakStale(ctx) {
				err = f.tryLock(token)
			}
		}
		if errors.Is(err, errLockHeld) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, errLockHeld) {
		return nil, fmt.Errorf("%w: %s held by another process", goerror.ErrLocked, f.lockPath)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	stop := f.keepAlive(token)
	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			f.release(token)
		})
	}, nil
}

// keepAlive refreshes the lock file mtime while we hold it, so a holder
// that outlives lockStaleAfter is never judged stale. The returned func
// stops the refresher and waits for it.
func (f *File) keepAlive(token string) func() {
	if f.lockStaleAfter <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		ticker := time.NewTicker(max(f.lockStaleAfter/3, time.Millisecond))
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				f.touch(token)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (f *File) touch(token string) {
	owner, err := os.ReadFile(f.lockPath)
	if err != nil || !bytes.Equal(owner, []byte(token)) {
		slog.Warn("store lock lost while held", "lock_path", f.lockPath, "error", err)
		return
	}

	now := time.Now()
	if err := os.Chtimes(f.lockPath, now, now); err != nil {
		slog.Warn("failed to refresh store lock", "lock_path", f.lockPath, "error", err)
	}
}

func (f *File) tryLock(token string) error {
	fh, err := os.OpenFile(f.lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if errors.Is(err, fs.ErrExist) {
		return errLockHeld
	}
	if err != nil {
		return err
	}

	if err := writeAndSync(fh, []byte(token)); err != nil {
		_ = fh.Close()
		_ = os.Remove(f.lockPath)
		return err
	}
	return fh.Close()
}

// breakStale removes a lock file older than lockStaleAfter.
func (f *File) breakStale(ctx context.Context) bool {
	if f.lockStaleAfter <= 0 {
		return false
	}

	st, err := os.Stat(f.lockPath)
	if err != nil {
		return false
	}

	age := time.Since(st.ModTime())
	if age < f.lockStaleAfter {
		return false
	}

	slog.WarnContext(ctx, "breaking stale store lock", "lock_path", f.lockPath, "age", age.String())
	return os.Remove(f.lockPath) == nil
}

func (f *File) release(token string) {
	owner, err := os.ReadFile(f.lockPath)
	if err != nil {
		slog.Warn("store lock vanished before release", "lock_path", f.lockPath, "error", err)
		return
	}
	if !bytes.Equal(owner, []byte(token)) {
		slog.Warn("store lock taken over, leaving it in place", "lock_path", f.lockPath)
		return
	}
	if err := os.Remove(f.lockPath); err != nil {
		slog.Warn("failed to remove store lock", "lock_path", f.lockPath, "error", err)
	}
}
