package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	engineLockFile       = "engine.lock"
	engineLockRetryDelay = 10 * time.Millisecond
	engineLockWaitLimit  = 5 * time.Second
)

// lockMutation serializes repository mutations. Within a process the mutex
// is enough; the lockfile extends exclusion to other processes. The returned
// release function must be called exactly once.
func (r *Repo) lockMutation() (func(), error) {
	r.mu.Lock()

	lockPath := filepath.Join(r.GritDir, engineLockFile)
	deadline := time.Now().Add(engineLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			break
		}
		if !os.IsExist(err) {
			r.mu.Unlock()
			return nil, fmt.Errorf("acquire repository lock: %w", err)
		}
		if time.Now().After(deadline) {
			r.mu.Unlock()
			return nil, fmt.Errorf("acquire repository lock: timeout waiting for %q", lockPath)
		}
		time.Sleep(engineLockRetryDelay)
	}

	return func() {
		_ = os.Remove(lockPath)
		r.mu.Unlock()
	}, nil
}
