package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/audiosync/internal/errors"
)

const lockFileSuffix = ".lock"

// lockPayload is the JSON body of a session lock file: the owning process
// id and a monotonic start timestamp.
type lockPayload struct {
	PID       int   `json:"pid"`
	StartedAt int64 `json:"started_at"` // Unix seconds
}

func isLockFile(name string) bool {
	return strings.HasSuffix(name, lockFileSuffix)
}

func (c *Cache) lockPath() string {
	return filepath.Join(c.root, c.sessionID+lockFileSuffix)
}

func (c *Cache) writeLock() error {
	payload := lockPayload{PID: os.Getpid(), StartedAt: time.Now().Unix()}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Build()
	}

	path := c.lockPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}

// cleanStaleLocks deletes lock files older than 24h, as observed by the
// lock's started_at field (falling back to file mtime if unparseable). It
// never touches the lock being created for sessionID.
func cleanStaleLocks(root, sessionID string, logger *slog.Logger) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("root", root).
			Build()
	}

	now := time.Now()
	for _, entry := range entries {
		name := entry.Name()
		if !isLockFile(name) || strings.TrimSuffix(name, lockFileSuffix) == sessionID {
			continue
		}

		path := filepath.Join(root, name)
		age, ok := lockAge(path, now)
		if !ok {
			info, statErr := entry.Info()
			if statErr != nil {
				continue
			}
			age = now.Sub(info.ModTime())
		}

		if age > lockStaleAge {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to remove stale session lock", "path", path, "error", err)
			}
		}
	}
	return nil
}

func lockAge(path string, now time.Time) (time.Duration, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var payload lockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, false
	}
	return now.Sub(time.Unix(payload.StartedAt, 0)), true
}

// activeOtherSessionIDs returns the session id prefixes of every non-stale
// lock file other than this cache's own.
func (c *Cache) activeOtherSessionIDs(entries []os.DirEntry) map[string]bool {
	now := time.Now()
	active := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if !isLockFile(name) {
			continue
		}
		sid := strings.TrimSuffix(name, lockFileSuffix)
		if sid == c.sessionID {
			continue
		}
		path := filepath.Join(c.root, name)
		if age, ok := lockAge(path, now); ok && age <= lockStaleAge {
			active[sid] = true
		}
	}
	return active
}
