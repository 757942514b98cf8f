// Package cache implements the Session Cache (C2): a content-addressed,
// session-scoped, LRU-evicted on-disk cache for decoded analysis and
// full-resolution audio artifacts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/audiosync/internal/errors"
)

// ArtifactKind distinguishes the two artifact sizes the eviction reservation
// accounts for.
type ArtifactKind int

const (
	ArtifactAnalysis ArtifactKind = iota
	ArtifactFullResolution
)

const (
	analysisReservationBytes     = 50 * 1024 * 1024
	fullResolutionReservationBytes = 200 * 1024 * 1024
	defaultCeilingBytes          = 2 * 1024 * 1024 * 1024
	lockStaleAge                 = 24 * time.Hour
)

// Cache owns one session's namespace within an on-disk cache root shared by
// concurrent processes.
type Cache struct {
	root         string
	sessionID    string
	ceilingBytes int64
	logger       *slog.Logger
	metrics      *Metrics

	mu sync.Mutex
}

// Options configures a new Cache.
type Options struct {
	Root         string
	CeilingBytes int64 // 0 uses the default 2 GiB
	Logger       *slog.Logger
	Registry     *prometheus.Registry // nil disables metrics
}

// Open creates (if needed) the cache root, cleans stale session locks,
// writes this session's lock file, and returns a ready Cache. Callers must
// call Close when the session ends.
func Open(opts Options) (*Cache, error) {
	if opts.Root == "" {
		return nil, errors.Newf("cache root must not be empty").
			Component("cache").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("root", opts.Root).
			Build()
	}

	ceiling := opts.CeilingBytes
	if ceiling <= 0 {
		ceiling = defaultCeilingBytes
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var metrics *Metrics
	if opts.Registry != nil {
		m, err := NewMetrics(opts.Registry)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	sessionID := newSessionID()
	c := &Cache{
		root:         opts.Root,
		sessionID:    sessionID,
		ceilingBytes: ceiling,
		logger:       logger,
		metrics:      metrics,
	}

	if err := cleanStaleLocks(opts.Root, sessionID, logger); err != nil {
		return nil, err
	}
	if err := c.writeLock(); err != nil {
		return nil, err
	}

	c.refreshSizeMetric()
	return c, nil
}

// SessionID returns the 8 hex-char id identifying this cache's namespace.
func (c *Cache) SessionID() string {
	return c.sessionID
}

func newSessionID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

// Key derives the content-address key for a source file: the session
// prefix followed by 16 hex chars of sha256(absolutePath || mtime || size).
func (c *Cache) Key(absolutePath string, mtime time.Time, size int64) string {
	h := sha256.New()
	h.Write([]byte(absolutePath))
	fmt.Fprintf(h, "%d", mtime.UnixNano())
	fmt.Fprintf(h, "%d", size)
	digest := hex.EncodeToString(h.Sum(nil))[:16]
	return c.sessionID + digest
}

func (c *Cache) artifactPath(key string) string {
	return filepath.Join(c.root, key+".artifact")
}

// Lookup returns the on-disk path for key if an artifact already exists.
func (c *Cache) Lookup(key string) (string, bool) {
	path := c.artifactPath(key)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, true
	}
	return "", false
}

// Put reserves space for an artifact of the given kind, evicting older
// artifacts if necessary, then writes data under key and returns its path.
func (c *Cache) Put(key string, kind ArtifactKind, data []byte) (string, error) {
	reserve := int64(len(data))
	switch kind {
	case ArtifactAnalysis:
		reserve += analysisReservationBytes
	case ArtifactFullResolution:
		reserve += fullResolutionReservationBytes
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.evictLocked(reserve); err != nil {
		return "", err
	}

	path := c.artifactPath(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	c.refreshSizeMetric()
	return path, nil
}

// Release deletes a single-use artifact immediately after consumption, as
// the full-resolution artifacts written for C6 require.
func (c *Cache) Release(key string) error {
	path := c.artifactPath(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	c.refreshSizeMetric()
	return nil
}

// Close removes this session's artifacts and lock file. It does not touch
// artifacts belonging to other active sessions.
func (c *Cache) Close() error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("root", c.root).
			Build()
	}

	for _, entry := range entries {
		name := entry.Name()
		if len(name) >= len(c.sessionID) && name[:len(c.sessionID)] == c.sessionID {
			_ = os.Remove(filepath.Join(c.root, name))
		}
	}

	lockPath := c.lockPath()
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", lockPath).
			Build()
	}
	return nil
}

// cacheFileInfo is the sortable view of a non-lock artifact used during
// eviction, grounded on the teacher's diskmanager FileInfo sort-by-mtime
// cleanup pattern generalized from per-species retention to per-session
// ownership.
type cacheFileInfo struct {
	path  string
	size  int64
	mtime time.Time
}

// evictLocked must be called with mu held. It totals all non-lock artifact
// sizes and, if total+reserve would exceed the ceiling, deletes files in
// ascending mtime order (oldest first) until under the ceiling, skipping any
// file that belongs to another active (non-stale) session.
func (c *Cache) evictLocked(reserve int64) error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return errors.Wrap(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("root", c.root).
			Build()
	}

	activeOtherSessions := c.activeOtherSessionIDs(entries)

	var files []cacheFileInfo
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || isLockFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
		files = append(files, cacheFileInfo{
			path:  filepath.Join(c.root, entry.Name()),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}

	if total+reserve <= c.ceilingBytes {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].mtime.Before(files[j].mtime)
	})

	for _, f := range files {
		if total+reserve <= c.ceilingBytes {
			break
		}
		if belongsToOtherSession(filepath.Base(f.path), activeOtherSessions) {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			if !os.IsNotExist(err) {
				c.logger.Warn("cache eviction failed to remove artifact", "path", f.path, "error", err)
			}
			continue
		}
		total -= f.size
		if c.metrics != nil {
			c.metrics.evictionsTotal.Inc()
		}
	}

	return nil
}

func belongsToOtherSession(filename string, otherSessions map[string]bool) bool {
	for sid := range otherSessions {
		if len(filename) >= len(sid) && filename[:len(sid)] == sid {
			return true
		}
	}
	return false
}

func (c *Cache) refreshSizeMetric() {
	if c.metrics == nil {
		return
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || isLockFile(entry.Name()) {
			continue
		}
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
	}
	c.metrics.bytes.Set(float64(total))
}
