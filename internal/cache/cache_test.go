package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func openTestCache(t *testing.T, ceiling int64) *Cache {
	t.Helper()
	root := t.TempDir()
	registry := prometheus.NewRegistry()
	c, err := Open(Options{Root: root, CeilingBytes: ceiling, Registry: registry})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenCreatesLockFile(t *testing.T) {
	c := openTestCache(t, 0)

	entries, err := os.ReadDir(c.root)
	if err != nil {
		t.Fatalf("failed to read cache root: %v", err)
	}

	found := false
	for _, e := range entries {
		if e.Name() == c.sessionID+lockFileSuffix {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected lock file %s.lock in %s", c.sessionID, c.root)
	}
}

func TestKeyDerivationIsDeterministicAndSessionPrefixed(t *testing.T) {
	c := openTestCache(t, 0)

	mtime := time.Unix(1700000000, 0)
	k1 := c.Key("/abs/path/clip.wav", mtime, 1024)
	k2 := c.Key("/abs/path/clip.wav", mtime, 1024)
	if k1 != k2 {
		t.Fatalf("expected deterministic key, got %q and %q", k1, k2)
	}
	if k1[:len(c.sessionID)] != c.sessionID {
		t.Fatalf("expected key %q to be prefixed with session id %q", k1, c.sessionID)
	}

	k3 := c.Key("/abs/path/other.wav", mtime, 1024)
	if k1 == k3 {
		t.Fatal("expected different paths to produce different keys")
	}
}

func TestPutAndLookup(t *testing.T) {
	c := openTestCache(t, 0)

	key := c.sessionID + "abc123"
	path, err := c.Put(key, ArtifactAnalysis, []byte("hello"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	found, ok := c.Lookup(key)
	if !ok {
		t.Fatal("expected artifact to be found after Put")
	}
	if found != path {
		t.Fatalf("expected lookup path %q to equal put path %q", found, path)
	}

	data, err := os.ReadFile(found)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected artifact content %q, got %q", "hello", string(data))
	}
}

func TestLookupMissingKey(t *testing.T) {
	c := openTestCache(t, 0)
	if _, ok := c.Lookup(c.sessionID + "doesnotexist"); ok {
		t.Fatal("expected lookup to fail for missing key")
	}
}

func TestReleaseRemovesArtifact(t *testing.T) {
	c := openTestCache(t, 0)

	key := c.sessionID + "release-me"
	if _, err := c.Put(key, ArtifactFullResolution, []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Release(key); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, ok := c.Lookup(key); ok {
		t.Fatal("expected artifact to be gone after Release")
	}
}

func TestEvictionRemovesOldestFirstUnderPressure(t *testing.T) {
	c := openTestCache(t, 1024) // tiny ceiling forces eviction

	oldKey := c.sessionID + "oldest"
	if _, err := c.Put(oldKey, ArtifactAnalysis, make([]byte, 10)); err != nil {
		t.Fatalf("Put oldest failed: %v", err)
	}
	oldPath := filepath.Join(c.root, oldKey+".artifact")
	oldTime := time.Now().Add(-time.Hour)
	if err := os.Chtimes(oldPath, oldTime, oldTime); err != nil {
		t.Fatalf("failed to backdate mtime: %v", err)
	}

	newKey := c.sessionID + "newest"
	if _, err := c.Put(newKey, ArtifactAnalysis, make([]byte, 10)); err != nil {
		t.Fatalf("Put newest failed: %v", err)
	}

	if _, ok := c.Lookup(oldKey); ok {
		t.Fatal("expected oldest artifact to be evicted under pressure")
	}
}

func TestCloseRemovesOnlyOwnSessionFiles(t *testing.T) {
	root := t.TempDir()
	registry1 := prometheus.NewRegistry()
	c1, err := Open(Options{Root: root, Registry: registry1})
	if err != nil {
		t.Fatalf("Open c1 failed: %v", err)
	}

	registry2 := prometheus.NewRegistry()
	c2, err := Open(Options{Root: root, Registry: registry2})
	if err != nil {
		t.Fatalf("Open c2 failed: %v", err)
	}

	key2 := c2.sessionID + "keepme"
	if _, err := c2.Put(key2, ArtifactAnalysis, []byte("x")); err != nil {
		t.Fatalf("Put on c2 failed: %v", err)
	}

	if err := c1.Close(); err != nil {
		t.Fatalf("Close c1 failed: %v", err)
	}

	if _, ok := c2.Lookup(key2); !ok {
		t.Fatal("expected c2's artifact to survive c1.Close")
	}

	_ = c2.Close()
}
