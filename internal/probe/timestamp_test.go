package probe

import (
	"os"
	"testing"
	"time"
)

func TestParseCreationTimestampVariants(t *testing.T) {
	want := time.Date(2024, 3, 15, 12, 30, 45, 0, time.UTC).Unix()

	cases := []string{
		"2024-03-15T12:30:45Z",
		"2024-03-15T12:30:45.123456Z",
		"2024-03-15T12:30:45",
	}
	for _, raw := range cases {
		got, ok := parseCreationTimestamp(raw)
		if !ok {
			t.Errorf("parseCreationTimestamp(%q) failed to parse", raw)
			continue
		}
		if got != want {
			t.Errorf("parseCreationTimestamp(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestParseCreationTimestampEmpty(t *testing.T) {
	if _, ok := parseCreationTimestamp(""); ok {
		t.Fatal("expected failure on empty string")
	}
	if _, ok := parseCreationTimestamp("   "); ok {
		t.Fatal("expected failure on whitespace-only string")
	}
}

func TestParseCreationTimestampGarbage(t *testing.T) {
	if _, ok := parseCreationTimestamp("not-a-timestamp"); ok {
		t.Fatal("expected failure on garbage input")
	}
}

func TestProbeFileTimestampFallsBackToModTime(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "probe-ts-*")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	ts, ok := probeFileTimestamp(path)
	if !ok {
		t.Fatal("expected success reading mod time of existing file")
	}
	if ts <= 0 {
		t.Errorf("expected positive unix timestamp, got %d", ts)
	}
}

func TestProbeFileTimestampMissingFile(t *testing.T) {
	if _, ok := probeFileTimestamp("/nonexistent/path/for/test"); ok {
		t.Fatal("expected failure for nonexistent file")
	}
}
