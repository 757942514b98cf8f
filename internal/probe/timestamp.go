package probe

import (
	"os"
	"strings"
	"time"
)

// creationTimeLayouts are the ISO-8601 variants the creation-timestamp probe
// accepts, with and without fractional seconds and the "Z" suffix.
var creationTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseCreationTimestamp parses a container/stream creation_time tag value
// in any of the accepted ISO-8601 variants, normalized to UTC epoch seconds.
func parseCreationTimestamp(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	for _, layout := range creationTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Unix(), true
		}
	}
	return 0, false
}

// probeFileTimestamp falls back to the file's modification time when no
// container/stream metadata timestamp is available.
func probeFileTimestamp(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.ModTime().UTC().Unix(), true
}
