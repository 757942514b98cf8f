package syncmodel

import "sort"

// Track is one device's ordered set of clips.
type Track struct {
	Name        string
	IsReference bool
	Clips       []*Clip

	// SyncedBuffer is the stitched output produced by C6, interleaved or
	// planar per the export configuration. Nil until the stitcher runs.
	SyncedBuffer []float64
}

// SortClipsByTime orders clips non-decreasing by creation timestamp, falling
// back to lexicographic name when timestamps are equal, missing, or tied.
// Same-device clips are treated as sequential, never overlapping.
func (t *Track) SortClipsByTime() {
	sort.SliceStable(t.Clips, func(i, j int) bool {
		a, b := t.Clips[i], t.Clips[j]
		if a.HasCreationTime && b.HasCreationTime && a.CreationTime != b.CreationTime {
			return a.CreationTime < b.CreationTime
		}
		if a.HasCreationTime != b.HasCreationTime {
			// A missing timestamp sorts as if it were zero, so it comes
			// before any clip with a real (positive) creation time.
			return !a.HasCreationTime
		}
		return a.Name < b.Name
	})
}

// TotalDuration sums DurationS across all clips, used by the reference
// selection fallback policy when no track has usable timestamp metadata.
func (t *Track) TotalDuration() float64 {
	var total float64
	for _, c := range t.Clips {
		total += c.DurationS
	}
	return total
}

// MetadataCoverageSpan returns latest(creation+duration) - earliest(creation)
// across clips with a known creation time, and whether any such clip exists.
func (t *Track) MetadataCoverageSpan() (span float64, ok bool) {
	var earliest, latestEnd float64
	first := true
	for _, c := range t.Clips {
		if !c.HasCreationTime {
			continue
		}
		start := float64(c.CreationTime)
		end := start + c.DurationS
		if first {
			earliest, latestEnd = start, end
			first = false
			continue
		}
		if start < earliest {
			earliest = start
		}
		if end > latestEnd {
			latestEnd = end
		}
	}
	if first {
		return 0, false
	}
	return latestEnd - earliest, true
}
