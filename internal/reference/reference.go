// Package reference implements the Reference Builder (C4): it assembles a
// continuous audio timeline from one device's sequential clips, placed by
// metadata gaps rather than cross-correlation, since same-device clips
// share no acoustic content to correlate against.
package reference

import (
	"math"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

const defaultGapSeconds = 0.5

// referenceConfidence is the fixed confidence assigned to every reference
// clip, matching C5's expectation that reference clips are always "placed".
const referenceConfidence = 100.0

// Build assembles the reference track's dense audio buffer and writes each
// clip's offset and confidence. It mutates refTrack's
// clips in place and returns the assembled buffer.
func Build(refTrack *syncmodel.Track) []float32 {
	refTrack.SortClipsByTime()

	var offset int64
	var maxEnd int64
	for i, clip := range refTrack.Clips {
		if i == 0 {
			offset = 0
		} else {
			prev := refTrack.Clips[i-1]
			gapS := gapSeconds(prev, clip)
			offset = prev.TimelineOffsetSamples + prev.LengthSamples() + int64(math.Round(gapS*conf.AnalysisRate))
		}

		clip.MarkPlaced(offset, referenceConfidence)
		if end := clip.EndSamples(); end > maxEnd {
			maxEnd = end
		}
	}

	buf := make([]float32, maxEnd)
	for _, clip := range refTrack.Clips {
		copy(buf[clip.TimelineOffsetSamples:], clip.Samples)
	}
	return buf
}

// gapSeconds computes the metadata gap between two sequential clips on the
// same device: max(0, clip.creation_time - (prev.creation_time +
// prev.duration_s)). When either timestamp is missing, the default 0.5s gap
// applies.
func gapSeconds(prev, clip *syncmodel.Clip) float64 {
	if !prev.HasCreationTime || !clip.HasCreationTime {
		return defaultGapSeconds
	}
	gap := float64(clip.CreationTime) - (float64(prev.CreationTime) + prev.DurationS)
	if gap < 0 {
		return 0
	}
	return gap
}

// SelectReferenceTrack chooses the track to anchor the timeline: a track
// explicitly marked is_reference wins outright; otherwise the track with the
// widest metadata coverage span; otherwise the track with the greatest
// total audio duration. The chosen track's IsReference flag is set.
func SelectReferenceTrack(tracks []*syncmodel.Track) *syncmodel.Track {
	for _, t := range tracks {
		if t.IsReference {
			return t
		}
	}

	var best *syncmodel.Track
	var bestSpan float64
	anyMetadata := false
	for _, t := range tracks {
		if span, ok := t.MetadataCoverageSpan(); ok {
			anyMetadata = true
			if best == nil || span > bestSpan {
				best, bestSpan = t, span
			}
		}
	}

	if !anyMetadata {
		var bestDuration float64
		for _, t := range tracks {
			d := t.TotalDuration()
			if best == nil || d > bestDuration {
				best, bestDuration = t, d
			}
		}
	}

	if best != nil {
		best.IsReference = true
	}
	return best
}
