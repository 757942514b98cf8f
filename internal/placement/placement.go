// Package placement implements the Placement Engine (C5): two-pass
// cross-correlation placement of every non-reference clip against the
// reference timeline and an enhanced mix, metadata fallback for clips that
// never clear the confidence threshold, timeline normalization, and
// per-clip drift measurement with same-track inheritance.
package placement

import (
	"context"
	"fmt"
	"math"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/correlate"
	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/reference"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

// silenceFloor matches the "silent" definition used when overlaying clips
// onto the enhanced timeline and when mixing in the stitcher.
const silenceFloor = 1e-10

// ProgressFunc reports (current step, total steps, message) as analysis
// proceeds. total may grow as later phases begin.
type ProgressFunc func(current, total int, message string)

// Run executes C4 (via reference.Build/SelectReferenceTrack) followed by the
// full C5 algorithm across tracks, returning the populated AnalysisResult.
// It returns errors.CategoryCancellation if ctx is cancelled between clips,
// and errors.CategoryNotEnoughData if fewer than two clips exist in total.
func Run(ctx context.Context, tracks []*syncmodel.Track, cfg syncmodel.Config, progress ProgressFunc) (*syncmodel.AnalysisResult, error) {
	if progress == nil {
		progress = func(int, int, string) {}
	}

	totalClips := 0
	for _, t := range tracks {
		totalClips += len(t.Clips)
	}
	if totalClips < 2 {
		return nil, errors.Newf("analysis requires at least two clips, got %d", totalClips).
			Component("placement").
			Category(errors.CategoryNotEnoughData).
			Build()
	}

	refTrack := reference.SelectReferenceTrack(tracks)
	if refTrack == nil || len(refTrack.Clips) == 0 {
		return nil, errors.Newf("reference track has no clips").
			Component("placement").
			Category(errors.CategoryState).
			Build()
	}
	refIndex := indexOf(tracks, refTrack)

	refAudio := reference.Build(refTrack)

	result := syncmodel.NewAnalysisResult()
	result.ReferenceTrackIndex = refIndex
	result.SampleRate = conf.AnalysisRate

	maxOffsetSamples := int64(0)
	if cfg.MaxOffsetS > 0 {
		maxOffsetSamples = int64(cfg.MaxOffsetS * conf.AnalysisRate)
	}

	nonRefTracks := otherTracks(tracks, refTrack)

	step, total := 0, totalClips
	progress(step, total, "pass 1: correlating against reference")

	placed, unplaced, err := passOne(ctx, nonRefTracks, refAudio, maxOffsetSamples, result, &step, total, progress)
	if err != nil {
		return nil, err
	}

	if len(unplaced) > 0 {
		progress(step, total, "pass 2: correlating against enhanced timeline")
		if err := passTwo(ctx, refAudio, placed, unplaced, maxOffsetSamples, result, &step, total, progress); err != nil {
			return nil, err
		}
	}

	progress(step, total, "metadata fallback")
	applyMetadataFallback(refTrack, nonRefTracks, result)

	progress(step, total, "normalizing timeline")
	normalize(tracks, result)

	progress(step, total, "measuring drift")
	// Normalization may have shifted the reference clips; re-anchor the
	// reference buffer so its indices match the post-normalization timeline.
	driftRef := refAudio
	if shift := refTrack.Clips[0].TimelineOffsetSamples; shift > 0 {
		driftRef = make([]float32, shift+int64(len(refAudio)))
		copy(driftRef[shift:], refAudio)
	}
	if err := measureDriftAll(ctx, nonRefTracks, driftRef, result, cfg); err != nil {
		return nil, err
	}

	finalizeAverageConfidence(tracks, result)

	progress(total, total, "done")
	return result, nil
}

func indexOf(tracks []*syncmodel.Track, target *syncmodel.Track) int {
	for i, t := range tracks {
		if t == target {
			return i
		}
	}
	return -1
}

func otherTracks(tracks []*syncmodel.Track, exclude *syncmodel.Track) []*syncmodel.Track {
	out := make([]*syncmodel.Track, 0, len(tracks))
	for _, t := range tracks {
		if t != exclude {
			out = append(out, t)
		}
	}
	return out
}

// passOne correlates every clip on every non-reference track against the
// raw reference timeline, partitioning clips into placed (confidence >=
// threshold) and unplaced.
func passOne(ctx context.Context, tracks []*syncmodel.Track, refAudio []float32, maxOffsetSamples int64, result *syncmodel.AnalysisResult, step *int, total int, progress ProgressFunc) (placed, unplaced []*syncmodel.Clip, err error) {
	for _, track := range tracks {
		for _, clip := range track.Clips {
			if cancelled(ctx) {
				return nil, nil, cancelledErr()
			}

			r := correlate.Delay(refAudio, clip.Samples, maxOffsetSamples)
			clip.MarkPlaced(r.DelaySamples, r.Confidence)

			*step++
			progress(*step, total, fmt.Sprintf("pass 1: %s", clip.Name))

			if r.Confidence >= conf.ConfidenceThreshold {
				placed = append(placed, clip)
			} else {
				unplaced = append(unplaced, clip)
				result.AddWarning(fmt.Sprintf("%s: low confidence %.2f in pass 1", clip.Name, r.Confidence))
			}
		}
	}
	return placed, unplaced, nil
}

// passTwo builds the enhanced timeline (reference overlaid with every
// Pass-1-placed clip) and re-correlates each unplaced clip against it,
// adopting the new result only when it strictly improves confidence.
func passTwo(ctx context.Context, refAudio []float32, placed, unplaced []*syncmodel.Clip, maxOffsetSamples int64, result *syncmodel.AnalysisResult, step *int, total int, progress ProgressFunc) error {
	enhanced := buildEnhancedTimeline(refAudio, placed)

	for _, clip := range unplaced {
		if cancelled(ctx) {
			return cancelledErr()
		}

		priorConfidence := clip.Confidence

		r := correlate.Delay(enhanced, clip.Samples, maxOffsetSamples)

		*step++
		progress(*step, total, fmt.Sprintf("pass 2: %s", clip.Name))

		if r.Confidence > priorConfidence {
			clip.MarkPlaced(r.DelaySamples, r.Confidence)
		}

		if clip.Confidence >= conf.ConfidenceThreshold {
			removeWarningForClip(result, clip.Name, priorConfidence)
		}
	}
	return nil
}

// buildEnhancedTimeline extends a copy of the reference buffer to cover
// every placed clip's end, then overlays each placed clip's samples,
// averaging with any non-silent existing content at that position.
func buildEnhancedTimeline(refAudio []float32, placed []*syncmodel.Clip) []float32 {
	length := int64(len(refAudio))
	for _, clip := range placed {
		if end := clip.EndSamples(); end > length {
			length = end
		}
	}

	enhanced := make([]float32, length)
	copy(enhanced, refAudio)

	for _, clip := range placed {
		offset := clip.TimelineOffsetSamples
		for i, s := range clip.Samples {
			idx := offset + int64(i)
			if idx < 0 || idx >= length {
				continue
			}
			existing := enhanced[idx]
			if math.Abs(float64(existing)) < silenceFloor {
				enhanced[idx] = s
			} else {
				enhanced[idx] = (existing + s) / 2
			}
		}
	}
	return enhanced
}

// removeWarningForClip drops a previously emitted low-confidence warning for
// clipName once its confidence clears the threshold. The removal is keyed
// on the confidence recorded *before* Pass 2 overwrote it (priorConfidence),
// not the post-overwrite value, since the warning text itself embeds that
// prior number.
func removeWarningForClip(result *syncmodel.AnalysisResult, clipName string, priorConfidence float64) {
	wantedText := fmt.Sprintf("%s: low confidence %.2f in pass 1", clipName, priorConfidence)
	kept := result.Warnings[:0]
	for _, w := range result.Warnings {
		if w != wantedText {
			kept = append(kept, w)
		}
	}
	result.Warnings = kept
}

// applyMetadataFallback places any clip still below threshold using its
// creation timestamp relative to the reference track's origin, when that
// would produce a non-negative offset.
func applyMetadataFallback(refTrack *syncmodel.Track, tracks []*syncmodel.Track, result *syncmodel.AnalysisResult) {
	refOrigin, ok := referenceOrigin(refTrack)
	if !ok {
		return
	}

	for _, track := range tracks {
		for _, clip := range track.Clips {
			if clip.Confidence >= conf.ConfidenceThreshold || !clip.HasCreationTime {
				continue
			}

			offset := int64(math.Round((float64(clip.CreationTime) - refOrigin) * conf.AnalysisRate))
			if offset < 0 {
				continue
			}

			priorConfidence := clip.Confidence
			clip.TimelineOffsetSamples = offset
			result.AddWarning(fmt.Sprintf("%s: metadata fallback applied (prior confidence %.2f)", clip.Name, priorConfidence))
		}
	}
}

func referenceOrigin(refTrack *syncmodel.Track) (float64, bool) {
	var earliest int64
	found := false
	for _, c := range refTrack.Clips {
		if !c.HasCreationTime {
			continue
		}
		if !found || c.CreationTime < earliest {
			earliest = c.CreationTime
			found = true
		}
	}
	return float64(earliest), found
}

// normalize shifts every clip (including reference clips) by -min_offset if
// any offset is negative, then records the resulting timeline length.
func normalize(tracks []*syncmodel.Track, result *syncmodel.AnalysisResult) {
	minOffset := int64(0)
	first := true
	for _, track := range tracks {
		for _, clip := range track.Clips {
			if first || clip.TimelineOffsetSamples < minOffset {
				minOffset = clip.TimelineOffsetSamples
				first = false
			}
		}
	}

	if minOffset < 0 {
		shift := -minOffset
		for _, track := range tracks {
			for _, clip := range track.Clips {
				clip.TimelineOffsetSamples += shift
			}
		}
	}

	var maxEnd int64
	for _, track := range tracks {
		for _, clip := range track.Clips {
			result.ClipOffsets[clip.FilePath] = clip.TimelineOffsetSamples
			if end := clip.EndSamples(); end > maxEnd {
				maxEnd = end
			}
		}
	}

	result.TotalTimelineSamples = maxEnd
	result.TotalTimelineS = float64(maxEnd) / conf.AnalysisRate
}

func finalizeAverageConfidence(tracks []*syncmodel.Track, result *syncmodel.AnalysisResult) {
	var sum float64
	var n int
	for _, track := range tracks {
		for _, clip := range track.Clips {
			sum += clip.Confidence
			n++
		}
	}
	if n > 0 {
		result.AvgConfidence = sum / float64(n)
	}
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func cancelledErr() error {
	return errors.Newf("analysis cancelled").
		Component("placement").
		Category(errors.CategoryCancellation).
		Build()
}
