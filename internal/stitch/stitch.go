// Package stitch implements the Stitcher (C6): per-track, full-resolution
// audio assembly from placement + drift results, re-reading original media
// one clip at a time so the session never holds more than one clip's
// full-resolution buffer in memory.
package stitch

import (
	"context"
	"encoding/binary"
	"math"
	"os"

	"github.com/tphakala/audiosync/internal/cache"
	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/probe"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

// silenceFloor matches the placement engine's "non-silent" test, applied
// here when deciding whether to average or copy during the mix-down.
const silenceFloor = 1e-10

// Buffer is a dense multi-channel output buffer: Samples is interleaved
// frame-major (frame*Channels + ch), or simply per-sample when Channels==1.
type Buffer struct {
	Samples  []float64
	Channels int
}

// Stitcher re-reads original media through the probe/cache layers to build
// one dense per-device output buffer per track.
type Stitcher struct {
	loader *probe.Loader
	cache  *cache.Cache // optional; nil disables caching of full-res reads
}

// New builds a Stitcher. cache may be nil.
func New(loader *probe.Loader, c *cache.Cache) *Stitcher {
	return &Stitcher{loader: loader, cache: c}
}

// StitchTrack produces one track's dense output buffer at exportRate,
// covering totalSamples (= round(result.total_timeline_s * exportRate)),
// applying drift correction per clip where the config and per-clip gates
// allow it.
func (s *Stitcher) StitchTrack(ctx context.Context, track *syncmodel.Track, totalTimelineS float64, exportRate int, cfg syncmodel.Config) (*Buffer, error) {
	channels := maxOriginalChannels(track)
	totalSamples := int64(math.Round(totalTimelineS * float64(exportRate)))

	buf := &Buffer{
		Samples:  make([]float64, totalSamples*int64(channels)),
		Channels: channels,
	}

	for _, clip := range track.Clips {
		if cancelled(ctx) {
			return nil, cancelledErr()
		}

		if err := s.stitchClip(ctx, clip, buf, totalSamples, exportRate, channels, cfg); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func (s *Stitcher) stitchClip(ctx context.Context, clip *syncmodel.Clip, buf *Buffer, totalSamples int64, exportRate, outChannels int, cfg syncmodel.Config) error {
	raw, srcSampleRate, srcChannels, err := s.loader.LoadFullResolution(ctx, clip)
	if err != nil {
		return err
	}

	cacheKey, cached := s.cacheFullResolution(clip, raw)
	if cached {
		defer func() { _ = s.cache.Release(cacheKey) }()
	}

	resampled, err := resampleInterleaved(raw, srcChannels, srcSampleRate, exportRate)
	if err != nil {
		return err
	}

	if shouldApplyDrift(clip, cfg) {
		resampled = driftCorrect(resampled, srcChannels, clip.DriftPPM)
	}

	reshaped := reshapeChannels(resampled, srcChannels, outChannels)

	insertionStart := clampInt64(
		int64(math.Round(float64(clip.TimelineOffsetSamples)/conf.AnalysisRate*float64(exportRate))),
		0, totalSamples,
	)

	frames := int64(len(reshaped)) / int64(outChannels)
	if insertionStart+frames > totalSamples {
		frames = totalSamples - insertionStart
	}

	mixInto(buf, reshaped, insertionStart, frames, outChannels)
	return nil
}

// shouldApplyDrift gates drift resampling on both the config toggle and the
// clip's own measured ppm/confidence thresholds.
func shouldApplyDrift(clip *syncmodel.Clip, cfg syncmodel.Config) bool {
	return cfg.DriftCorrection &&
		math.Abs(clip.DriftPPM) >= cfg.DriftThresholdPPM &&
		clip.DriftRSquared > conf.DriftRSquaredThreshold
}

// driftCorrect resamples a drift-affected clip to its corrected length:
// round(original_length / (1 + drift_ppm*1e-6)). Positive ppm (the clip ran
// fast) compresses the clip. The two lengths are near-1:1 and often
// coprime (8000 frames corrected to 7999, say), so this goes through
// probe.ResampleToLength rather than probe.ResampleAudio: the latter's
// sample-rate-ratio reduction is capped for bounded real sample-rate pairs
// and would collapse a near-1:1 ratio like this toward a 1:1 no-op.
func driftCorrect(interleaved []float32, channels int, driftPPM float64) []float32 {
	if channels <= 0 {
		return interleaved
	}
	frames := len(interleaved) / channels
	correctedFrames := int(math.Round(float64(frames) / (1 + driftPPM*1e-6)))
	if correctedFrames <= 0 || correctedFrames == frames {
		return interleaved
	}

	out := make([]float32, 0, correctedFrames*channels)
	for ch := 0; ch < channels; ch++ {
		channelSamples := make([]float32, frames)
		for i := 0; i < frames; i++ {
			channelSamples[i] = interleaved[i*channels+ch]
		}
		resampled := probe.ResampleToLength(channelSamples, correctedFrames)
		if ch == 0 {
			out = make([]float32, len(resampled)*channels)
		}
		for i, v := range resampled {
			if i*channels+ch < len(out) {
				out[i*channels+ch] = v
			}
		}
	}
	return out
}

// reshapeChannels converts an interleaved buffer with srcChannels per frame
// to outChannels per frame: mean-mix when mono output from multi-channel
// source, replicate when multi output from mono source, zero-pad or
// truncate trailing channels otherwise.
func reshapeChannels(interleaved []float32, srcChannels, outChannels int) []float32 {
	if srcChannels == outChannels {
		return interleaved
	}
	frames := len(interleaved) / srcChannels
	out := make([]float32, frames*outChannels)

	switch {
	case outChannels == 1 && srcChannels > 1:
		for f := 0; f < frames; f++ {
			var sum float32
			for ch := 0; ch < srcChannels; ch++ {
				sum += interleaved[f*srcChannels+ch]
			}
			out[f] = sum / float32(srcChannels)
		}
	case srcChannels == 1 && outChannels > 1:
		for f := 0; f < frames; f++ {
			for ch := 0; ch < outChannels; ch++ {
				out[f*outChannels+ch] = interleaved[f]
			}
		}
	default:
		for f := 0; f < frames; f++ {
			for ch := 0; ch < outChannels; ch++ {
				if ch < srcChannels {
					out[f*outChannels+ch] = interleaved[f*srcChannels+ch]
				}
			}
		}
	}
	return out
}

// mixInto writes frames of reshaped (outChannels per frame) into buf
// starting at insertionStart, averaging with any existing non-silent
// content and copying where the destination is silent.
func mixInto(buf *Buffer, reshaped []float32, insertionStart, frames int64, outChannels int) {
	for f := int64(0); f < frames; f++ {
		destFrame := insertionStart + f
		if destFrame < 0 || destFrame >= int64(len(buf.Samples))/int64(outChannels) {
			continue
		}

		existingNonSilent := false
		for ch := 0; ch < outChannels; ch++ {
			idx := destFrame*int64(outChannels) + int64(ch)
			if math.Abs(buf.Samples[idx]) > silenceFloor {
				existingNonSilent = true
				break
			}
		}

		for ch := 0; ch < outChannels; ch++ {
			idx := destFrame*int64(outChannels) + int64(ch)
			value := float64(reshaped[f*int64(outChannels)+int64(ch)])
			if existingNonSilent {
				buf.Samples[idx] = (buf.Samples[idx] + value) / 2
			} else {
				buf.Samples[idx] = value
			}
		}
	}
}

// cacheFullResolution writes the just-decoded full-resolution samples into
// the session cache as a single-use artifact:
// full-resolution artifacts are deleted immediately after consumption by
// C6. Returns false if no cache is configured or the file can't be stat'd.
func (s *Stitcher) cacheFullResolution(clip *syncmodel.Clip, samples []float32) (key string, ok bool) {
	if s.cache == nil {
		return "", false
	}
	info, err := os.Stat(clip.FilePath)
	if err != nil {
		return "", false
	}

	key = s.cache.Key(clip.FilePath, info.ModTime(), info.Size())
	data := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	if _, err := s.cache.Put(key, cache.ArtifactFullResolution, data); err != nil {
		return "", false
	}
	return key, true
}

func maxOriginalChannels(track *syncmodel.Track) int {
	channels := 1
	for _, c := range track.Clips {
		if c.OriginalChannels > channels {
			channels = c.OriginalChannels
		}
	}
	return channels
}

// resampleInterleaved resamples a multi-channel interleaved float32 buffer
// channel-by-channel via probe.ResampleAudio, since the polyphase resampler
// operates on a single mono stream.
func resampleInterleaved(interleaved []float32, channels, srcRate, dstRate int) ([]float32, error) {
	if srcRate == dstRate || len(interleaved) == 0 {
		return interleaved, nil
	}
	if channels <= 0 {
		channels = 1
	}

	frames := len(interleaved) / channels
	perChannel := make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		perChannel[ch] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			perChannel[ch][i] = interleaved[i*channels+ch]
		}
	}

	var outFrames int
	resampledChannels := make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		resampled, err := probe.ResampleAudio(perChannel[ch], srcRate, dstRate)
		if err != nil {
			return nil, err
		}
		resampledChannels[ch] = resampled
		if len(resampled) > outFrames {
			outFrames = len(resampled)
		}
	}

	out := make([]float32, outFrames*channels)
	for ch := 0; ch < channels; ch++ {
		for i, v := range resampledChannels[ch] {
			out[i*channels+ch] = v
		}
	}
	return out, nil
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
	return errors.Newf("stitching cancelled").
		Component("stitch").
		Category(errors.CategoryCancellation).
		Build()
}
