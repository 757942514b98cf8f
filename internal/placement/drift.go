package placement

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/correlate"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

// measureDriftAll measures drift for every eligible non-reference clip, then
// inherits the best-fit measurement across each track's unmeasured clips.
func measureDriftAll(ctx context.Context, tracks []*syncmodel.Track, refAudio []float32, result *syncmodel.AnalysisResult, cfg syncmodel.Config) error {
	for _, track := range tracks {
		for _, clip := range track.Clips {
			if cancelled(ctx) {
				return cancelledErr()
			}
			if !clip.Analyzed || clip.DurationS < conf.DriftMinClipDurationSeconds {
				continue
			}
			measureDriftForClip(clip, refAudio, cfg)
		}
		inheritDrift(track)
	}

	result.DriftDetected = anyDriftDetected(tracks, cfg)
	return nil
}

// measureDriftForClip slides a 30s window / 15s stride over the clip's
// overlap with the reference timeline, fitting a least-squares line through
// the collected sub-sample offsets and recording ppm/R² when both gates
// (R² > 0.5 and |drift_ppm| > drift_threshold_ppm) pass.
func measureDriftForClip(clip *syncmodel.Clip, refAudio []float32, cfg syncmodel.Config) {
	windowSamples := int(conf.DriftWindowSeconds * conf.AnalysisRate)
	strideSamples := int(conf.DriftStrideSeconds * conf.AnalysisRate)

	var times, offsets []float64

	clipStart := clip.TimelineOffsetSamples
	clipLen := int64(len(clip.Samples))

	for localStart := 0; localStart+windowSamples <= len(clip.Samples); localStart += strideSamples {
		refStart := clipStart + int64(localStart)
		refEnd := refStart + int64(windowSamples)
		if refStart < 0 || refEnd > int64(len(refAudio)) {
			continue
		}
		if int64(localStart+windowSamples) > clipLen {
			continue
		}

		clipWindow := clip.Samples[localStart : localStart+windowSamples]
		refWindow := refAudio[refStart:refEnd]

		if peakAbsF32(clipWindow) < conf.SilenceEnergyFloor || peakAbsF32(refWindow) < conf.SilenceEnergyFloor {
			continue
		}

		corr := correlate.CrossCorrelate(refWindow, clipWindow)
		zeroIdx := len(clipWindow) - 1
		peakIdx := argmaxAbsF64(corr)
		refined := correlate.RefineSubSample(corr, peakIdx)
		offsetSamples := refined - float64(zeroIdx)

		timeS := float64(localStart) / conf.AnalysisRate
		times = append(times, timeS)
		offsets = append(offsets, offsetSamples)
	}

	if len(times) < conf.DriftMinFitPoints {
		return
	}

	intercept, slope := stat.LinearRegression(times, offsets, nil, false)
	rSquared := stat.RSquared(times, offsets, nil, intercept, slope)
	rSquared = clamp01(rSquared)

	driftPPM := (slope / conf.AnalysisRate) * 1e6

	if rSquared > conf.DriftRSquaredThreshold && math.Abs(driftPPM) > cfg.DriftThresholdPPM {
		clip.MarkDrift(driftPPM, rSquared)
	}
}

// inheritDrift propagates the highest-R² drift measurement on a track to
// every sibling clip whose drift is unmeasured, since same-device clips
// share one crystal.
func inheritDrift(track *syncmodel.Track) {
	var best *syncmodel.Clip
	for _, clip := range track.Clips {
		if clip.DriftRSquared > conf.DriftRSquaredThreshold {
			if best == nil || clip.DriftRSquared > best.DriftRSquared {
				best = clip
			}
		}
	}
	if best == nil {
		return
	}

	for _, clip := range track.Clips {
		if clip == best || clip.DriftRSquared > 0 {
			continue
		}
		clip.MarkDrift(best.DriftPPM, best.DriftRSquared)
	}
}

func anyDriftDetected(tracks []*syncmodel.Track, cfg syncmodel.Config) bool {
	for _, track := range tracks {
		for _, clip := range track.Clips {
			if clip.DriftRSquared > conf.DriftRSquaredThreshold && math.Abs(clip.DriftPPM) > cfg.DriftThresholdPPM {
				return true
			}
		}
	}
	return false
}

func peakAbsF32(samples []float32) float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

func argmaxAbsF64(values []float64) int {
	best := 0
	bestVal := math.Abs(values[0])
	for i := 1; i < len(values); i++ {
		if v := math.Abs(values[i]); v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
