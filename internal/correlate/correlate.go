// Package correlate implements the cross-correlator (C3): FFT-based delay
// estimation between a reference timeline and a target clip, with optional
// sub-sample parabolic refinement for drift measurement windows.
package correlate

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/audiosync/internal/conf"
)

// Result is the outcome of a delay() call.
type Result struct {
	DelaySamples int64
	Confidence   float64
}

// Delay estimates the sample offset of tgt within ref via normalized FFT
// cross-correlation. maxOffsetSamples, if non-zero, clips the search region
// to [center-maxOffsetSamples, center+maxOffsetSamples] around zero delay.
//
// Both inputs are normalized by their own absolute peak (1e-10 floor) before
// correlation. The correlation sequence is fftconvolve(ref, reverse(tgt)),
// equivalent to full-length linear cross-correlation: length
// len(ref)+len(tgt)-1, with index len(tgt)-1 corresponding to zero delay.
func Delay(ref, tgt []float32, maxOffsetSamples int64) Result {
	if len(ref) == 0 || len(tgt) == 0 {
		return Result{}
	}

	if peakAbs(ref) < conf.NormalizationFloor || peakAbs(tgt) < conf.NormalizationFloor {
		// All-silence or all-zero input: short-circuit rather than let an
		// all-zero correlation sequence produce an arbitrary argmax tie.
		return Result{DelaySamples: 0, Confidence: 0}
	}

	refN := normalize(ref)
	tgtN := normalize(tgt)

	corr := fftCrossCorrelate(refN, tgtN)
	zeroIdx := len(tgt) - 1

	lo, hi := 0, len(corr)-1
	if maxOffsetSamples > 0 {
		lo = clampInt(zeroIdx-int(maxOffsetSamples), 0, len(corr)-1)
		hi = clampInt(zeroIdx+int(maxOffsetSamples), 0, len(corr)-1)
	}

	peakIdx := argmaxAbs(corr, lo, hi)
	confidence := confidenceAt(corr, peakIdx)

	return Result{
		DelaySamples: int64(peakIdx - zeroIdx),
		Confidence:   confidence,
	}
}

// RefineSubSample applies parabolic interpolation around the integer peak
// index to produce a fractional-sample delay estimate, used only for drift
// measurement windows. If the peak sits at an array edge, or the fit
// denominator's magnitude falls below conf.ParabolicRefinementFloor, the
// integer position is returned unchanged.
func RefineSubSample(corr []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(corr)-1 {
		return float64(peakIdx)
	}

	alpha := math.Abs(corr[peakIdx-1])
	beta := math.Abs(corr[peakIdx])
	gamma := math.Abs(corr[peakIdx+1])

	denom := alpha - 2*beta + gamma
	if math.Abs(denom) < conf.ParabolicRefinementFloor {
		return float64(peakIdx)
	}

	return float64(peakIdx) + 0.5*(alpha-gamma)/denom
}

// CrossCorrelate exposes the raw FFT cross-correlation sequence, used by the
// placement engine's drift-window sub-sample refinement.
func CrossCorrelate(ref, tgt []float32) []float64 {
	return fftCrossCorrelate(normalize(ref), normalize(tgt))
}

// peakAbs returns the largest absolute sample value in samples.
func peakAbs(samples []float32) float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

// normalize scales samples by their absolute peak, with a floor to avoid
// dividing by (near) zero on silence.
func normalize(samples []float32) []float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	if peak < conf.NormalizationFloor {
		peak = conf.NormalizationFloor
	}

	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / peak
	}
	return out
}

// fftCrossCorrelate computes fftconvolve(ref, reverse(tgt)) via gonum's real
// FFT, zero-padded to exactly len(ref)+len(tgt)-1 so the circular convolution
// the FFT performs equals the linear one (no wraparound to discard).
func fftCrossCorrelate(ref, tgt []float64) []float64 {
	n := len(ref) + len(tgt) - 1

	refPadded := make([]float64, n)
	copy(refPadded, ref)

	tgtReversedPadded := make([]float64, n)
	for i, v := range tgt {
		tgtReversedPadded[len(tgt)-1-i] = v
	}

	fft := fourier.NewFFT(n)
	refCoeffs := fft.Coefficients(nil, refPadded)
	tgtCoeffs := fft.Coefficients(nil, tgtReversedPadded)

	product := make([]complex128, len(refCoeffs))
	for i := range product {
		product[i] = refCoeffs[i] * tgtCoeffs[i]
	}

	return fft.Sequence(nil, product)
}

// argmaxAbs returns the index in [lo, hi] with the largest |corr[i]|.
func argmaxAbs(corr []float64, lo, hi int) int {
	best := lo
	bestVal := math.Abs(corr[lo])
	for i := lo + 1; i <= hi; i++ {
		if v := math.Abs(corr[i]); v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}

// confidenceAt computes |corr[peak]| / mean(|corr|), with the normalization
// floor applied to the denominator to avoid dividing by zero on silence.
func confidenceAt(corr []float64, peakIdx int) float64 {
	if len(corr) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range corr {
		sum += math.Abs(v)
	}
	mean := sum / float64(len(corr))
	if mean < conf.NormalizationFloor {
		mean = conf.NormalizationFloor
	}

	return math.Abs(corr[peakIdx]) / mean
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
