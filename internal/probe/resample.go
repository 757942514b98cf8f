package probe

import (
	"math"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/errors"
)

// ResampleAudio resamples input from originalRate to targetRate using
// rational polyphase filtering. When originalRate == targetRate, the input
// slice is returned unchanged (same underlying array, no copy).
func ResampleAudio(input []float32, originalRate, targetRate int) ([]float32, error) {
	if originalRate <= 0 || targetRate <= 0 {
		return nil, errors.Newf("invalid sample rate: original=%d target=%d", originalRate, targetRate).
			Component("probe").
			Category(errors.CategoryValidation).
			Build()
	}

	if originalRate == targetRate {
		return input, nil
	}

	up, down := reducedRatio(targetRate, originalRate)
	return polyphaseResample(input, up, down), nil
}

// reducedRatio reduces target/original to lowest terms via gcd, then caps
// both factors: while either exceeds conf.PolyphaseFactorCap, halve both
// (rounding up, never below 1). This trades a little stopband attenuation
// for bounded filter size on pathological ratios.
func reducedRatio(target, original int) (up, down int) {
	g := gcd(target, original)
	up = target / g
	down = original / g

	for up > conf.PolyphaseFactorCap || down > conf.PolyphaseFactorCap {
		up = halveRoundUp(up)
		down = halveRoundUp(down)
	}
	return up, down
}

func halveRoundUp(v int) int {
	h := (v + 1) / 2
	if h < 1 {
		return 1
	}
	return h
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	if a == 0 {
		return 1
	}
	return a
}

// polyphaseResample upsamples by `up` (zero-stuffing), low-pass filters with
// a windowed-sinc kernel scaled to the tighter of the two new Nyquist rates,
// then downsamples by `down`, implemented directly against the output grid
// so no intermediate zero-stuffed buffer is materialized.
func polyphaseResample(input []float32, up, down int) []float32 {
	if len(input) == 0 {
		return nil
	}

	const halfTaps = 16 // taps per polyphase branch, each side of the kernel center
	cutoff := float64(up) / math.Max(float64(up), float64(down))
	kernel, kernelCenter := sincKernel(halfTaps, up, cutoff)

	outLen := (len(input)*up + down - 1) / down
	out := make([]float32, outLen)

	for n := 0; n < outLen; n++ {
		// Position of output sample n on the upsampled (by `up`) time axis.
		center := n * down
		out[n] = convolveAt(input, kernel, kernelCenter, up, center)
	}
	return out
}

// ResampleToLength directly resamples input to exactly outLen frames using
// windowed-sinc interpolation evaluated at the continuous ratio
// len(input)/outLen. Unlike ResampleAudio, it never reduces the ratio to an
// integer up/down pair bounded by conf.PolyphaseFactorCap, so it stays exact
// for near-1:1 ratios between two large, near-equal, often-coprime frame
// counts (drift correction: e.g. 8000 frames corrected to 7999) where that
// cap would otherwise collapse the ratio toward 1:1 and silently do nothing.
func ResampleToLength(input []float32, outLen int) []float32 {
	if len(input) == 0 || outLen <= 0 {
		return nil
	}
	if outLen == len(input) {
		out := make([]float32, len(input))
		copy(out, input)
		return out
	}

	ratio := float64(len(input)) / float64(outLen)
	cutoff := 1.0
	if ratio > 1 {
		cutoff = 1.0 / ratio // low-pass to the new, lower Nyquist when downsampling
	}

	const halfTaps = 16
	out := make([]float32, outLen)
	for n := 0; n < outLen; n++ {
		center := float64(n) * ratio
		out[n] = sincInterpolate(input, center, halfTaps, cutoff)
	}
	return out
}

// sincInterpolate evaluates a windowed-sinc reconstruction of input at the
// continuous position center, over halfTaps samples on each side.
func sincInterpolate(input []float32, center float64, halfTaps int, cutoff float64) float32 {
	lo := int(math.Floor(center)) - halfTaps
	hi := int(math.Floor(center)) + halfTaps + 1

	var sum float64
	for i := lo; i <= hi; i++ {
		if i < 0 || i >= len(input) {
			continue
		}
		d := float64(i) - center
		x := d * cutoff
		var s float64
		if x == 0 {
			s = cutoff
		} else {
			s = cutoff * math.Sin(math.Pi*x) / (math.Pi * x)
		}
		w := 0.5 * (1 + math.Cos(math.Pi*d/(float64(halfTaps)+1)))
		sum += float64(input[i]) * s * w
	}
	return float32(sum)
}

// sincKernel builds a windowed-sinc low-pass kernel sampled at `up` times
// the input rate, spanning halfTaps zero-crossings of the original-rate
// sinc on each side, with a Hann window to control ringing.
func sincKernel(halfTaps, up int, cutoff float64) (kernel []float64, center int) {
	span := halfTaps * up
	center = span
	n := 2*span + 1
	kernel = make([]float64, n)

	for i := 0; i < n; i++ {
		x := float64(i-span) / float64(up)
		var s float64
		if x == 0 {
			s = cutoff
		} else {
			s = cutoff * math.Sin(math.Pi*cutoff*x) / (math.Pi * cutoff * x)
		}
		w := 0.5 * (1 + math.Cos(math.Pi*float64(i-span)/float64(span+1)))
		kernel[i] = s * w
	}
	return kernel, center
}

// convolveAt evaluates the polyphase sum for one output sample: the
// zero-stuffed-input convolution with `kernel`, evaluated only at the
// nonzero taps (every `up`-th kernel sample maps to a real input sample).
func convolveAt(input []float32, kernel []float64, kernelCenter, up, center int) float32 {
	var sum float64
	// kernel index k corresponds to upsampled-axis position center-span+k;
	// only positions that are multiples of `up` land on a real input sample.
	span := kernelCenter
	lo := center - span
	hi := center + span

	for pos := lo; pos <= hi; pos++ {
		if pos%up != 0 {
			continue
		}
		inIdx := pos / up
		if inIdx < 0 || inIdx >= len(input) {
			continue
		}
		k := pos - lo
		sum += float64(input[inIdx]) * kernel[k]
	}
	return float32(sum)
}
