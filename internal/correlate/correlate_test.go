package correlate

import (
	"math"
	"testing"
)

func sineWave(n int, freq, rate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / rate))
	}
	return out
}

// noiseSignal returns a deterministic pseudo-random signal in [-1, 1).
// Unlike a pure tone it has a single correlation peak, so a shift is
// identifiable.
func noiseSignal(n int, seed uint32) []float32 {
	out := make([]float32, n)
	s := seed
	for i := range out {
		s = s*1664525 + 1013904223
		out[i] = float32(s>>8)/float32(1<<23) - 1
	}
	return out
}

func TestDelayExactShift(t *testing.T) {
	t.Parallel()

	ref := noiseSignal(4000, 1)

	shift := 137
	tgt := make([]float32, 1000)
	copy(tgt, ref[shift:shift+1000])

	res := Delay(ref, tgt, 0)

	if res.DelaySamples != int64(shift) {
		t.Errorf("expected delay %d, got %d", shift, res.DelaySamples)
	}
	if res.Confidence < 3.0 {
		t.Errorf("expected confident match, got confidence %g", res.Confidence)
	}
}

func TestDelaySilenceShortCircuits(t *testing.T) {
	t.Parallel()

	ref := make([]float32, 2000)
	tgt := make([]float32, 500)

	res := Delay(ref, tgt, 0)

	if res.DelaySamples != 0 || res.Confidence != 0 {
		t.Errorf("expected zero delay and confidence for all-silence input, got %+v", res)
	}
}

func TestDelayRespectsMaxOffset(t *testing.T) {
	t.Parallel()

	ref := noiseSignal(4000, 2)

	shift := 1000
	tgt := make([]float32, 800)
	copy(tgt, ref[shift:shift+800])

	// A narrow window that excludes the true shift should still return a
	// result, but with materially degraded confidence versus the true peak.
	narrow := Delay(ref, tgt, 50)
	wide := Delay(ref, tgt, 0)

	if narrow.DelaySamples == wide.DelaySamples {
		t.Errorf("expected narrow window to miss the true peak at %d", wide.DelaySamples)
	}
}

func TestRefineSubSampleFallsBackAtEdge(t *testing.T) {
	t.Parallel()

	corr := []float64{1, 2, 3}
	if got := RefineSubSample(corr, 0); got != 0 {
		t.Errorf("expected edge peak to return unrefined index, got %g", got)
	}
	if got := RefineSubSample(corr, 2); got != 2 {
		t.Errorf("expected edge peak to return unrefined index, got %g", got)
	}
}

func TestRefineSubSampleInterpolates(t *testing.T) {
	t.Parallel()

	// Symmetric peak should refine to exactly the integer index.
	corr := []float64{1, 5, 1}
	got := RefineSubSample(corr, 1)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("expected symmetric peak to refine to 1.0, got %g", got)
	}

	// Asymmetric peak should shift toward the larger neighbor.
	corr2 := []float64{1, 5, 3}
	got2 := RefineSubSample(corr2, 1)
	if got2 <= 1 {
		t.Errorf("expected refinement to shift toward larger right neighbor, got %g", got2)
	}
}
