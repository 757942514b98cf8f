package probe

import (
	"math"
	"testing"
)

func TestResampleAudioSameRatePassthrough(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4}
	out, err := ResampleAudio(input, 44100, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(input) {
		t.Fatalf("expected passthrough length %d, got %d", len(input), len(out))
	}
	for i := range input {
		if out[i] != input[i] {
			t.Fatalf("passthrough mismatch at %d: want %v got %v", i, input[i], out[i])
		}
	}
}

func TestResampleAudioInvalidRate(t *testing.T) {
	if _, err := ResampleAudio([]float32{1, 2, 3}, 0, 8000); err == nil {
		t.Fatal("expected error for zero original rate")
	}
	if _, err := ResampleAudio([]float32{1, 2, 3}, 44100, -1); err == nil {
		t.Fatal("expected error for negative target rate")
	}
}

func TestResampleAudioPreservesApproximateDuration(t *testing.T) {
	const originalRate = 44100
	const targetRate = 8000
	const durationS = 1.0

	n := int(originalRate * durationS)
	input := make([]float32, n)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / originalRate))
	}

	out, err := ResampleAudio(input, originalRate, targetRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantLen := int(targetRate * durationS)
	tolerance := targetRate / 50 // allow 2% slack from filter edge effects
	if diff := wantLen - len(out); diff > tolerance || diff < -tolerance {
		t.Fatalf("resampled length %d too far from expected %d (tolerance %d)", len(out), wantLen, tolerance)
	}
}

func TestReducedRatioCapsPolyphaseFactors(t *testing.T) {
	up, down := reducedRatio(48000, 1)
	if up > 256 || down > 256 {
		t.Fatalf("expected factors capped at 256, got up=%d down=%d", up, down)
	}
}

func TestGCD(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{12, 8, 4},
		{44100, 8000, 100},
		{7, 0, 7},
		{0, 0, 1},
		{-6, 4, 2},
	}
	for _, c := range cases {
		if got := gcd(c.a, c.b); got != c.want {
			t.Errorf("gcd(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestHalveRoundUp(t *testing.T) {
	cases := []struct{ in, want int }{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
	}
	for _, c := range cases {
		if got := halveRoundUp(c.in); got != c.want {
			t.Errorf("halveRoundUp(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
