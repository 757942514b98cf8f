package stitch

import (
	"math"
	"testing"

	"github.com/tphakala/audiosync/internal/syncmodel"
)

func TestReshapeChannelsMonoFromStereo(t *testing.T) {
	// 2 frames, stereo: (1,-1), (0.5,0.5)
	interleaved := []float32{1, -1, 0.5, 0.5}
	out := reshapeChannels(interleaved, 2, 1)

	want := []float32{0, 0.5}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("frame %d: want %v got %v", i, want[i], out[i])
		}
	}
}

func TestReshapeChannelsStereoFromMono(t *testing.T) {
	interleaved := []float32{0.3, 0.6}
	out := reshapeChannels(interleaved, 1, 2)

	want := []float32{0.3, 0.3, 0.6, 0.6}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: want %v got %v", i, want[i], out[i])
		}
	}
}

func TestReshapeChannelsZeroPadTrailing(t *testing.T) {
	interleaved := []float32{1, 2, 3, 4} // 2 stereo frames padded to 3 channels
	out := reshapeChannels(interleaved, 2, 3)
	if len(out) != 6 {
		t.Fatalf("expected 6 samples (2 frames x 3 channels), got %d", len(out))
	}
}

func TestShouldApplyDriftGates(t *testing.T) {
	clip := &syncmodel.Clip{DriftPPM: 10, DriftRSquared: 0.9}
	cfg := syncmodel.Config{DriftCorrection: true, DriftThresholdPPM: 1}
	if !shouldApplyDrift(clip, cfg) {
		t.Fatal("expected drift correction to apply when all gates pass")
	}

	cfgDisabled := syncmodel.Config{DriftCorrection: false, DriftThresholdPPM: 1}
	if shouldApplyDrift(clip, cfgDisabled) {
		t.Fatal("expected no drift correction when DriftCorrection is false")
	}

	weakFit := &syncmodel.Clip{DriftPPM: 10, DriftRSquared: 0.3}
	if shouldApplyDrift(weakFit, cfg) {
		t.Fatal("expected no drift correction when R-squared below threshold")
	}
}

func TestDriftCorrectShortensFastClip(t *testing.T) {
	const frames = 8000
	channels := 1
	interleaved := make([]float32, frames)
	for i := range interleaved {
		interleaved[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / frames))
	}

	out := driftCorrect(interleaved, channels, 100) // +100ppm: clip ran fast, compress
	wantFrames := int(math.Round(float64(frames) / (1 + 100*1e-6)))

	if len(out) != wantFrames {
		t.Fatalf("expected corrected length %d, got %d", wantFrames, len(out))
	}
}

func TestMixIntoAveragesNonSilentCopiesSilent(t *testing.T) {
	buf := &Buffer{Samples: make([]float64, 4), Channels: 1}
	buf.Samples[1] = 1.0 // pre-existing non-silent content at frame 1

	reshaped := []float32{0.5, 0.5} // two frames to mix starting at frame 0

	mixInto(buf, reshaped, 0, 2, 1)

	if buf.Samples[0] != 0.5 {
		t.Errorf("expected copy into silent slot, got %v", buf.Samples[0])
	}
	if buf.Samples[1] != 0.75 {
		t.Errorf("expected average (1.0+0.5)/2=0.75, got %v", buf.Samples[1])
	}
}

func TestMaxOriginalChannels(t *testing.T) {
	track := &syncmodel.Track{Clips: []*syncmodel.Clip{
		{OriginalChannels: 1},
		{OriginalChannels: 2},
		{OriginalChannels: 1},
	}}
	if got := maxOriginalChannels(track); got != 2 {
		t.Fatalf("expected max channels 2, got %d", got)
	}
}
