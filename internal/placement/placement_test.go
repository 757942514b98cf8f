package placement

import (
	"context"
	"math"
	"testing"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

func sineWave(freqHz float64, durationS float64, phaseSamples int) []float32 {
	n := int(durationS * conf.AnalysisRate)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		t := float64(i-phaseSamples) / conf.AnalysisRate
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * t))
	}
	return out
}

func clipFrom(name string, samples []float32, creationTime int64) *syncmodel.Clip {
	return &syncmodel.Clip{
		FilePath:        "/media/" + name,
		Name:            name,
		Samples:         samples,
		DurationS:       float64(len(samples)) / conf.AnalysisRate,
		CreationTime:    creationTime,
		HasCreationTime: true,
	}
}

func TestRunRejectsFewerThanTwoClips(t *testing.T) {
	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{clipFrom("a1", sineWave(440, 1, 0), 0)}}

	_, err := Run(context.Background(), []*syncmodel.Track{a}, syncmodel.Config{}, nil)
	if err == nil {
		t.Fatal("expected NotEnoughData error with a single clip")
	}
}

func TestRunTwoDevicesOffsetContent(t *testing.T) {
	const offsetSamples = 2000 // 250ms at 8kHz

	base := sineWave(300, 5, 0)
	// B's recording started offsetSamples later in the same absolute
	// timeline, so its content is the continuation of the same waveform.
	shifted := sineWave(300, 5, -offsetSamples)

	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{clipFrom("a1", base, 0)}}
	b := &syncmodel.Track{Name: "B", Clips: []*syncmodel.Clip{clipFrom("b1", shifted, 0)}}

	result, err := Run(context.Background(), []*syncmodel.Track{a, b}, syncmodel.Config{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ReferenceTrackIndex != 0 && result.ReferenceTrackIndex != 1 {
		t.Fatalf("unexpected reference index %d", result.ReferenceTrackIndex)
	}

	// Whichever track became reference, the other's clip should have been
	// placed (analyzed, non-negative offset within the timeline).
	for _, track := range []*syncmodel.Track{a, b} {
		for _, clip := range track.Clips {
			if !clip.Analyzed {
				t.Fatalf("expected clip %s to be analyzed", clip.Name)
			}
			if clip.TimelineOffsetSamples < 0 {
				t.Fatalf("expected non-negative offset after normalization, got %d", clip.TimelineOffsetSamples)
			}
		}
	}
}

func TestRunReferenceClipsGetFullConfidence(t *testing.T) {
	a := &syncmodel.Track{Name: "A", IsReference: true, Clips: []*syncmodel.Clip{clipFrom("a1", sineWave(440, 2, 0), 0)}}
	b := &syncmodel.Track{Name: "B", Clips: []*syncmodel.Clip{clipFrom("b1", sineWave(440, 2, 0), 0)}}

	_, err := Run(context.Background(), []*syncmodel.Track{a, b}, syncmodel.Config{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Clips[0].Confidence != 100.0 {
		t.Fatalf("expected reference clip confidence 100, got %v", a.Clips[0].Confidence)
	}
}

func TestRunCancellationMidPass1(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{clipFrom("a1", sineWave(440, 1, 0), 0)}}
	b := &syncmodel.Track{Name: "B", Clips: []*syncmodel.Clip{clipFrom("b1", sineWave(440, 1, 0), 0)}}

	_, err := Run(ctx, []*syncmodel.Track{a, b}, syncmodel.Config{}, nil)
	if err == nil {
		t.Fatal("expected Cancelled error")
	}
}

func TestNormalizeShiftsNegativeOffsets(t *testing.T) {
	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{clipFrom("a1", sineWave(440, 1, 0), 0)}}
	a.Clips[0].TimelineOffsetSamples = -500

	result := syncmodel.NewAnalysisResult()
	normalize([]*syncmodel.Track{a}, result)

	if a.Clips[0].TimelineOffsetSamples != 0 {
		t.Fatalf("expected shifted offset 0, got %d", a.Clips[0].TimelineOffsetSamples)
	}
}
