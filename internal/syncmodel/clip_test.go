package syncmodel

import "testing"

func TestClipEndSamples(t *testing.T) {
	t.Parallel()

	c := &Clip{
		Samples:               make([]float32, 8000),
		TimelineOffsetSamples: 1000,
	}

	if got, want := c.LengthSamples(), int64(8000); got != want {
		t.Errorf("LengthSamples() = %d, want %d", got, want)
	}
	if got, want := c.EndSamples(), int64(9000); got != want {
		t.Errorf("EndSamples() = %d, want %d", got, want)
	}
}

func TestClipMarkPlacedSetsAnalyzed(t *testing.T) {
	t.Parallel()

	c := &Clip{}
	if c.Analyzed {
		t.Fatalf("new clip should not be analyzed")
	}

	c.MarkPlaced(4000, 5.2)

	if !c.Analyzed {
		t.Errorf("expected Analyzed to be true after MarkPlaced")
	}
	if c.TimelineOffsetSamples != 4000 {
		t.Errorf("expected offset 4000, got %d", c.TimelineOffsetSamples)
	}
	if c.Confidence != 5.2 {
		t.Errorf("expected confidence 5.2, got %g", c.Confidence)
	}
}
