package reference

import (
	"testing"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

func makeClip(name string, samples int, creationTime int64, hasTime bool) *syncmodel.Clip {
	return &syncmodel.Clip{
		Name:            name,
		Samples:         make([]float32, samples),
		DurationS:       float64(samples) / conf.AnalysisRate,
		CreationTime:    creationTime,
		HasCreationTime: hasTime,
	}
}

func TestBuildPinsFirstClipAtZero(t *testing.T) {
	track := &syncmodel.Track{
		Name:  "A",
		Clips: []*syncmodel.Clip{makeClip("a1", 1000, 0, true)},
	}

	buf := Build(track)

	if track.Clips[0].TimelineOffsetSamples != 0 {
		t.Fatalf("expected first clip at offset 0, got %d", track.Clips[0].TimelineOffsetSamples)
	}
	if track.Clips[0].Confidence != referenceConfidence {
		t.Fatalf("expected confidence %v, got %v", referenceConfidence, track.Clips[0].Confidence)
	}
	if !track.Clips[0].Analyzed {
		t.Fatal("expected reference clip to be marked analyzed")
	}
	if len(buf) != 1000 {
		t.Fatalf("expected buffer length 1000, got %d", len(buf))
	}
}

func TestBuildUsesMetadataGapBetweenSequentialClips(t *testing.T) {
	// Clip 1: 0-1s (8000 samples), creation_time=0
	// Clip 2: creation_time=2 -> gap = 2 - (0+1) = 1s = 8000 samples
	track := &syncmodel.Track{
		Name: "A",
		Clips: []*syncmodel.Clip{
			makeClip("a1", conf.AnalysisRate, 0, true),
			makeClip("a2", conf.AnalysisRate, 2, true),
		},
	}

	Build(track)

	wantOffset := int64(conf.AnalysisRate) + int64(conf.AnalysisRate) // clip1 length + 1s gap
	if track.Clips[1].TimelineOffsetSamples != wantOffset {
		t.Fatalf("expected offset %d, got %d", wantOffset, track.Clips[1].TimelineOffsetSamples)
	}
}

func TestBuildNegativeGapGuard(t *testing.T) {
	// Two clips with identical creation_time: clip2's nominal gap is
	// negative (clip1 overruns clip2's stated start) and must clamp to 0.
	track := &syncmodel.Track{
		Name: "A",
		Clips: []*syncmodel.Clip{
			makeClip("a1", conf.AnalysisRate, 100, true),
			makeClip("a2", conf.AnalysisRate, 100, true),
		},
	}

	Build(track)

	wantOffset := int64(conf.AnalysisRate) // back-to-back, zero gap
	if track.Clips[1].TimelineOffsetSamples != wantOffset {
		t.Fatalf("expected back-to-back offset %d, got %d", wantOffset, track.Clips[1].TimelineOffsetSamples)
	}
}

func TestBuildDefaultGapWhenTimestampsMissing(t *testing.T) {
	track := &syncmodel.Track{
		Name: "A",
		Clips: []*syncmodel.Clip{
			makeClip("a1", conf.AnalysisRate, 0, false),
			makeClip("a2", conf.AnalysisRate, 0, false),
		},
	}

	Build(track)

	wantGapSamples := int64(defaultGapSeconds * conf.AnalysisRate)
	wantOffset := int64(conf.AnalysisRate) + wantGapSamples
	if track.Clips[1].TimelineOffsetSamples != wantOffset {
		t.Fatalf("expected default-gap offset %d, got %d", wantOffset, track.Clips[1].TimelineOffsetSamples)
	}
}

func TestSelectReferenceTrackExplicitFlagWins(t *testing.T) {
	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{makeClip("a1", 100, 0, true)}}
	b := &syncmodel.Track{Name: "B", IsReference: true, Clips: []*syncmodel.Clip{makeClip("b1", 100, 0, true)}}

	chosen := SelectReferenceTrack([]*syncmodel.Track{a, b})
	if chosen != b {
		t.Fatalf("expected track B (explicit is_reference) to be chosen")
	}
}

func TestSelectReferenceTrackWidestMetadataSpan(t *testing.T) {
	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{
		makeClip("a1", conf.AnalysisRate, 0, true),
	}}
	b := &syncmodel.Track{Name: "B", Clips: []*syncmodel.Clip{
		makeClip("b1", conf.AnalysisRate, 0, true),
		makeClip("b2", conf.AnalysisRate, 100, true),
	}}

	chosen := SelectReferenceTrack([]*syncmodel.Track{a, b})
	if chosen != b {
		t.Fatal("expected track B (widest metadata coverage span) to be chosen")
	}
	if !b.IsReference {
		t.Fatal("expected chosen track's IsReference flag to be set")
	}
}

func TestSelectReferenceTrackFallsBackToTotalDuration(t *testing.T) {
	a := &syncmodel.Track{Name: "A", Clips: []*syncmodel.Clip{makeClip("a1", conf.AnalysisRate, 0, false)}}
	b := &syncmodel.Track{Name: "B", Clips: []*syncmodel.Clip{makeClip("b1", 3*conf.AnalysisRate, 0, false)}}

	chosen := SelectReferenceTrack([]*syncmodel.Track{a, b})
	if chosen != b {
		t.Fatal("expected track B (greatest total duration) to be chosen when no metadata exists")
	}
}
