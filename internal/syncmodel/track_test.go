package syncmodel

import "testing"

func TestSortClipsByTimeFallsBackToName(t *testing.T) {
	t.Parallel()

	tr := &Track{
		Clips: []*Clip{
			{Name: "b.wav"},
			{Name: "a.wav"},
		},
	}
	tr.SortClipsByTime()

	if tr.Clips[0].Name != "a.wav" || tr.Clips[1].Name != "b.wav" {
		t.Errorf("expected lexicographic fallback ordering, got %s, %s", tr.Clips[0].Name, tr.Clips[1].Name)
	}
}

func TestSortClipsByTimePrefersCreationTime(t *testing.T) {
	t.Parallel()

	tr := &Track{
		Clips: []*Clip{
			{Name: "z.wav", HasCreationTime: true, CreationTime: 200},
			{Name: "a.wav", HasCreationTime: true, CreationTime: 100},
		},
	}
	tr.SortClipsByTime()

	if tr.Clips[0].Name != "a.wav" {
		t.Errorf("expected earliest-timestamp clip first, got %s", tr.Clips[0].Name)
	}
}

func TestMetadataCoverageSpan(t *testing.T) {
	t.Parallel()

	tr := &Track{
		Clips: []*Clip{
			{HasCreationTime: true, CreationTime: 0, DurationS: 10},
			{HasCreationTime: true, CreationTime: 100, DurationS: 20},
		},
	}

	span, ok := tr.MetadataCoverageSpan()
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if want := 120.0; span != want {
		t.Errorf("expected span %g, got %g", want, span)
	}
}

func TestMetadataCoverageSpanNoTimestamps(t *testing.T) {
	t.Parallel()

	tr := &Track{Clips: []*Clip{{DurationS: 10}}}
	_, ok := tr.MetadataCoverageSpan()
	if ok {
		t.Errorf("expected ok=false when no clip has a creation time")
	}
}
