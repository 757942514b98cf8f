package syncmodel

// AnalysisResult is the output of the placement engine (C5): the resolved
// timeline geometry for one synchronization run.
type AnalysisResult struct {
	ReferenceTrackIndex int
	TotalTimelineSamples int64
	TotalTimelineS       float64
	SampleRate           int // always conf.AnalysisRate

	// ClipOffsets maps a clip's file path to its final timeline offset in
	// analysis samples, after normalization.
	ClipOffsets map[string]int64

	AvgConfidence float64
	DriftDetected bool
	Warnings      []string
}

// NewAnalysisResult returns a zero-value AnalysisResult with its map
// initialized, ready to be populated by the placement engine.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		ClipOffsets: make(map[string]int64),
	}
}

// AddWarning appends a human-readable warning. Callers are responsible for
// deduplication where needed (see placement's warning-dedup
// ordering rule).
func (r *AnalysisResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
