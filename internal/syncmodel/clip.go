// Package syncmodel defines the core data types shared by every stage of
// the synchronization pipeline: Clip, Track, AnalysisResult, and Config.
// Clips are created by the probe, mutated only by the placement engine, and
// consumed read-only by the stitcher.
package syncmodel

// Clip is one source media file belonging to one device.
type Clip struct {
	// Identity
	FilePath string
	Name     string

	// Immutable descriptive attributes, set at import time by the probe.
	OriginalSampleRate int
	OriginalChannels   int
	DurationS          float64
	IsVideo            bool
	CreationTime       int64 // Unix seconds; valid only when HasCreationTime is set
	HasCreationTime    bool

	// Analysis buffer: mono float32 at AnalysisRate (conf.AnalysisRate, 8000 Hz).
	Samples []float32

	// Placement attributes, mutable, written only by C5.
	TimelineOffsetSamples int64
	Confidence            float64
	Analyzed              bool
	DriftPPM              float64
	DriftRSquared         float64
	DriftCorrected        bool
}

// LengthSamples returns len(Samples) as an int64, the clip's length in
// analysis samples.
func (c *Clip) LengthSamples() int64 {
	return int64(len(c.Samples))
}

// EndSamples returns the clip's exclusive end offset on the timeline:
// TimelineOffsetSamples + LengthSamples().
func (c *Clip) EndSamples() int64 {
	return c.TimelineOffsetSamples + c.LengthSamples()
}

// MarkPlaced records a placement result and sets Analyzed, matching the
// invariant that a clip is analyzed iff its offset and confidence have been
// written.
func (c *Clip) MarkPlaced(offsetSamples int64, confidence float64) {
	c.TimelineOffsetSamples = offsetSamples
	c.Confidence = confidence
	c.Analyzed = true
}

// MarkDrift records a drift measurement. It does not itself gate on R² or
// the configured threshold — callers apply those gates before calling.
func (c *Clip) MarkDrift(driftPPM, rSquared float64) {
	c.DriftPPM = driftPPM
	c.DriftRSquared = rSquared
}
