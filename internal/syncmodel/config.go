package syncmodel

// Config holds the user parameters consumed by the placement engine (C5)
// and the stitcher (C6). It is the in-pipeline projection of
// conf.SyncConfig + conf.ExportConfig — the engine's own config package
// loads those from YAML/env, then narrows them to this shape before handing
// them to C5/C6 so those packages stay independent of viper.
type Config struct {
	// MaxOffsetS caps the correlation search window symmetrically around
	// zero delay. Zero means unbounded.
	MaxOffsetS float64

	// ExportFormat is one of "wav", "aiff", "mp3", "flac".
	ExportFormat string
	// ExportBitDepth is 16, 24, or 32; ignored for mp3/flac.
	ExportBitDepth int
	// ExportMP3Bitrate is in kbps; only meaningful when ExportFormat == "mp3".
	ExportMP3Bitrate int
	// ExportSampleRate is the output rate; 0 means auto = max of original
	// rates across all clips.
	ExportSampleRate int
	// CrossfadeMs is carried for project-file round-tripping; the stitcher
	// does not currently apply crossfading between clips.
	CrossfadeMs int

	DriftCorrection   bool
	DriftThresholdPPM float64
}
