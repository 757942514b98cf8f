package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/audiosync/internal/syncmodel"
)

func sampleTracks() []*syncmodel.Track {
	return []*syncmodel.Track{
		{
			Name:        "camA",
			IsReference: true,
			Clips: []*syncmodel.Clip{
				{FilePath: "/media/a1.wav", Name: "a1", DurationS: 5, OriginalSampleRate: 48000, OriginalChannels: 2, Analyzed: true, Confidence: 100},
			},
		},
		{
			Name: "camB",
			Clips: []*syncmodel.Clip{
				{FilePath: "/media/b1.wav", Name: "b1", DurationS: 5, OriginalSampleRate: 48000, OriginalChannels: 2, TimelineOffsetSamples: 4000, Analyzed: true, Confidence: 12.5},
			},
		},
	}
}

func TestFromSessionAndToSessionRoundTripsClipFields(t *testing.T) {
	tracks := sampleTracks()
	result := syncmodel.NewAnalysisResult()
	result.SampleRate = 8000
	result.ClipOffsets["/media/b1.wav"] = 4000
	result.AvgConfidence = 56.25

	cfg := syncmodel.Config{MaxOffsetS: 10, ExportFormat: "wav", ExportBitDepth: 24, ExportSampleRate: 48000, CrossfadeMs: 50}

	doc := FromSession(tracks, result, cfg)
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Len(t, doc.Tracks, 2)

	gotTracks, gotResult, gotCfg := doc.ToSession()
	require.Len(t, gotTracks, 2)
	require.Len(t, gotTracks[1].Clips, 1)
	assert.Equal(t, int64(4000), gotTracks[1].Clips[0].TimelineOffsetSamples)

	require.NotNil(t, gotResult)
	assert.InDelta(t, 56.25, gotResult.AvgConfidence, 1e-9)

	assert.Equal(t, "wav", gotCfg.ExportFormat)
	assert.Equal(t, 50, gotCfg.CrossfadeMs)
}

func TestSaveFileAndLoadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	doc := FromSession(sampleTracks(), nil, syncmodel.Config{ExportFormat: "flac"})
	require.NoError(t, SaveFile(path, doc))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "flac", loaded.Config.ExportFormat)
	assert.Len(t, loaded.Tracks, 2)
}

func TestLoadFileRejectsNewerSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "future.json")

	doc := &Document{Version: SchemaVersion + 1}
	require.NoError(t, SaveFile(path, doc))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/session.json")
	assert.Error(t, err)
}
