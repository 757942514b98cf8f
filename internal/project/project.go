// Package project implements persistence of a synchronization session to a
// JSON project file. Audio buffers are never serialized: on load, every
// clip's samples are left empty for the caller to re-decode from its
// original path.
package project

import (
	"encoding/json"
	"os"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

// SchemaVersion is the current project file schema version. Loading a file
// with a newer version is rejected; older versions may be migrated in
// LoadFile as the schema evolves.
const SchemaVersion = 1

// Document is the on-disk representation of a synchronization session.
type Document struct {
	Version int           `json:"version"`
	Tracks  []TrackDoc    `json:"tracks"`
	Result  *ResultDoc    `json:"analysis_result,omitempty"`
	Config  ConfigSubset  `json:"config"`
}

// TrackDoc is one device's persisted clip list.
type TrackDoc struct {
	Name        string    `json:"name"`
	IsReference bool      `json:"is_reference"`
	Clips       []ClipDoc `json:"clips"`
}

// ClipDoc is one clip's persisted identity, descriptive attributes, and
// placement result. The analysis buffer (Clip.Samples) is intentionally
// absent.
type ClipDoc struct {
	FilePath string `json:"file_path"`
	Name     string `json:"name"`

	DurationS        float64 `json:"duration_s"`
	OriginalSR       int     `json:"original_sr"`
	OriginalChannels int     `json:"original_channels"`
	IsVideo          bool    `json:"is_video"`
	CreationTime     int64   `json:"creation_time,omitempty"`

	TimelineOffsetS       float64 `json:"timeline_offset_s"`
	TimelineOffsetSamples int64   `json:"timeline_offset_samples"`
	Confidence            float64 `json:"confidence"`
	Analyzed              bool    `json:"analyzed"`

	DriftPPM      float64 `json:"drift_ppm,omitempty"`
	DriftRSquared float64 `json:"drift_r_squared,omitempty"`
}

// ResultDoc is the persisted projection of syncmodel.AnalysisResult.
type ResultDoc struct {
	ReferenceTrackIndex int              `json:"reference_track_index"`
	TotalTimelineSamples int64           `json:"total_timeline_samples"`
	TotalTimelineS       float64         `json:"total_timeline_s"`
	SampleRate           int             `json:"sample_rate"`
	ClipOffsets          map[string]int64 `json:"clip_offsets"`
	AvgConfidence        float64         `json:"avg_confidence"`
	Warnings             []string        `json:"warnings,omitempty"`
}

// ConfigSubset is the persisted slice of syncmodel.Config: only the fields
// relevant to reproducing an export. DriftCorrection and
// DriftThresholdPPM are engine run parameters, not export parameters, so
// they are not round-tripped here.
type ConfigSubset struct {
	MaxOffsetS       float64 `json:"max_offset_s"`
	ExportFormat     string  `json:"export_format"`
	ExportBitDepth   int     `json:"export_bit_depth"`
	ExportSampleRate int     `json:"export_sr"`
	CrossfadeMs      int     `json:"crossfade_ms"`
}

// FromSession builds a Document from in-memory tracks, an optional result,
// and the active config.
func FromSession(tracks []*syncmodel.Track, result *syncmodel.AnalysisResult, cfg syncmodel.Config) *Document {
	doc := &Document{
		Version: SchemaVersion,
		Tracks:  make([]TrackDoc, 0, len(tracks)),
		Config: ConfigSubset{
			MaxOffsetS:       cfg.MaxOffsetS,
			ExportFormat:     cfg.ExportFormat,
			ExportBitDepth:   cfg.ExportBitDepth,
			ExportSampleRate: cfg.ExportSampleRate,
			CrossfadeMs:      cfg.CrossfadeMs,
		},
	}

	for _, t := range tracks {
		td := TrackDoc{Name: t.Name, IsReference: t.IsReference}
		for _, c := range t.Clips {
			td.Clips = append(td.Clips, ClipDoc{
				FilePath:              c.FilePath,
				Name:                  c.Name,
				DurationS:             c.DurationS,
				OriginalSR:            c.OriginalSampleRate,
				OriginalChannels:      c.OriginalChannels,
				IsVideo:               c.IsVideo,
				CreationTime:          c.CreationTime,
				TimelineOffsetS:       float64(c.TimelineOffsetSamples) / float64(resultSampleRate(result)),
				TimelineOffsetSamples: c.TimelineOffsetSamples,
				Confidence:            c.Confidence,
				Analyzed:              c.Analyzed,
				DriftPPM:              c.DriftPPM,
				DriftRSquared:         c.DriftRSquared,
			})
		}
		doc.Tracks = append(doc.Tracks, td)
	}

	if result != nil {
		doc.Result = &ResultDoc{
			ReferenceTrackIndex:  result.ReferenceTrackIndex,
			TotalTimelineSamples: result.TotalTimelineSamples,
			TotalTimelineS:       result.TotalTimelineS,
			SampleRate:           result.SampleRate,
			ClipOffsets:          result.ClipOffsets,
			AvgConfidence:        result.AvgConfidence,
			Warnings:             result.Warnings,
		}
	}

	return doc
}

func resultSampleRate(result *syncmodel.AnalysisResult) int {
	if result == nil || result.SampleRate == 0 {
		return 1
	}
	return result.SampleRate
}

// ToSession reconstructs tracks, an optional result, and a config from a
// Document. Clip.Samples is left nil; callers must re-decode it via the
// probe loader before running the placement engine or stitcher again.
func (d *Document) ToSession() ([]*syncmodel.Track, *syncmodel.AnalysisResult, syncmodel.Config) {
	tracks := make([]*syncmodel.Track, 0, len(d.Tracks))
	for _, td := range d.Tracks {
		track := &syncmodel.Track{Name: td.Name, IsReference: td.IsReference}
		for _, cd := range td.Clips {
			track.Clips = append(track.Clips, &syncmodel.Clip{
				FilePath:              cd.FilePath,
				Name:                  cd.Name,
				DurationS:             cd.DurationS,
				OriginalSampleRate:    cd.OriginalSR,
				OriginalChannels:      cd.OriginalChannels,
				IsVideo:               cd.IsVideo,
				CreationTime:          cd.CreationTime,
				HasCreationTime:       cd.CreationTime != 0,
				TimelineOffsetSamples: cd.TimelineOffsetSamples,
				Confidence:            cd.Confidence,
				Analyzed:              cd.Analyzed,
				DriftPPM:              cd.DriftPPM,
				DriftRSquared:         cd.DriftRSquared,
			})
		}
		tracks = append(tracks, track)
	}

	var result *syncmodel.AnalysisResult
	if d.Result != nil {
		result = &syncmodel.AnalysisResult{
			ReferenceTrackIndex:  d.Result.ReferenceTrackIndex,
			TotalTimelineSamples: d.Result.TotalTimelineSamples,
			TotalTimelineS:       d.Result.TotalTimelineS,
			SampleRate:           d.Result.SampleRate,
			ClipOffsets:          d.Result.ClipOffsets,
			AvgConfidence:        d.Result.AvgConfidence,
			Warnings:             d.Result.Warnings,
		}
		if result.ClipOffsets == nil {
			result.ClipOffsets = make(map[string]int64)
		}
	}

	cfg := syncmodel.Config{
		MaxOffsetS:       d.Config.MaxOffsetS,
		ExportFormat:     d.Config.ExportFormat,
		ExportBitDepth:   d.Config.ExportBitDepth,
		ExportSampleRate: d.Config.ExportSampleRate,
		CrossfadeMs:      d.Config.CrossfadeMs,
	}

	return tracks, result, cfg
}

// SaveFile writes doc as indented JSON to path.
func SaveFile(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.New(err).
			Component("project").
			Category(errors.CategoryProject).
			Context("operation", "marshal_project").
			Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(err).
			Component("project").
			Category(errors.CategoryFileIO).
			Context("operation", "write_project_file").
			Context("path", path).
			Build()
	}
	return nil
}

// LoadFile reads and parses a project file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("project").
			Category(errors.CategoryFileIO).
			Context("operation", "read_project_file").
			Context("path", path).
			Build()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(err).
			Component("project").
			Category(errors.CategoryProject).
			Context("operation", "unmarshal_project").
			Context("path", path).
			Build()
	}

	if doc.Version > SchemaVersion {
		return nil, errors.Newf("project file schema version %d is newer than supported version %d", doc.Version, SchemaVersion).
			Component("project").
			Category(errors.CategoryProject).
			Context("path", path).
			Build()
	}

	return &doc, nil
}
