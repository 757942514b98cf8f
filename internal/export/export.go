// Package export implements the encoding half of the Stitcher (C6): turning
// a dense stitch.Buffer into an on-disk audio file in the project's
// configured output format.
package export

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/stitch"
)

// Format identifies an output container/codec.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatAIFF Format = "aiff"
	FormatMP3  Format = "mp3"
	FormatFLAC Format = "flac"
)

// Config controls a single export operation.
type Config struct {
	Format           Format
	OutputPath       string // directory the file is written into
	FileNameTemplate string // supports {name}, {timestamp}

	BitDepth   int    // 16, 24, or 32 (32 means IEEE float); ignored for mp3/flac
	MP3Bitrate int    // kbps; only meaningful when Format == FormatMP3
	FFmpegPath string // required for mp3/flac

	Timeout time.Duration
}

// Exporter encodes a track's stitched buffer to a file.
type Exporter interface {
	ExportTrack(ctx context.Context, buf *stitch.Buffer, sampleRate int, trackName string, config *Config) (string, error)
	ValidateConfig(config *Config) error
	SupportedFormats() []Format
}

// DefaultConfig returns the engine's baked-in export defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:           FormatWAV,
		OutputPath:       "export/",
		FileNameTemplate: "{name}_{timestamp}",
		BitDepth:         16,
		MP3Bitrate:       192,
		Timeout:          2 * time.Minute,
	}
}

// ValidateConfig validates fields common to every exporter.
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.Newf("export config is nil").
			Component("export").
			Category(errors.CategoryValidation).
			Build()
	}
	if !IsValidFormat(config.Format) {
		return errors.Newf("invalid export format: %s", config.Format).
			Component("export").
			Category(errors.CategoryValidation).
			Context("format", string(config.Format)).
			Build()
	}
	if config.OutputPath == "" {
		return errors.Newf("export output path is empty").
			Component("export").
			Category(errors.CategoryValidation).
			Build()
	}
	if config.FileNameTemplate == "" {
		return errors.Newf("export file name template is empty").
			Component("export").
			Category(errors.CategoryValidation).
			Build()
	}
	if requiresFFmpeg(config.Format) && config.FFmpegPath == "" {
		return errors.Newf("FFmpeg path required for format: %s", config.Format).
			Component("export").
			Category(errors.CategoryConfiguration).
			Context("format", string(config.Format)).
			Build()
	}
	if config.Timeout <= 0 {
		return errors.Newf("invalid export timeout: %v", config.Timeout).
			Component("export").
			Category(errors.CategoryValidation).
			Context("timeout", config.Timeout.String()).
			Build()
	}
	return nil
}

// IsValidFormat reports whether format is one this package supports.
func IsValidFormat(format Format) bool {
	switch format {
	case FormatWAV, FormatAIFF, FormatMP3, FormatFLAC:
		return true
	default:
		return false
	}
}

// requiresFFmpeg reports whether format is written through the external
// ffmpeg encoder rather than a native encoder in this package. FLAC is
// lossless but goes through the same ffmpeg subprocess path as MP3
// (see ffmpeg.go), so it needs FFmpegPath configured too.
func requiresFFmpeg(format Format) bool {
	return format == FormatMP3 || format == FormatFLAC
}

// GenerateFileName expands a file name template and appends the format's
// extension.
func GenerateFileName(template, trackName string, timestamp time.Time, format Format) string {
	name := template
	name = strings.ReplaceAll(name, "{name}", trackName)
	name = strings.ReplaceAll(name, "{date}", timestamp.Format("2006-01-02"))
	name = strings.ReplaceAll(name, "{time}", timestamp.Format("15-04-05"))
	name = strings.ReplaceAll(name, "{timestamp}", timestamp.Format("20060102_150405"))
	name = name + "." + string(format)
	return filepath.Clean(name)
}

// clipSample clamps a float64 sample to [-1, 1], applied exactly once at
// encode time regardless of how many clips were averaged into it upstream.
func clipSample(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
