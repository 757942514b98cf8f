package export

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/stitch"
)

// WAVExporter writes PCM_16, PCM_24, or 32-bit IEEE float WAV files directly
// in Go, with no external process involved.
type WAVExporter struct{}

// NewWAVExporter creates a new WAV exporter.
func NewWAVExporter() *WAVExporter {
	return &WAVExporter{}
}

func (w *WAVExporter) ValidateConfig(config *Config) error {
	if err := ValidateConfig(config); err != nil {
		return err
	}
	if config.Format != FormatWAV {
		return errors.Newf("WAV exporter only supports wav format, got %s", config.Format).
			Component("export").
			Category(errors.CategoryValidation).
			Context("format", string(config.Format)).
			Build()
	}
	switch config.BitDepth {
	case 16, 24, 32:
	default:
		return errors.Newf("unsupported WAV bit depth: %d", config.BitDepth).
			Component("export").
			Category(errors.CategoryValidation).
			Context("bit_depth", config.BitDepth).
			Build()
	}
	return nil
}

func (w *WAVExporter) SupportedFormats() []Format { return []Format{FormatWAV} }

// ExportTrack writes buf to an atomically-renamed WAV file under
// config.OutputPath.
func (w *WAVExporter) ExportTrack(ctx context.Context, buf *stitch.Buffer, sampleRate int, trackName string, config *Config) (string, error) {
	if err := w.ValidateConfig(config); err != nil {
		return "", err
	}

	fileName := GenerateFileName(config.FileNameTemplate, trackName, time.Now(), FormatWAV)
	filePath := filepath.Join(config.OutputPath, fileName)

	if err := os.MkdirAll(config.OutputPath, 0o755); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_export_directory").
			Context("path", config.OutputPath).
			Build()
	}

	tempPath := filePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_temp_file").
			Context("path", tempPath).
			Build()
	}

	success := false
	defer func() {
		_ = file.Close()
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	if err := w.writeWAV(ctx, file, buf, sampleRate, config.BitDepth); err != nil {
		return "", err
	}

	if err := file.Close(); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "close_temp_file").
			Build()
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "rename_export_file").
			Context("from", tempPath).
			Context("to", filePath).
			Build()
	}

	success = true
	return filePath, nil
}

func (w *WAVExporter) writeWAV(ctx context.Context, writer io.Writer, buf *stitch.Buffer, sampleRate, bitDepth int) error {
	select {
	case <-ctx.Done():
		return errors.New(ctx.Err()).
			Component("export").
			Category(errors.CategoryCancellation).
			Context("operation", "wav_export_cancelled").
			Build()
	default:
	}

	pcm := encodePCM(buf.Samples, bitDepth)

	audioFormatCode := uint16(1) // PCM
	if bitDepth == 32 {
		audioFormatCode = 3 // IEEE float
	}

	byteRate := sampleRate * buf.Channels * (bitDepth / 8)
	blockAlign := buf.Channels * (bitDepth / 8)
	subChunk2Size := uint32(len(pcm))
	chunkSize := 36 + subChunk2Size

	header := bytes.NewBuffer(nil)
	elements := []interface{}{
		[]byte("RIFF"),
		chunkSize,
		[]byte("WAVE"),
		[]byte("fmt "),
		uint32(16),
		audioFormatCode,
		uint16(buf.Channels),
		uint32(sampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(bitDepth),
		[]byte("data"),
		subChunk2Size,
	}
	for _, elem := range elements {
		if b, ok := elem.([]byte); ok {
			if _, err := header.Write(b); err != nil {
				return errors.New(err).Component("export").Category(errors.CategorySystem).Build()
			}
			continue
		}
		if err := binary.Write(header, binary.LittleEndian, elem); err != nil {
			return errors.New(err).Component("export").Category(errors.CategorySystem).Build()
		}
	}

	if _, err := writer.Write(header.Bytes()); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "write_wav_header").
			Build()
	}
	if _, err := writer.Write(pcm); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "write_wav_pcm_data").
			Build()
	}
	return nil
}

// encodePCM clips every sample to [-1, 1] exactly once, then quantizes to
// the requested bit depth, little-endian.
func encodePCM(samples []float64, bitDepth int) []byte {
	switch bitDepth {
	case 32:
		out := make([]byte, len(samples)*4)
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(clipSample(s))))
		}
		return out
	case 24:
		out := make([]byte, len(samples)*3)
		for i, s := range samples {
			v := int32(math.Round(clipSample(s) * 8388607.0))
			out[i*3] = byte(v)
			out[i*3+1] = byte(v >> 8)
			out[i*3+2] = byte(v >> 16)
		}
		return out
	default: // 16
		out := make([]byte, len(samples)*2)
		for i, s := range samples {
			v := int16(math.Round(clipSample(s) * 32767.0))
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out
	}
}
