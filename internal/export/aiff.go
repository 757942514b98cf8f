package export

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/stitch"
)

// AIFFExporter writes big-endian PCM_16/PCM_24 AIFF files, generalized from
// the same atomic-write WAV pattern.
type AIFFExporter struct{}

func NewAIFFExporter() *AIFFExporter {
	return &AIFFExporter{}
}

func (a *AIFFExporter) ValidateConfig(config *Config) error {
	if err := ValidateConfig(config); err != nil {
		return err
	}
	if config.Format != FormatAIFF {
		return errors.Newf("AIFF exporter only supports aiff format, got %s", config.Format).
			Component("export").
			Category(errors.CategoryValidation).
			Context("format", string(config.Format)).
			Build()
	}
	switch config.BitDepth {
	case 16, 24:
	default:
		return errors.Newf("unsupported AIFF bit depth: %d", config.BitDepth).
			Component("export").
			Category(errors.CategoryValidation).
			Context("bit_depth", config.BitDepth).
			Build()
	}
	return nil
}

func (a *AIFFExporter) SupportedFormats() []Format { return []Format{FormatAIFF} }

func (a *AIFFExporter) ExportTrack(ctx context.Context, buf *stitch.Buffer, sampleRate int, trackName string, config *Config) (string, error) {
	if err := a.ValidateConfig(config); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", errors.New(ctx.Err()).
			Component("export").
			Category(errors.CategoryCancellation).
			Context("operation", "aiff_export_cancelled").
			Build()
	default:
	}

	fileName := GenerateFileName(config.FileNameTemplate, trackName, time.Now(), FormatAIFF)
	filePath := filepath.Join(config.OutputPath, fileName)

	if err := os.MkdirAll(config.OutputPath, 0o755); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_export_directory").
			Context("path", config.OutputPath).
			Build()
	}

	pcm := encodePCMBigEndian(buf.Samples, config.BitDepth)
	data, err := a.encodeAIFF(pcm, buf.Channels, sampleRate, config.BitDepth, len(buf.Samples)/buf.Channels)
	if err != nil {
		return "", err
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "write_temp_file").
			Context("path", tempPath).
			Build()
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "rename_export_file").
			Context("from", tempPath).
			Context("to", filePath).
			Build()
	}

	return filePath, nil
}

// encodeAIFF builds FORM/COMM/SSND chunks. SampleRate is encoded as an
// 80-bit IEEE-754 extended float, AIFF's native representation.
func (a *AIFFExporter) encodeAIFF(pcm []byte, channels, sampleRate, bitDepth, numFrames int) ([]byte, error) {
	commSize := uint32(18)
	ssndSize := uint32(8 + len(pcm))
	formSize := uint32(4) + (8 + commSize) + (8 + ssndSize)

	buf := bytes.NewBuffer(nil)
	writeChunkID := func(id string) error {
		_, err := buf.Write([]byte(id))
		return err
	}

	if err := writeChunkID("FORM"); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, formSize); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := writeChunkID("AIFF"); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}

	if err := writeChunkID("COMM"); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, commSize); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(channels)); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(numFrames)); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(bitDepth)); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if _, err := buf.Write(extendedFloat80(float64(sampleRate))); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}

	if err := writeChunkID("SSND"); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, ssndSize); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(0)); err != nil { // offset
		return nil, wrapAIFFWriteErr(err)
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(0)); err != nil { // block size
		return nil, wrapAIFFWriteErr(err)
	}
	if _, err := buf.Write(pcm); err != nil {
		return nil, wrapAIFFWriteErr(err)
	}

	return buf.Bytes(), nil
}

func wrapAIFFWriteErr(err error) error {
	return errors.New(err).
		Component("export").
		Category(errors.CategorySystem).
		Context("operation", "write_aiff_chunk").
		Build()
}

// extendedFloat80 encodes v as an IEEE-754 80-bit extended precision float,
// big-endian, as required by AIFF's COMM chunk sample rate field.
func extendedFloat80(v float64) []byte {
	out := make([]byte, 10)
	if v == 0 {
		return out
	}
	sign := uint16(0)
	if v < 0 {
		sign = 0x8000
		v = -v
	}
	exp := 0
	for v >= 2 {
		v /= 2
		exp++
	}
	for v < 1 {
		v *= 2
		exp--
	}
	exp += 16383
	mantissa := uint64(v * (1 << 63))

	binary.BigEndian.PutUint16(out[0:2], sign|uint16(exp))
	binary.BigEndian.PutUint64(out[2:10], mantissa)
	return out
}

func encodePCMBigEndian(samples []float64, bitDepth int) []byte {
	switch bitDepth {
	case 24:
		out := make([]byte, len(samples)*3)
		for i, s := range samples {
			v := int32(math.Round(clipSample(s) * 8388607.0))
			out[i*3] = byte(v >> 16)
			out[i*3+1] = byte(v >> 8)
			out[i*3+2] = byte(v)
		}
		return out
	default: // 16
		out := make([]byte, len(samples)*2)
		for i, s := range samples {
			v := int16(math.Round(clipSample(s) * 32767.0))
			binary.BigEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out
	}
}
