package export

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/stitch"
)

// FFmpegExporter encodes MP3 and FLAC output by piping a 24-bit PCM stream
// into an FFmpeg subprocess, the same stdin-pipe/stderr-capture/atomic-rename
// pattern used for every other external-process export in this engine.
type FFmpegExporter struct {
	format     Format
	ffmpegPath string
}

// NewFFmpegExporter creates an exporter bound to a single format.
func NewFFmpegExporter(format Format) *FFmpegExporter {
	return &FFmpegExporter{format: format}
}

func (f *FFmpegExporter) ValidateConfig(config *Config) error {
	if err := ValidateConfig(config); err != nil {
		return err
	}
	if config.Format != f.format {
		return errors.Newf("FFmpeg exporter format mismatch: expected %s, got %s", f.format, config.Format).
			Component("export").
			Category(errors.CategoryValidation).
			Context("expected_format", string(f.format)).
			Context("config_format", string(config.Format)).
			Build()
	}
	return nil
}

func (f *FFmpegExporter) SupportedFormats() []Format { return []Format{f.format} }

// ExportTrack encodes buf to MP3 or FLAC via an FFmpeg subprocess fed a
// 24-bit signed little-endian PCM stream on stdin.
func (f *FFmpegExporter) ExportTrack(ctx context.Context, buf *stitch.Buffer, sampleRate int, trackName string, config *Config) (string, error) {
	if err := f.ValidateConfig(config); err != nil {
		return "", err
	}
	f.ffmpegPath = config.FFmpegPath

	fileName := GenerateFileName(config.FileNameTemplate, trackName, time.Now(), f.format)
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
	args := f.buildArgs(buf.Channels, sampleRate, config, tempPath)

	exportCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(exportCtx, f.ffmpegPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategorySystem).
			Context("operation", "create_ffmpeg_stdin").
			Build()
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategorySystem).
			Context("operation", "start_ffmpeg").
			Context("stderr", stderr.String()).
			Build()
	}

	pcm := encodePCM(buf.Samples, 24)

	writeErr := make(chan error, 1)
	go func() {
		defer func() { _ = stdin.Close() }()
		_, werr := stdin.Write(pcm)
		writeErr <- werr
	}()

	select {
	case werr := <-writeErr:
		if werr != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return "", errors.New(werr).
				Component("export").
				Category(errors.CategorySystem).
				Context("operation", "write_pcm_to_ffmpeg").
				Build()
		}
	case <-exportCtx.Done():
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return "", errors.New(exportCtx.Err()).
			Component("export").
			Category(errors.CategoryTimeout).
			Context("operation", "ffmpeg_export_timeout").
			Build()
	}

	if err := cmd.Wait(); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategorySystem).
			Context("operation", "ffmpeg_export_failed").
			Context("stderr", stderr.String()).
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

	return filePath, nil
}

func (f *FFmpegExporter) buildArgs(channels, sampleRate int, config *Config, outputPath string) []string {
	args := []string{
		"-f", "s24le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-i", "-",
	}

	switch f.format {
	case FormatMP3:
		args = append(args, "-c:a", "libmp3lame")
		if config.MP3Bitrate > 0 {
			args = append(args, "-b:a", strconv.Itoa(config.MP3Bitrate)+"k")
		}
		args = append(args, "-f", "mp3")
	case FormatFLAC:
		args = append(args, "-c:a", "flac", "-f", "flac")
	}

	args = append(args, "-y", outputPath)
	return args
}
