package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/errors"
)

// Decoder wraps the external ffmpeg/ffprobe process pair used to probe and
// decode container-formatted video files, adapted from the teacher's
// audiocore/utils/ffmpeg process-management pattern (exec.CommandContext,
// stdout pipe capture, stderr buffering for diagnostics on failure).
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewDecoder builds a Decoder bound to the given ffmpeg binary path. The
// ffprobe binary is assumed to live alongside it.
func NewDecoder(ffmpegPath string) *Decoder {
	if ffmpegPath == "" {
		return &Decoder{}
	}
	return &Decoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: deriveFFprobePath(ffmpegPath),
	}
}

func deriveFFprobePath(ffmpegPath string) string {
	if strings.HasSuffix(ffmpegPath, "ffmpeg") {
		return strings.TrimSuffix(ffmpegPath, "ffmpeg") + "ffprobe"
	}
	return "ffprobe"
}

// ProbedInfo is the subset of ffprobe's stream/format metadata the loader
// needs: sample rate, channel count, duration, and an optional creation
// timestamp.
type ProbedInfo struct {
	SampleRate      int
	Channels        int
	DurationS       float64
	CreationTime    int64
	HasCreationTime bool
}

type ffprobeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

type ffprobeStream struct {
	CodecType  string            `json:"codec_type"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeOutput struct {
	Format  ffprobeFormat    `json:"format"`
	Streams []ffprobeStream  `json:"streams"`
}

// Probe inspects the first audio stream of path for sample rate, channel
// count, and duration, and resolves a creation timestamp by trying the
// container's tags, then the audio stream's tags, in that order.
func (d *Decoder) Probe(ctx context.Context, path string) (ProbedInfo, error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ProbedInfo{}, errors.Newf("probe cancelled").
				Component("probe").
				Category(errors.CategoryCancellation).
				Context("path", path).
				Build()
		}
		return ProbedInfo{}, errors.Wrap(err).
			Component("probe").
			Category(errors.CategoryDecodeFailure).
			Context("path", path).
			Context("stderr", stderr.String()).
			Build()
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return ProbedInfo{}, errors.Wrap(err).
			Component("probe").
			Category(errors.CategoryDecodeFailure).
			Context("path", path).
			Build()
	}

	info := ProbedInfo{}
	if d, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64); err == nil {
		info.DurationS = d
	}

	var audioStream *ffprobeStream
	for i := range parsed.Streams {
		if parsed.Streams[i].CodecType == "audio" {
			audioStream = &parsed.Streams[i]
			break
		}
	}
	if audioStream == nil {
		return ProbedInfo{}, errors.Newf("no audio stream found").
			Component("probe").
			Category(errors.CategoryDecodeFailure).
			Context("path", path).
			Build()
	}

	if sr, err := strconv.Atoi(strings.TrimSpace(audioStream.SampleRate)); err == nil {
		info.SampleRate = sr
	}
	info.Channels = audioStream.Channels

	if raw, ok := parsed.Format.Tags["creation_time"]; ok {
		if ts, ok := parseCreationTimestamp(raw); ok {
			info.CreationTime, info.HasCreationTime = ts, true
		}
	}
	if !info.HasCreationTime {
		if raw, ok := audioStream.Tags["creation_time"]; ok {
			if ts, ok := parseCreationTimestamp(raw); ok {
				info.CreationTime, info.HasCreationTime = ts, true
			}
		}
	}

	return info, nil
}

// DecodeAnalysisBuffer decodes path's first audio stream directly to mono
// float32 samples at conf.AnalysisRate, by piping raw s16le PCM from
// ffmpeg's stdout. On a non-zero exit it is not retried at a lower
// resolution here — the analysis buffer is already 16-bit; the
// pcm_s24le-then-pcm_s16le retry applies only to full-resolution export
// extraction (DecodeFullResolution).
func (d *Decoder) DecodeAnalysisBuffer(ctx context.Context, path string) ([]float32, error) {
	args := []string{
		"-v", "error",
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(conf.AnalysisRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Newf("decode cancelled").
				Component("probe").
				Category(errors.CategoryCancellation).
				Context("path", path).
				Build()
		}
		return nil, errors.Wrap(err).
			Component("probe").
			Category(errors.CategoryDecodeFailure).
			Context("path", path).
			Context("stderr", stderr.String()).
			Build()
	}

	return convert16BitToFloat32(stdout.Bytes()), nil
}

// DecodeFullResolution extracts the full-resolution PCM for path, attempting
// pcm_s24le first and retrying with pcm_s16le on non-zero exit, as the
// session cache's full-resolution artifact for C6. codec reports which
// codec actually succeeded, since callers need it to size the export buffer.
func (d *Decoder) DecodeFullResolution(ctx context.Context, path string, sampleRate, channels int) (samples []byte, codec string, err error) {
	samples, err = d.runFullResExtract(ctx, path, sampleRate, channels, "pcm_s24le")
	if err == nil {
		return samples, "pcm_s24le", nil
	}

	samples, err = d.runFullResExtract(ctx, path, sampleRate, channels, "pcm_s16le")
	if err != nil {
		return nil, "", err
	}
	return samples, "pcm_s16le", nil
}

func (d *Decoder) runFullResExtract(ctx context.Context, path string, sampleRate, channels int, codec string) ([]byte, error) {
	format := "s24le"
	if codec == "pcm_s16le" {
		format = "s16le"
	}

	args := []string{
		"-v", "error",
		"-i", path,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-f", format,
		"-acodec", codec,
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Newf("extract cancelled").
				Component("probe").
				Category(errors.CategoryCancellation).
				Context("path", path).
				Build()
		}
		return nil, errors.Wrap(err).
			Component("probe").
			Category(errors.CategoryDecodeFailure).
			Context("path", path).
			Context("codec", codec).
			Context("stderr", stderr.String()).
			Build()
	}

	return stdout.Bytes(), nil
}
