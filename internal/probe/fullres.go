package probe

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

// LoadFullResolution re-reads a clip's original media at its native sample
// rate, channel count, and bit depth, for the stitcher's (C6) per-clip
// export pass. Native audio files are read directly through the same PCM
// decoders C1 uses at import; video files go through the external decoder's
// pcm_s24le-then-pcm_s16le full-resolution extraction.
func (l *Loader) LoadFullResolution(ctx context.Context, clip *syncmodel.Clip) (samples []float32, sampleRate, channels int, err error) {
	if clip.IsVideo {
		return l.loadFullResolutionVideo(ctx, clip)
	}
	return l.loadFullResolutionNative(clip)
}

func (l *Loader) loadFullResolutionNative(clip *syncmodel.Clip) ([]float32, int, int, error) {
	ext := strings.ToLower(filepath.Ext(clip.FilePath))

	var pcm pcmResult
	var err error
	switch ext {
	case ".wav":
		pcm, err = decodeWAV(clip.FilePath)
	case ".flac":
		pcm, err = decodeFLAC(clip.FilePath)
	default:
		return nil, 0, 0, errors.Newf("unsupported media extension %q", ext).
			Component("probe").
			Category(errors.CategoryUnsupportedFormat).
			Context("path", clip.FilePath).
			Build()
	}
	if err != nil {
		return nil, 0, 0, err
	}

	return pcm.samples, pcm.sampleRate, pcm.channels, nil
}

func (l *Loader) loadFullResolutionVideo(ctx context.Context, clip *syncmodel.Clip) ([]float32, int, int, error) {
	if l.decoder.ffmpegPath == "" {
		return nil, 0, 0, errors.Newf("no decoder available for video file %q", clip.FilePath).
			Component("probe").
			Category(errors.CategoryDecoderUnavailable).
			Context("path", clip.FilePath).
			Build()
	}

	raw, codec, err := l.decoder.DecodeFullResolution(ctx, clip.FilePath, clip.OriginalSampleRate, clip.OriginalChannels)
	if err != nil {
		return nil, 0, 0, err
	}

	var samples []float32
	switch codec {
	case "pcm_s24le":
		samples = convert24BitToFloat32(raw)
	default:
		samples = convert16BitToFloat32(raw)
	}

	return samples, clip.OriginalSampleRate, clip.OriginalChannels, nil
}
