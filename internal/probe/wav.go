package probe

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/audiosync/internal/errors"
)

// decodeWAV reads a native WAV file into interleaved float32 samples at the
// file's own sample rate and channel count, grounded on the teacher's
// go-audio/wav decode loop (formerly in the pre-split-out birdnet.go).
func decodeWAV(path string) (pcmResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return pcmResult{}, errors.FileError(err, path, 0)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return pcmResult{}, errors.Newf("invalid wav file").
			Component("probe").
			Category(errors.CategoryDecodeFailure).
			Context("path", path).
			Build()
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)

	divisor := divisorForBitDepth(bitDepth)

	const step = 4096
	buf := &audio.IntBuffer{
		Data:   make([]int, step),
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}

	var samples []float32
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return pcmResult{}, errors.Wrap(err).
				Component("probe").
				Category(errors.CategoryDecodeFailure).
				Context("path", path).
				Build()
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			samples = append(samples, float32(buf.Data[i])/divisor)
		}
		if n < step {
			break
		}
	}

	return pcmResult{samples: samples, sampleRate: sampleRate, channels: channels}, nil
}

func divisorForBitDepth(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
