package probe

import (
	"errors" // used only for errors.Is(err, io.EOF) against the flac stream
	"io"
	"os"

	"github.com/tphakala/flac"

	audiosyncerrors "github.com/tphakala/audiosync/internal/errors"
)

// decodeFLAC reads a native FLAC file into interleaved float32 samples,
// normalizing each subframe's integer samples by its bit depth, grounded on
// the teacher's tphakala/flac dependency (a birdnet-go-maintained fork of
// mewkiz/flac with the same Stream/ParseNext/Subframes surface).
func decodeFLAC(path string) (pcmResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return pcmResult{}, audiosyncerrors.FileError(err, path, 0)
	}
	defer file.Close()

	stream, err := flac.New(file)
	if err != nil {
		return pcmResult{}, audiosyncerrors.Wrap(err).
			Component("probe").
			Category(audiosyncerrors.CategoryDecodeFailure).
			Context("path", path).
			Build()
	}
	defer stream.Close()

	sampleRate := int(stream.Info.SampleRate)
	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	divisor := float32(int64(1) << uint(bitDepth-1))

	var samples []float32
	for {
		f, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return pcmResult{}, audiosyncerrors.Wrap(err).
				Component("probe").
				Category(audiosyncerrors.CategoryDecodeFailure).
				Context("path", path).
				Build()
		}

		n := len(f.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels && ch < len(f.Subframes); ch++ {
				samples = append(samples, float32(f.Subframes[ch].Samples[i])/divisor)
			}
		}
	}

	return pcmResult{samples: samples, sampleRate: sampleRate, channels: channels}, nil
}
