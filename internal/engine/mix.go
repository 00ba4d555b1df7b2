// Package engine implements the deterministic signal-combination algorithms:
// multi-track mixing by averaging and instrumental reconstruction by stem
// summation. Both operate purely on in-memory buffers.
package engine

import (
	"fmt"

	"github.com/audiosplit/api/internal/audio"
)

// Mix combines two or more buffers into one by arithmetic averaging.
//
// All inputs must share the sample rate of the first buffer. Mono inputs are
// upmixed to stereo, shorter inputs are zero-padded at the tail to the
// longest frame count, and the averaged result is peak-normalized downward
// only. Averaging (rather than summing) keeps unclipped inputs near their
// original levels for a typical number of tracks.
func Mix(buffers []*audio.Buffer) (*audio.Buffer, error) {
	if len(buffers) < 2 {
		return nil, fmt.Errorf("at least 2 audio files are required for mixing")
	}

	sampleRate := buffers[0].SampleRate
	maxFrames := 0
	channels := 0

	prepared := make([]*audio.Buffer, 0, len(buffers))
	for _, b := range buffers {
		if b.SampleRate != sampleRate {
			return nil, fmt.Errorf("all files must have the same sample rate: got %d but expected %d", b.SampleRate, sampleRate)
		}

		b = audio.EnsureStereo(b)
		if channels == 0 {
			channels = b.Channels()
		} else if b.Channels() != channels {
			return nil, fmt.Errorf("all files must have the same channel count: got %d but expected %d", b.Channels(), channels)
		}

		if b.Frames() > maxFrames {
			maxFrames = b.Frames()
		}
		prepared = append(prepared, b)
	}

	out := audio.NewBuffer(sampleRate, channels, maxFrames)
	for _, b := range prepared {
		b = audio.PadTail(b, maxFrames)
		for ch := 0; ch < channels; ch++ {
			for i := 0; i < maxFrames; i++ {
				out.Samples[ch][i] += b.Samples[ch][i]
			}
		}
	}

	n := float64(len(prepared))
	for ch := 0; ch < channels; ch++ {
		for i := 0; i < maxFrames; i++ {
			out.Samples[ch][i] /= n
		}
	}

	audio.NormalizePeak(out)
	return out, nil
}
