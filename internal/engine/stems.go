package engine

import (
	"fmt"

	"github.com/audiosplit/api/internal/audio"
)

// SumStems combines stems from a single separation run by elementwise
// summation, then peak-normalizes downward only. Reconstructing a mix from
// its constituent stems is additive resynthesis, so no averaging happens
// here. Stems from one separation share rate and shape by construction; the
// output still sizes itself to the longest stem so a short tail cannot
// cause an out-of-range read.
func SumStems(stems []*audio.Buffer) (*audio.Buffer, error) {
	if len(stems) == 0 {
		return nil, fmt.Errorf("no stems to combine")
	}

	sampleRate := stems[0].SampleRate
	channels := 0
	maxFrames := 0
	for _, s := range stems {
		if s.Channels() > channels {
			channels = s.Channels()
		}
		if s.Frames() > maxFrames {
			maxFrames = s.Frames()
		}
	}

	out := audio.NewBuffer(sampleRate, channels, maxFrames)
	for _, s := range stems {
		for ch := 0; ch < s.Channels(); ch++ {
			for i, v := range s.Samples[ch] {
				out.Samples[ch][i] += v
			}
		}
	}

	audio.NormalizePeak(out)
	return out, nil
}
