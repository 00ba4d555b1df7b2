package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const encodeBitDepth = 16

// WriteWAV encodes buf as 16-bit PCM WAV at path.
func WriteWAV(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	channels := buf.Channels()
	frames := buf.Frames()

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			data[i*channels+ch] = quantize(buf.Samples[ch][i])
		}
	}

	enc := wav.NewEncoder(f, buf.SampleRate, encodeBitDepth, channels, 1)
	err = enc.Write(&gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: encodeBitDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}

// quantize converts a [-1, 1] sample to int16 range, clamping overshoot.
func quantize(s float64) int {
	v := int(s * 32767.0)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
