package audio

import "math"

// Buffer is an in-memory decoded signal: one sample slice per channel, all
// the same length, plus the sample rate in Hz. Samples are float64 in the
// nominal range [-1, 1].
type Buffer struct {
	SampleRate int
	Samples    [][]float64
}

// NewBuffer allocates a zeroed buffer of the given shape.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	samples := make([][]float64, channels)
	for ch := range samples {
		samples[ch] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Samples: samples}
}

func (b *Buffer) Channels() int {
	return len(b.Samples)
}

func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// EnsureStereo returns a stereo view of b: a mono buffer is duplicated into
// two identical channels, anything else is returned unchanged. Buffers are
// never downmixed.
func EnsureStereo(b *Buffer) *Buffer {
	if b.Channels() != 1 {
		return b
	}

	left := b.Samples[0]
	right := append([]float64(nil), left...)
	return &Buffer{
		SampleRate: b.SampleRate,
		Samples:    [][]float64{left, right},
	}
}

// PadTail returns a buffer extended with trailing silence to exactly frames
// frames. A buffer already at least that long is returned unchanged.
func PadTail(b *Buffer, frames int) *Buffer {
	if b.Frames() >= frames {
		return b
	}

	padded := NewBuffer(b.SampleRate, b.Channels(), frames)
	for ch := range b.Samples {
		copy(padded.Samples[ch], b.Samples[ch])
	}
	return padded
}

// Peak returns the maximum absolute sample value across all channels.
func Peak(b *Buffer) float64 {
	peak := 0.0
	for _, ch := range b.Samples {
		for _, s := range ch {
			if abs := math.Abs(s); abs > peak {
				peak = abs
			}
		}
	}
	return peak
}

// NormalizePeak scales b down in place so its peak does not exceed 1.0.
// A buffer whose peak is already within range is left untouched; signals
// are never scaled up.
func NormalizePeak(b *Buffer) {
	peak := Peak(b)
	if peak <= 1.0 {
		return
	}
	for _, ch := range b.Samples {
		for i := range ch {
			ch[i] /= peak
		}
	}
}
