package audio

import (
	"math"
	"testing"
)

func TestEnsureStereoDuplicatesMono(t *testing.T) {
	mono := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{0.1, 0.2, 0.3}},
	}

	stereo := EnsureStereo(mono)

	if stereo.Channels() != 2 {
		t.Fatalf("expected 2 channels, got %d", stereo.Channels())
	}
	for i := range stereo.Samples[0] {
		if stereo.Samples[0][i] != stereo.Samples[1][i] {
			t.Errorf("channel mismatch at frame %d: %f != %f", i, stereo.Samples[0][i], stereo.Samples[1][i])
		}
	}
}

func TestEnsureStereoLeavesStereoAlone(t *testing.T) {
	stereo := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{0.1}, {0.2}},
	}

	if got := EnsureStereo(stereo); got != stereo {
		t.Error("stereo buffer should be returned unchanged")
	}
}

func TestPadTailAppendsSilence(t *testing.T) {
	b := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{0.5, 0.5}, {0.5, 0.5}},
	}

	padded := PadTail(b, 5)

	if padded.Frames() != 5 {
		t.Fatalf("expected 5 frames, got %d", padded.Frames())
	}
	for ch := range padded.Samples {
		if padded.Samples[ch][0] != 0.5 || padded.Samples[ch][1] != 0.5 {
			t.Errorf("original samples altered in channel %d", ch)
		}
		for i := 2; i < 5; i++ {
			if padded.Samples[ch][i] != 0 {
				t.Errorf("expected silence at frame %d, got %f", i, padded.Samples[ch][i])
			}
		}
	}
}

func TestPadTailNoopWhenLongEnough(t *testing.T) {
	b := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{0.1, 0.2, 0.3}},
	}

	if got := PadTail(b, 3); got != b {
		t.Error("buffer at target length should be returned unchanged")
	}
}

func TestPeak(t *testing.T) {
	b := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{0.1, -0.9}, {0.4, 0.2}},
	}

	if got := Peak(b); got != 0.9 {
		t.Errorf("expected peak 0.9, got %f", got)
	}
}

func TestNormalizePeakScalesDown(t *testing.T) {
	b := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{1.5, -0.75}},
	}

	NormalizePeak(b)

	if math.Abs(b.Samples[0][0]-1.0) > 1e-12 {
		t.Errorf("expected peak scaled to 1.0, got %f", b.Samples[0][0])
	}
	if math.Abs(b.Samples[0][1]-(-0.5)) > 1e-12 {
		t.Errorf("expected uniform scaling, got %f", b.Samples[0][1])
	}
}

func TestNormalizePeakNeverScalesUp(t *testing.T) {
	b := &Buffer{
		SampleRate: 44100,
		Samples:    [][]float64{{0.25, -0.5}},
	}

	NormalizePeak(b)

	if b.Samples[0][0] != 0.25 || b.Samples[0][1] != -0.5 {
		t.Error("buffer within range must be left untouched")
	}
}
