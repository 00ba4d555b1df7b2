package audio

import (
	"math"
	"path/filepath"
	"testing"
)

// 16-bit quantization error bound: one step of truncation plus the
// 32767/32768 scale asymmetry between encode and decode.
const quantTolerance = 2.0 / 32768.0

func TestWAVRoundTrip(t *testing.T) {
	src := NewBuffer(44100, 2, 64)
	for i := 0; i < 64; i++ {
		src.Samples[0][i] = 0.5 * math.Sin(2*math.Pi*float64(i)/64)
		src.Samples[1][i] = -0.25 * math.Sin(2*math.Pi*float64(i)/64)
	}

	path := filepath.Join(t.TempDir(), "roundtrip.wav")
	if err := WriteWAV(path, src); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if got.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", got.SampleRate)
	}
	if got.Channels() != 2 {
		t.Fatalf("expected 2 channels, got %d", got.Channels())
	}
	if got.Frames() != 64 {
		t.Fatalf("expected 64 frames, got %d", got.Frames())
	}

	for ch := 0; ch < 2; ch++ {
		for i := 0; i < 64; i++ {
			if diff := math.Abs(got.Samples[ch][i] - src.Samples[ch][i]); diff > quantTolerance {
				t.Fatalf("sample (%d,%d) off by %f", ch, i, diff)
			}
		}
	}
}

func TestReadFileRejectsUnknownFormat(t *testing.T) {
	if _, err := ReadFile("song.ogg"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestQuantizeClamps(t *testing.T) {
	if got := quantize(2.0); got != 32767 {
		t.Errorf("expected clamp to 32767, got %d", got)
	}
	if got := quantize(-2.0); got != -32768 {
		t.Errorf("expected clamp to -32768, got %d", got)
	}
	if got := quantize(0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
