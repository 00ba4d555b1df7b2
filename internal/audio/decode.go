package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ReadFile decodes a .wav or .mp3 file into a Buffer.
func ReadFile(path string) (*Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return readWAV(path)
	case ".mp3":
		return readMP3(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

func readWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 {
		return nil, fmt.Errorf("no audio data in %s", path)
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels

	buf := NewBuffer(pcm.Format.SampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Samples[ch][i] = float64(pcm.Data[i*channels+ch]) / scale
		}
	}
	return buf, nil
}

// readMP3 decodes MP3 audio. go-mp3 always emits 16-bit stereo PCM.
func readMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	frames := len(raw) / 4 // 2 channels x int16
	buf := NewBuffer(decoder.SampleRate(), 2, frames)
	for i := 0; i < frames; i++ {
		left := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		right := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		buf.Samples[0][i] = float64(left) / 32768.0
		buf.Samples[1][i] = float64(right) / 32768.0
	}
	return buf, nil
}
