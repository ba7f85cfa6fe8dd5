package mlmodel

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"
)

var ErrNotWAV = errors.New("not a valid wav file")

// LoadClip reads a WAV file and returns 16 kHz mono samples in [-1, 1].
func LoadClip(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	pcm, rate, err := DecodeWAV(f)
	if err != nil {
		return nil, err
	}
	if rate == SampleRate {
		return pcm, nil
	}
	return Resample(pcm, rate, SampleRate)
}

// DecodeWAV decodes PCM WAV data, mixing all channels down to mono.
func DecodeWAV(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrNotWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, 0, ErrNotWAV
	}

	bits := int(dec.SampleBitDepth())
	if bits < 8 || bits > 32 {
		return nil, 0, fmt.Errorf("%w: %d-bit samples", ErrNotWAV, bits)
	}
	scale := float64(int64(1) << (bits - 1))
	offset := 0.0
	if bits == 8 {
		// 8-bit PCM is unsigned
		offset = 128
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += (float64(buf.Data[i*ch+c]) - offset) / scale
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// Resample converts mono samples between sample rates.
func Resample(pcm []float64, from, to int) ([]float64, error) {
	if from == to || len(pcm) == 0 {
		return pcm, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	out, err := rs.Process(pcm)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return out, nil
}
