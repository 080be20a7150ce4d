package audio

import (
	"encoding/binary"
	"math"
)

const int16Scale = 1 / 32768.0

// Waveform converts captured 16 bit samples to floats in [-1, 1).
func Waveform(samples []int16) []float32 {
	waveform := make([]float32, len(samples))
	for i, sample := range samples {
		waveform[i] = float32(sample) * int16Scale
	}
	return waveform
}

// Linear16 encodes a waveform as little endian 16 bit PCM, clipping samples
// outside [-1, 1].
func Linear16(waveform []float32) []byte {
	encoded := make([]byte, 2*len(waveform))
	for i, sample := range waveform {
		scaled := math.Round(float64(sample) * 32768)
		scaled = max(math.MinInt16, min(math.MaxInt16, scaled))
		binary.LittleEndian.PutUint16(encoded[2*i:], uint16(int16(scaled)))
	}
	return encoded
}

// Samples decodes little endian 16 bit PCM. A trailing odd byte is dropped.
func Samples(linear16 []byte) []int16 {
	samples := make([]int16, len(linear16)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(linear16[2*i:]))
	}
	return samples
}

// Energy returns the normalised RMS energy of a frame, in [0, 1].
func Energy(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}

	var sum float64
	for _, sample := range frame {
		normalised := float64(sample) * int16Scale
		sum += normalised * normalised
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Duration reports how many seconds of audio a sample count represents.
func (e EncodingInfo) Duration(samples int) float64 {
	if e.SampleRate == 0 {
		return 0
	}
	return float64(samples) / float64(e.SampleRate)
}
