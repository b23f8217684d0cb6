// Package pcm converts between raw little-endian PCM16 byte buffers and
// normalized float sample buffers. All functions are pure and safe for
// concurrent use.
package pcm

import "time"

const (
	// CaptureSampleRate is the microphone capture rate expected by the
	// live session's realtime input.
	CaptureSampleRate = 16000

	// PlaybackSampleRate is the rate of audio streamed back by the model.
	PlaybackSampleRate = 24000

	bytesPerSample = 2
)

// Buffer is a decoded run of mono audio samples normalized to [-1, 1).
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration returns the wall-clock length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Decode interprets data as consecutive little-endian signed 16-bit samples
// and normalizes each by 1/32768. An incomplete trailing sample is dropped
// rather than failing the chunk.
func Decode(data []byte, sampleRate int) *Buffer {
	n := len(data) / bytesPerSample
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		samples[i] = float32(v) / 32768
	}
	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
	}
}

// Encode converts normalized float samples back to little-endian PCM16,
// clamping out-of-range values and rounding half away from zero.
func Encode(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		scaled := float64(s) * 32768
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		var v int16
		if scaled >= 0 {
			v = int16(scaled + 0.5)
		} else {
			v = int16(scaled - 0.5)
		}
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// EncodeInt16 converts raw int16 samples (the shape capture devices
// deliver) to little-endian PCM16 bytes.
func EncodeInt16(samples []int16) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, v := range samples {
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}
