package player

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice plays mono float samples on the default output device.
// Writes of arbitrary length are accumulated into fixed hardware frames so
// consecutive buffers join without padding silence between them.
type PortAudioDevice struct {
	sampleRate int

	mu      sync.Mutex
	stream  *portaudio.Stream
	frame   []float32
	pending []float32
	started bool
}

// NewPortAudioDevice initializes portaudio and opens the default output
// stream. The caller owns the device and must Close it to release the
// host API.
func NewPortAudioDevice(sampleRate int) (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	frame := make([]float32, blockSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(frame), frame)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	return &PortAudioDevice{
		sampleRate: sampleRate,
		stream:     stream,
		frame:      frame,
	}, nil
}

// Start begins (or resumes) the stream. Safe to call when already running.
func (d *PortAudioDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	d.started = true
	return nil
}

// Write blocks until the samples have been handed to the hardware. Partial
// frames are held back and joined with the next write.
func (d *PortAudioDevice) Write(samples []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return fmt.Errorf("output stream is not running")
	}

	d.pending = append(d.pending, samples...)
	for len(d.pending) >= len(d.frame) {
		copy(d.frame, d.pending[:len(d.frame)])
		d.pending = d.pending[len(d.frame):]
		if err := d.stream.Write(); err != nil {
			return fmt.Errorf("failed to write output frame: %w", err)
		}
	}
	return nil
}

// Stop halts the stream and discards any partial frame.
func (d *PortAudioDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	d.started = false
	d.pending = d.pending[:0]
	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop output stream: %w", err)
	}
	return nil
}

// Close releases the stream and the portaudio host API.
func (d *PortAudioDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	if d.stream != nil {
		if d.started {
			err = d.stream.Stop()
			d.started = false
		}
		if closeErr := d.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		d.stream = nil
	}
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}
