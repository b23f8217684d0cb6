package capture

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/fableforge/whatif/audio/pcm"
)

const framesPerBuffer = 256

// PortAudioSource reads 16 kHz mono int16 frames from the default input
// device.
type PortAudioSource struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	started bool
}

// NewPortAudioSource initializes portaudio and opens the default input
// stream without starting it; Start acquires the device.
func NewPortAudioSource() (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(pcm.CaptureSampleRate), len(buffer), buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	return &PortAudioSource{stream: stream, buffer: buffer}, nil
}

func (s *PortAudioSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *PortAudioSource) Read() ([]int16, error) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil, ErrSourceClosed
	}
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	frame := make([]int16, len(s.buffer))
	copy(frame, s.buffer)
	return frame, nil
}

func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	if err := s.stream.Abort(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return nil
}

// Close releases the stream and the portaudio host API.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.stream != nil {
		if s.started {
			err = s.stream.Abort()
			s.started = false
		}
		if closeErr := s.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.stream = nil
	}
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}
