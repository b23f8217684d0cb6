// Package capture frames live microphone input into base64-encoded PCM16
// chunks emitted on a fixed cadence, ready for the live session's
// realtime input.
package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/whatif/audio/pcm"
	"github.com/fableforge/whatif/internal/events"
)

// DefaultEmitInterval is how often a captured chunk is emitted.
const DefaultEmitInterval = 50 * time.Millisecond

// ErrSourceClosed is returned by a Source read once the source has been
// stopped.
var ErrSourceClosed = errors.New("capture source closed")

// Source is a microphone-like device producing fixed frames of int16
// samples. Read blocks until a frame is available; Stop unblocks any
// in-flight Read with ErrSourceClosed.
type Source interface {
	Start() error
	Read() ([]int16, error)
	Stop() error
}

// Recorder accumulates frames from a Source and emits one base64 PCM16
// chunk per interval on the Data hook.
type Recorder struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger

	// Data fires once per interval with everything captured since the
	// previous emission.
	Data events.Hook[string]

	mu        sync.Mutex
	recording bool
	stop      chan struct{}
	wg        sync.WaitGroup

	pendMu  sync.Mutex
	pending []int16
}

// NewRecorder wires a recorder over source. interval <= 0 selects the
// default cadence.
func NewRecorder(source Source, interval time.Duration, logger *zap.Logger) *Recorder {
	if interval <= 0 {
		interval = DefaultEmitInterval
	}
	return &Recorder{
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Start acquires the device and begins periodic emission. Calling Start on
// a recorder that is already running is a no-op. On device failure the
// error is returned and the recorder stays observably stopped.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}
	if err := r.source.Start(); err != nil {
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}
	r.recording = true
	r.stop = make(chan struct{})

	r.wg.Add(2)
	go r.readLoop(r.stop)
	go r.emitLoop(r.stop)
	return nil
}

// Stop halts emission and releases the device. Idempotent.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	r.recording = false
	stop := r.stop
	r.mu.Unlock()

	close(stop)
	// Stopping the source unblocks a Read stuck waiting for a frame.
	if err := r.source.Stop(); err != nil {
		r.logger.Warn("Failed to stop capture source", zap.Error(err))
	}
	r.wg.Wait()

	r.pendMu.Lock()
	r.pending = nil
	r.pendMu.Unlock()
}

// Recording reports whether the recorder currently owns the device.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *Recorder) readLoop(stop chan struct{}) {
	defer r.wg.Done()
	for {
		frame, err := r.source.Read()
		if err != nil {
			select {
			case <-stop:
			default:
				if !errors.Is(err, ErrSourceClosed) {
					r.logger.Error("Capture read failed", zap.Error(err))
				}
			}
			return
		}
		r.pendMu.Lock()
		r.pending = append(r.pending, frame...)
		r.pendMu.Unlock()
	}
}

func (r *Recorder) emitLoop(stop chan struct{}) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.pendMu.Lock()
			if len(r.pending) == 0 {
				r.pendMu.Unlock()
				continue
			}
			chunk := r.pending
			r.pending = nil
			r.pendMu.Unlock()

			r.Data.Emit(base64.StdEncoding.EncodeToString(pcm.EncodeInt16(chunk)))
		}
	}
}
