// Package player implements gapless playback of a dynamically arriving
// stream of PCM16 chunks, with a parallel level-meter tap that observes
// the same signal without delaying it.
package player

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fableforge/whatif/audio/pcm"
)

// blockSize is the number of samples written to the device per iteration.
// It is also the meter cadence: one volume sample per block.
const blockSize = 512

// Device is the audio output sink. Write blocks until the device has
// consumed the samples, which paces the playback loop.
type Device interface {
	Start() error
	Write(samples []float32) error
	Stop() error
	Close() error
}

// Player owns a FIFO queue of decoded buffers and drains it back-to-back
// against the output device. Queue and state are only mutated under mu;
// the tap dispatch goroutines only ever see copied volume values.
type Player struct {
	device Device
	logger *zap.Logger

	mu         sync.Mutex
	queue      []*pcm.Buffer
	playing    bool
	gen        int
	gain       float32
	onComplete func()
	taps       map[string]*tap
}

// New starts the output device and returns a player in the Idle state.
func New(device Device, logger *zap.Logger) (*Player, error) {
	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("failed to start output device: %w", err)
	}
	return &Player{
		device: device,
		logger: logger,
		gain:   1,
		taps:   make(map[string]*tap),
	}, nil
}

// SetOnComplete registers the quiescence notification. It fires exactly
// once each time the queue drains to empty naturally; Stop suppresses it.
func (p *Player) SetOnComplete(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// EnqueuePCM16 decodes chunk and appends it to the playback queue,
// starting playback if the player is idle. A malformed chunk (too short
// to hold a sample) is logged and dropped without disturbing the stream.
func (p *Player) EnqueuePCM16(chunk []byte) {
	if len(chunk) < 2 {
		p.logger.Warn("Dropping malformed audio chunk", zap.Int("bytes", len(chunk)))
		return
	}
	buf := pcm.Decode(chunk, pcm.PlaybackSampleRate)

	p.mu.Lock()
	p.queue = append(p.queue, buf)
	if !p.playing {
		p.playing = true
		go p.playLoop(p.gen)
	}
	p.mu.Unlock()
}

// Stop hard-cancels playback: the queue is discarded, the in-flight buffer
// is abandoned at the next block boundary, and no completion fires.
func (p *Player) Stop() {
	p.mu.Lock()
	p.gen++
	p.queue = nil
	p.playing = false
	p.mu.Unlock()
}

// Resume ensures the output device is running (it may have been suspended
// by OS power policy) and restores nominal gain.
func (p *Player) Resume() error {
	p.mu.Lock()
	p.gain = 1
	p.mu.Unlock()
	if err := p.device.Start(); err != nil {
		return fmt.Errorf("failed to resume output device: %w", err)
	}
	return nil
}

// Playing reports whether a buffer is currently sounding or queued.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// QueueLen returns the number of buffers waiting behind the current one.
func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops playback, tears down the meter taps, and releases the device.
func (p *Player) Close() error {
	p.Stop()
	p.mu.Lock()
	for name, t := range p.taps {
		t.close()
		delete(p.taps, name)
	}
	p.mu.Unlock()
	return p.device.Close()
}

// playLoop drains the queue one buffer at a time. It exits when the queue
// empties (firing the completion callback) or when gen no longer matches,
// which means Stop superseded this playback run.
func (p *Player) playLoop(gen int) {
	for {
		p.mu.Lock()
		if p.gen != gen {
			p.mu.Unlock()
			return
		}
		if len(p.queue) == 0 {
			p.playing = false
			done := p.onComplete
			p.mu.Unlock()
			if done != nil {
				done()
			}
			return
		}
		buf := p.queue[0]
		p.queue = p.queue[1:]
		gain := p.gain
		p.mu.Unlock()

		if !p.playBuffer(buf, gain, gen) {
			return
		}
	}
}

// playBuffer writes one buffer to the device block by block, feeding each
// block to the meter taps. Returns false if playback was cancelled or the
// device failed.
func (p *Player) playBuffer(buf *pcm.Buffer, gain float32, gen int) bool {
	scaled := make([]float32, 0, blockSize)
	for off := 0; off < len(buf.Samples); off += blockSize {
		p.mu.Lock()
		cancelled := p.gen != gen
		p.mu.Unlock()
		if cancelled {
			return false
		}

		end := off + blockSize
		if end > len(buf.Samples) {
			end = len(buf.Samples)
		}
		block := buf.Samples[off:end]
		if gain != 1 {
			scaled = scaled[:0]
			for _, s := range block {
				scaled = append(scaled, s*gain)
			}
			block = scaled
		}

		if err := p.device.Write(block); err != nil {
			p.logger.Error("Output device write failed", zap.Error(err))
			p.mu.Lock()
			p.playing = false
			p.mu.Unlock()
			return false
		}
		p.feedTaps(block)
	}
	return true
}
