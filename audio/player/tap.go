package player

import (
	"math"
	"sync"
)

// tap is one named analysis pipeline. Volume samples travel over a
// buffered channel to a dedicated dispatch goroutine so a slow handler
// can never stall the playback loop; when the channel is full, samples
// are dropped rather than queued.
type tap struct {
	mu       sync.Mutex
	handlers []func(volume float64)
	ch       chan float64
	done     chan struct{}
}

// AddTap attaches handler to the named meter pipeline. Registering an
// existing name appends the handler to the same pipeline instead of
// creating a second one.
func (p *Player) AddTap(name string, handler func(volume float64)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.taps[name]; ok {
		t.addHandler(handler)
		return
	}
	t := &tap{
		ch:   make(chan float64, 16),
		done: make(chan struct{}),
	}
	t.addHandler(handler)
	p.taps[name] = t
	go t.dispatch()
}

func (t *tap) addHandler(fn func(float64)) {
	t.mu.Lock()
	t.handlers = append(t.handlers, fn)
	t.mu.Unlock()
}

func (t *tap) dispatch() {
	for {
		select {
		case v := <-t.ch:
			t.mu.Lock()
			handlers := make([]func(float64), len(t.handlers))
			copy(handlers, t.handlers)
			t.mu.Unlock()
			for _, fn := range handlers {
				fn(v)
			}
		case <-t.done:
			return
		}
	}
}

func (t *tap) close() {
	close(t.done)
}

// feedTaps computes the RMS volume of one block and offers it to every
// registered pipeline, dropping the sample for pipelines that are behind.
func (p *Player) feedTaps(block []float32) {
	p.mu.Lock()
	if len(p.taps) == 0 {
		p.mu.Unlock()
		return
	}
	taps := make([]*tap, 0, len(p.taps))
	for _, t := range p.taps {
		taps = append(taps, t)
	}
	p.mu.Unlock()

	volume := rms(block)
	for _, t := range taps {
		select {
		case t.ch <- volume:
		default:
		}
	}
}

func rms(block []float32) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(block)))
}
