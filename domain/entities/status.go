package entities

import (
	"sync"
	"time"
)

// AgentStatus tracks whether the storyteller is currently speaking. While
// true, microphone chunks must not reach the live session, so the
// assistant's own voice never echoes back as user input.
type AgentStatus struct {
	mu       sync.RWMutex
	speaking bool
}

func (s *AgentStatus) SetSpeaking(speaking bool) {
	s.mu.Lock()
	s.speaking = speaking
	s.mu.Unlock()
}

func (s *AgentStatus) Speaking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speaking
}

// ResponseTimer is the countdown armed after the storyteller asks a
// question. Each arming bumps the activation key so the presentation layer
// can restart its countdown animation. Cancellation is cooperative: a
// fired callback is suppressed if Cancel or a newer Arm won the race.
type ResponseTimer struct {
	mu     sync.Mutex
	active bool
	key    int
	timer  *time.Timer
}

// Arm starts (or restarts) the countdown. onExpire runs after d unless the
// timer is cancelled or re-armed first.
func (t *ResponseTimer) Arm(d time.Duration, onExpire func()) {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.active = true
	t.key++
	key := t.key
	t.timer = time.AfterFunc(d, func() {
		if t.expire(key) && onExpire != nil {
			onExpire()
		}
	})
	t.mu.Unlock()
}

func (t *ResponseTimer) expire(key int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.key != key {
		return false
	}
	t.active = false
	t.timer = nil
	return true
}

// Cancel disarms the countdown. Idempotent.
func (t *ResponseTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Active reports whether the countdown is running.
func (t *ResponseTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Key returns the current activation key.
func (t *ResponseTimer) Key() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key
}
