package entities

import (
	"sync"
	"testing"
	"time"
)

func TestAgentStatus(t *testing.T) {
	status := &AgentStatus{}
	if status.Speaking() {
		t.Error("expected not speaking initially")
	}
	status.SetSpeaking(true)
	if !status.Speaking() {
		t.Error("expected speaking")
	}
	status.SetSpeaking(false)
	if status.Speaking() {
		t.Error("expected not speaking")
	}
}

func TestResponseTimerExpires(t *testing.T) {
	timer := &ResponseTimer{}
	fired := make(chan struct{})

	timer.Arm(10*time.Millisecond, func() { close(fired) })
	if !timer.Active() {
		t.Error("timer should be active after arming")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	if timer.Active() {
		t.Error("timer should auto-disarm after firing")
	}
}

func TestResponseTimerCancelSuppressesCallback(t *testing.T) {
	timer := &ResponseTimer{}
	var mu sync.Mutex
	fired := false

	timer.Arm(20*time.Millisecond, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	timer.Cancel()

	if timer.Active() {
		t.Error("timer should be inactive after cancel")
	}
	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Error("cancelled timer must not fire")
	}
}

func TestResponseTimerCancelIsIdempotent(t *testing.T) {
	timer := &ResponseTimer{}
	timer.Cancel()
	timer.Arm(10*time.Millisecond, nil)
	timer.Cancel()
	timer.Cancel()
	if timer.Active() {
		t.Error("timer should stay cancelled")
	}
}

func TestResponseTimerRearmBumpsKeyAndSupersedes(t *testing.T) {
	timer := &ResponseTimer{}
	var mu sync.Mutex
	firstFired := false

	timer.Arm(30*time.Millisecond, func() {
		mu.Lock()
		firstFired = true
		mu.Unlock()
	})
	k1 := timer.Key()

	secondFired := make(chan struct{})
	timer.Arm(15*time.Millisecond, func() { close(secondFired) })
	if timer.Key() <= k1 {
		t.Error("re-arming must bump the activation key")
	}

	select {
	case <-secondFired:
	case <-time.After(time.Second):
		t.Fatal("re-armed timer never fired")
	}
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if firstFired {
		t.Error("superseded arming must not fire its callback")
	}
}
