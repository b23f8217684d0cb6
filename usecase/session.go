package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fableforge/whatif/internal/saga"
)

// Conversation is the live session lifecycle as the controller sees it.
type Conversation interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// CaptureDevice is the microphone recorder lifecycle.
type CaptureDevice interface {
	Start() error
	Stop()
}

// Playback is the speaker lifecycle.
type Playback interface {
	Resume() error
	Stop()
}

// SessionController brings a story session up and down. Startup runs as
// a compensating sequence so a microphone failure, for example, also
// disconnects the live session it just opened.
type SessionController struct {
	runner       *saga.Runner
	conversation Conversation
	recorder     CaptureDevice
	player       Playback
	logger       *zap.Logger

	mu      sync.Mutex
	running bool
}

// NewSessionController wires the three devices behind one start/stop pair.
func NewSessionController(
	runner *saga.Runner,
	conversation Conversation,
	recorder CaptureDevice,
	player Playback,
	logger *zap.Logger,
) *SessionController {
	return &SessionController{
		runner:       runner,
		conversation: conversation,
		recorder:     recorder,
		player:       player,
		logger:       logger,
	}
}

// Start connects the live session, wakes the speaker, and starts the
// microphone. No-op when already running.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	steps := []saga.Step{
		saga.FuncStep{
			StepID:     "connect_live",
			ExecuteFn:  func(ctx context.Context) error { return c.conversation.Connect(ctx) },
			RollbackFn: func(context.Context) error { c.conversation.Disconnect(); return nil },
		},
		saga.FuncStep{
			StepID:     "resume_playback",
			ExecuteFn:  func(context.Context) error { return c.player.Resume() },
			RollbackFn: func(context.Context) error { c.player.Stop(); return nil },
		},
		saga.FuncStep{
			StepID:    "start_capture",
			ExecuteFn: func(context.Context) error { return c.recorder.Start() },
		},
	}

	if err := c.runner.Run(ctx, "story_session_start", steps); err != nil {
		return err
	}
	c.running = true
	c.logger.Info("Story session started")
	return nil
}

// Stop tears the session down in reverse device order. Idempotent.
func (c *SessionController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}

	c.recorder.Stop()
	c.player.Stop()
	c.conversation.Disconnect()
	c.running = false
	c.logger.Info("Story session stopped")
}

// Running reports whether a session is up.
func (c *SessionController) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
