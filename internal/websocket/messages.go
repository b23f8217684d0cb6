package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/whatif/domain/entities"
	"github.com/fableforge/whatif/usecase"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeTurnUpdate   MessageType = "turn_update"
	MessageTypeAgentStatus  MessageType = "agent_status"
	MessageTypeTimer        MessageType = "timer"
	MessageTypeVolume       MessageType = "volume"
	MessageTypeIllustration MessageType = "illustration"
	MessageTypeSession      MessageType = "session"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// TurnUpdateMessage carries one appended, amended, or finalized turn.
type TurnUpdateMessage struct {
	BaseMessage
	Turn entities.ConversationTurn `json:"turn"`
}

// AgentStatusMessage reports whether the storyteller is speaking.
type AgentStatusMessage struct {
	BaseMessage
	Speaking bool `json:"speaking"`
}

// TimerMessage reports response countdown transitions.
type TimerMessage struct {
	BaseMessage
	Active     bool  `json:"active"`
	DurationMs int64 `json:"duration_ms,omitempty"`
	Key        int   `json:"key"`
}

// VolumeMessage carries one playback level sample for the speaking
// indicator animation.
type VolumeMessage struct {
	BaseMessage
	Volume float64 `json:"volume"`
}

// IllustrationMessage carries one finished scene picture.
type IllustrationMessage struct {
	BaseMessage
	DataURL string `json:"data_url"`
}

// SessionMessage reports whether a story session is running.
type SessionMessage struct {
	BaseMessage
	Running bool `json:"running"`
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// NewTurnUpdateMessage creates a turn update message
func NewTurnUpdateMessage(turn entities.ConversationTurn) *TurnUpdateMessage {
	return &TurnUpdateMessage{BaseMessage: newBase(MessageTypeTurnUpdate), Turn: turn}
}

// NewAgentStatusMessage creates an agent status message
func NewAgentStatusMessage(speaking bool) *AgentStatusMessage {
	return &AgentStatusMessage{BaseMessage: newBase(MessageTypeAgentStatus), Speaking: speaking}
}

// NewTimerMessage creates a timer message
func NewTimerMessage(ev usecase.TimerEvent) *TimerMessage {
	return &TimerMessage{
		BaseMessage: newBase(MessageTypeTimer),
		Active:      ev.Active,
		DurationMs:  ev.Duration.Milliseconds(),
		Key:         ev.Key,
	}
}

// NewVolumeMessage creates a volume message
func NewVolumeMessage(volume float64) *VolumeMessage {
	return &VolumeMessage{BaseMessage: newBase(MessageTypeVolume), Volume: volume}
}

// NewIllustrationMessage creates an illustration message
func NewIllustrationMessage(dataURL string) *IllustrationMessage {
	return &IllustrationMessage{BaseMessage: newBase(MessageTypeIllustration), DataURL: dataURL}
}

// NewSessionMessage creates a session state message
func NewSessionMessage(running bool) *SessionMessage {
	return &SessionMessage{BaseMessage: newBase(MessageTypeSession), Running: running}
}

// volumeInterval throttles the meter feed; the playback loop produces a
// sample every block, far faster than a viewer animation needs.
const volumeInterval = 50 * time.Millisecond

// Broadcaster subscribes to story events and forwards them to every
// connected viewer as JSON frames.
type Broadcaster struct {
	hub    *Hub
	logger *zap.Logger

	mu         sync.Mutex
	lastVolume time.Time
}

// NewBroadcaster creates a broadcaster over the hub.
func NewBroadcaster(hub *Hub, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, logger: logger}
}

// BindStory attaches the broadcaster to the story service's event hooks.
func (b *Broadcaster) BindStory(story *usecase.StoryService) {
	story.OnTurnUpdate.Attach(func(turn entities.ConversationTurn) {
		b.Send(NewTurnUpdateMessage(turn))
	})
	story.OnSpeaking.Attach(func(speaking bool) {
		b.Send(NewAgentStatusMessage(speaking))
	})
	story.OnTimer.Attach(func(ev usecase.TimerEvent) {
		b.Send(NewTimerMessage(ev))
	})
	story.OnIllustration.Attach(func(dataURL string) {
		b.Send(NewIllustrationMessage(dataURL))
	})
}

// HandleVolume is the playback tap handler for the speaking indicator.
// Samples arriving faster than the throttle interval are dropped.
func (b *Broadcaster) HandleVolume(volume float64) {
	b.mu.Lock()
	now := time.Now()
	if now.Sub(b.lastVolume) < volumeInterval {
		b.mu.Unlock()
		return
	}
	b.lastVolume = now
	b.mu.Unlock()

	b.Send(NewVolumeMessage(volume))
}

// Send marshals one message and broadcasts it.
func (b *Broadcaster) Send(msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}
	b.hub.Broadcast(payload)
}
