package usecase

import (
	"go.uber.org/zap"

	"github.com/fableforge/whatif/domain/entities"
)

// AudioSender accepts one outbound base64 PCM16 chunk.
type AudioSender interface {
	SendRealtimeAudio(mimeType, data string) error
}

// MicBridge sits between the capture recorder and the live session. It
// drops chunks while the storyteller is speaking so the synthesized voice
// never loops back as user input.
type MicBridge struct {
	sender   AudioSender
	speaking *entities.AgentStatus
	mimeType string
	logger   *zap.Logger
}

// NewMicBridge creates the capture-to-session boundary.
func NewMicBridge(sender AudioSender, speaking *entities.AgentStatus, mimeType string, logger *zap.Logger) *MicBridge {
	return &MicBridge{
		sender:   sender,
		speaking: speaking,
		mimeType: mimeType,
		logger:   logger,
	}
}

// HandleChunk forwards one captured chunk unless the agent is speaking.
// Send failures are logged and the stream continues; the next chunk may
// well succeed.
func (b *MicBridge) HandleChunk(data string) {
	if b.speaking.Speaking() {
		return
	}
	if err := b.sender.SendRealtimeAudio(b.mimeType, data); err != nil {
		b.logger.Warn("Failed to forward audio chunk", zap.Error(err))
	}
}
