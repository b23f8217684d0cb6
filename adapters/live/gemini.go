// Package live encapsulates one duplex conversation session against the
// Gemini Live API, turning the remote stream into local typed events and
// accepting outbound realtime audio.
package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fableforge/whatif/internal/events"
)

// DefaultModel is the live conversation model used when none is
// configured.
const DefaultModel = "gemini-2.5-flash-preview-native-audio-dialog"

// CaptureMIMEType declares the realtime input format of microphone chunks.
const CaptureMIMEType = "audio/pcm;rate=16000"

// ErrMissingConfig is returned by Connect when the session configuration
// lacks required fields.
var ErrMissingConfig = errors.New("config is missing required fields: responseModalities and systemInstruction")

// Transcription is one incremental transcript fragment.
type Transcription struct {
	Text  string
	Final bool
}

// Client owns one logical live session. Events are emitted on the receive
// goroutine; handlers must not block.
type Client struct {
	genaiClient *genai.Client
	model       string
	logger      *zap.Logger

	OnOpen                events.Hook[struct{}]
	OnClose               events.Hook[string]
	OnAudio               events.Hook[[]byte]
	OnInputTranscription  events.Hook[Transcription]
	OnOutputTranscription events.Hook[Transcription]
	OnContent             events.Hook[*genai.LiveServerContent]
	OnTurnComplete        events.Hook[struct{}]

	mu       sync.Mutex
	session  *genai.Session
	recvDone chan struct{}
}

// NewClient wraps a genai client for live sessions on the given model.
func NewClient(genaiClient *genai.Client, model string, logger *zap.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		genaiClient: genaiClient,
		model:       model,
		logger:      logger,
	}
}

// SessionConfig builds the live connection configuration: audio responses
// with the chosen prebuilt voice, transcription of both directions, and
// the composed system instruction.
func SessionConfig(voice, systemInstruction string) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voice,
				},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		SystemInstruction:        genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Tools:                    []*genai.Tool{},
	}
}

// Connect validates config, tears down any prior session, and establishes
// a new one. The configuration check is a precondition, not a runtime
// race: missing modalities or system instruction fail before dialing.
func (c *Client) Connect(ctx context.Context, config *genai.LiveConnectConfig) error {
	if config == nil || len(config.ResponseModalities) == 0 || config.SystemInstruction == nil {
		return ErrMissingConfig
	}

	// A reconnect must fully tear down the previous session first so two
	// overlapping sessions never interleave events.
	c.Disconnect()

	session, err := c.genaiClient.Live.Connect(ctx, c.model, config)
	if err != nil {
		return fmt.Errorf("failed to connect live session: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.session = session
	c.recvDone = done
	c.mu.Unlock()

	go c.receive(session, done)

	c.logger.Info("Live session connected", zap.String("model", c.model))
	c.OnOpen.Emit(struct{}{})
	return nil
}

// Connected reports whether a session is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// SendRealtimeAudio forwards one base64 PCM16 chunk into the session.
func (c *Client) SendRealtimeAudio(mimeType, data string) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return errors.New("live session is not connected")
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("failed to decode audio chunk: %w", err)
	}
	return session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: mimeType,
			Data:     raw,
		},
	})
}

// Disconnect closes the current session, if any, and waits for its
// receive loop to drain. Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	session := c.session
	done := c.recvDone
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return
	}
	if err := session.Close(); err != nil {
		c.logger.Warn("Failed to close live session", zap.Error(err))
	}
	if done != nil {
		<-done
	}
}

// receive pumps server messages until the session ends, then emits close.
func (c *Client) receive(session *genai.Session, done chan struct{}) {
	defer close(done)

	var reason string
	for {
		msg, err := session.Receive()
		if err != nil {
			reason = err.Error()
			break
		}
		c.dispatch(msg)
	}

	c.mu.Lock()
	if c.session == session {
		c.session = nil
	}
	c.mu.Unlock()

	c.logger.Info("Live session closed", zap.String("reason", reason))
	c.OnClose.Emit(reason)
}

// dispatch maps one server message onto the local event surface.
func (c *Client) dispatch(msg *genai.LiveServerMessage) {
	if msg == nil || msg.ServerContent == nil {
		return
	}
	sc := msg.ServerContent

	if tr := sc.InputTranscription; tr != nil && (tr.Text != "" || tr.Finished) {
		c.OnInputTranscription.Emit(Transcription{Text: tr.Text, Final: tr.Finished})
	}
	if tr := sc.OutputTranscription; tr != nil && (tr.Text != "" || tr.Finished) {
		c.OnOutputTranscription.Emit(Transcription{Text: tr.Text, Final: tr.Finished})
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if strings.HasPrefix(part.InlineData.MIMEType, "audio/pcm") {
				c.OnAudio.Emit(part.InlineData.Data)
			}
		}
	}

	c.OnContent.Emit(sc)

	if sc.TurnComplete {
		c.OnTurnComplete.Emit(struct{}{})
	}
}
