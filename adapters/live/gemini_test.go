package live

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

func newTestClient() *Client {
	return NewClient(nil, "", zap.NewNop())
}

func TestConnectRejectsIncompleteConfig(t *testing.T) {
	c := newTestClient()

	cases := []*genai.LiveConnectConfig{
		nil,
		{},
		{ResponseModalities: []genai.Modality{genai.ModalityAudio}},
		{SystemInstruction: genai.NewContentFromText("Tell tales.", genai.RoleUser)},
	}
	for i, config := range cases {
		if err := c.Connect(context.Background(), config); err != ErrMissingConfig {
			t.Errorf("case %d: expected ErrMissingConfig, got %v", i, err)
		}
	}
}

func TestSessionConfigCarriesVoiceAndInstruction(t *testing.T) {
	config := SessionConfig("Zephyr", "You are a storyteller.")

	if len(config.ResponseModalities) != 1 || config.ResponseModalities[0] != genai.ModalityAudio {
		t.Errorf("expected audio modality, got %v", config.ResponseModalities)
	}
	if got := config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Zephyr" {
		t.Errorf("expected voice Zephyr, got %s", got)
	}
	if config.InputAudioTranscription == nil || config.OutputAudioTranscription == nil {
		t.Error("both transcription directions must be enabled")
	}
	if config.SystemInstruction == nil {
		t.Fatal("expected a system instruction")
	}
}

func TestDispatchEmitsTranscriptions(t *testing.T) {
	c := newTestClient()

	var input, output []Transcription
	c.OnInputTranscription.Attach(func(tr Transcription) { input = append(input, tr) })
	c.OnOutputTranscription.Attach(func(tr Transcription) { output = append(output, tr) })

	c.dispatch(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		InputTranscription: &genai.Transcription{Text: "what if", Finished: false},
	}})
	c.dispatch(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		OutputTranscription: &genai.Transcription{Text: "Once upon", Finished: false},
	}})
	c.dispatch(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		OutputTranscription: &genai.Transcription{Finished: true},
	}})

	if len(input) != 1 || input[0].Text != "what if" || input[0].Final {
		t.Errorf("unexpected input transcriptions: %+v", input)
	}
	if len(output) != 2 {
		t.Fatalf("expected 2 output transcriptions, got %d", len(output))
	}
	if output[0].Text != "Once upon" || output[0].Final {
		t.Errorf("unexpected first output fragment: %+v", output[0])
	}
	if output[1].Text != "" || !output[1].Final {
		t.Errorf("expected an empty final marker, got %+v", output[1])
	}
}

func TestDispatchEmitsInlineAudioOnly(t *testing.T) {
	c := newTestClient()

	var chunks [][]byte
	c.OnAudio.Attach(func(b []byte) { chunks = append(chunks, b) })

	c.dispatch(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		ModelTurn: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "audio/pcm;rate=24000", Data: []byte{1, 2, 3, 4}}},
			{Text: "narration"},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{9}}},
			{InlineData: &genai.Blob{MIMEType: "audio/pcm;rate=24000"}},
		}},
	}})

	if len(chunks) != 1 {
		t.Fatalf("expected exactly one audio chunk, got %d", len(chunks))
	}
	if len(chunks[0]) != 4 {
		t.Errorf("expected the 4-byte pcm payload, got %d bytes", len(chunks[0]))
	}
}

func TestDispatchEmitsTurnComplete(t *testing.T) {
	c := newTestClient()

	completes := 0
	c.OnTurnComplete.Attach(func(struct{}) { completes++ })

	c.dispatch(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{}})
	c.dispatch(&genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{TurnComplete: true}})
	c.dispatch(nil)
	c.dispatch(&genai.LiveServerMessage{})

	if completes != 1 {
		t.Errorf("expected one turn completion, got %d", completes)
	}
}

func TestSendRealtimeAudioRequiresSession(t *testing.T) {
	c := newTestClient()
	if err := c.SendRealtimeAudio(CaptureMIMEType, "AAAA"); err == nil {
		t.Error("expected an error when no session is connected")
	}
}

func TestDisconnectWithoutSessionIsANoOp(t *testing.T) {
	c := newTestClient()
	c.Disconnect()
	c.Disconnect()
	if c.Connected() {
		t.Error("expected no session")
	}
}
