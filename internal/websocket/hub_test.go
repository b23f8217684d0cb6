package websocket

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newHubClient(h *Hub, id string) *Client {
	return &Client{
		hub:      h,
		send:     make(chan []byte, 16),
		viewerID: id,
		logger:   zap.NewNop(),
	}
}

func waitForViewers(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ViewerCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d viewers, got %d", want, h.ViewerCount())
}

func TestBroadcastReachesAllViewers(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	a := newHubClient(h, "viewer-a")
	b := newHubClient(h, "viewer-b")
	h.register <- a
	h.register <- b
	waitForViewers(t, h, 2)

	h.Broadcast([]byte(`{"type":"volume"}`))

	for _, c := range []*Client{a, b} {
		select {
		case payload := <-c.send:
			if string(payload) != `{"type":"volume"}` {
				t.Errorf("unexpected payload %s", payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("viewer %s never received the broadcast", c.viewerID)
		}
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	c := newHubClient(h, "viewer-a")
	h.register <- c
	waitForViewers(t, h, 1)

	h.unregister <- c
	waitForViewers(t, h, 0)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected the send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel was never closed")
	}
}

func TestSlowViewerDropsFramesNotConnection(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	slow := &Client{hub: h, send: make(chan []byte, 1), viewerID: "slow", logger: zap.NewNop()}
	h.register <- slow
	waitForViewers(t, h, 1)

	for i := 0; i < 10; i++ {
		h.Broadcast([]byte("frame"))
	}
	time.Sleep(20 * time.Millisecond)

	if h.ViewerCount() != 1 {
		t.Error("a slow viewer must stay connected")
	}
	if len(slow.send) != 1 {
		t.Errorf("expected exactly the buffered frame, got %d", len(slow.send))
	}
}
