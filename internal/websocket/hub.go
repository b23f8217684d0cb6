package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Viewers only send small
	// control frames.
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The viewer page is served from the same process.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected viewers and fans session events out
// to all of them. Viewers are read-only observers of the story session;
// they never inject audio or turns.
type Hub struct {
	// Registered viewers.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Outbound broadcast payloads.
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	logger *zap.Logger
}

// NewHub creates a new viewer hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.viewerID] = client
			h.mu.Unlock()
			h.logger.Info("Viewer registered", zap.String("viewerID", client.viewerID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.viewerID]; ok {
				delete(h.clients, client.viewerID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Viewer unregistered", zap.String("viewerID", client.viewerID))

		case payload := <-h.broadcast:
			h.mu.RLock()
			for id, client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// A viewer that cannot keep up loses frames, not
					// the whole connection.
					h.logger.Warn("Viewer send buffer full, dropping frame",
						zap.String("viewerID", id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues one payload for every connected viewer.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping frame")
	}
}

// ViewerCount returns the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is a middleman between one viewer's websocket connection and
// the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Viewer ID for this client
	viewerID string

	logger *zap.Logger
}

// HandleViewer upgrades the request and attaches a pre-authenticated
// viewer to the hub.
func HandleViewer(hub *Hub, c echo.Context, viewerID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		viewerID: viewerID,
		logger:   logger,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump drains the connection so control frames are processed and a
// closed peer is detected. Viewer payloads are ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
	}
}

// writePump pumps broadcast payloads from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
