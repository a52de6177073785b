package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types pushed to browsers.
const (
	TypeRender       = "render"
	TypeNotification = "notification"
	TypeSpeech       = "speech"
	TypeBanner       = "banner"
	TypeStatus       = "status"
	TypeState        = "state"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	maxReadBytes = 4096
	sendBuffer   = 256
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ConnectObserver is told about client churn (metrics).
type ConnectObserver interface {
	ClientConnected()
	ClientDisconnected()
}

type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	greet     func() Message
	onMessage func(msg []byte)
	observer  ConnectObserver
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. greet, if set, builds the first message every new
// client receives. onMessage handles inbound text frames.
func NewHub(logger *zap.Logger, greet func() Message, onMessage func(msg []byte), observer ConnectObserver) *Hub {
	return &Hub{
		clients:    map[*client]bool{},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 1024),
		done:       make(chan struct{}),
		greet:      greet,
		onMessage:  onMessage,
		observer:   observer,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			if h.observer != nil {
				h.observer.ClientConnected()
			}
			h.logger.Info("client connected", zap.String("remote", c.conn.RemoteAddr().String()))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("slow client dropped", zap.String("remote", c.conn.RemoteAddr().String()))
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	if h.observer != nil {
		h.observer.ClientDisconnected()
	}
}

// Broadcast queues a typed message for every connected client. It never blocks;
// the message is dropped when the queue is full.
func (h *Hub) Broadcast(msgType string, v any) {
	b, err := marshal(msgType, v)
	if err != nil {
		h.logger.Error("failed to encode ws message", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.logger.Warn("broadcast queue full, message dropped", zap.String("type", msgType))
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	if h.greet != nil {
		g := h.greet()
		if b, err := marshal(g.Type, g.Data); err == nil {
			c.send <- b
		} else {
			h.logger.Error("failed to encode greeting", zap.Error(err))
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("ws read failed", zap.Error(err))
			}
			return
		}
		if c.hub.onMessage != nil {
			c.hub.onMessage(msg)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func marshal(msgType string, v any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Data: v})
}
