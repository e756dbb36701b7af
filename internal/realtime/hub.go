package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"trading-panel/internal/dto"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 32
)

type EventType string

const (
	EventPositions EventType = "positions"
	EventAlerts    EventType = "alerts"
	EventScreener  EventType = "screener"
)

type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans projection events out to websocket clients. New clients receive the
// latest event of every type on connect.
type Hub struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  map[EventType][]byte
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
		latest:  make(map[EventType][]byte),
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Latest returns the last event published for the type.
func (h *Hub) Latest(eventType EventType) (json.RawMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.latest[eventType]
	return b, ok
}

func (h *Hub) Broadcast(eventType EventType, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, At: utils.TimeNowUTC()})
	if err != nil {
		h.log.Error("Failed to encode realtime event", logger.StringField("type", string(eventType)), logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	h.latest[eventType] = payload
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	if len(slow) > 0 {
		h.log.Warn("Dropped slow realtime clients", logger.IntField("count", len(slow)))
	}
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	for _, payload := range h.latest {
		c.send <- payload
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("Realtime client connected", logger.IntField("clients", total))

	utils.GoSafe(func() { h.writePump(c) })
	h.readPump(c)
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readPump only consumes control frames; clients do not send commands.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// Publisher pushes engine projections to the hub.
type Publisher struct {
	hub *Hub
}

func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) PublishPositions(ctx context.Context, projections []dto.PositionProjection) {
	p.hub.Broadcast(EventPositions, projections)
}

func (p *Publisher) PublishAlerts(ctx context.Context, alerts []dto.Alert) {
	p.hub.Broadcast(EventAlerts, alerts)
}

func (p *Publisher) PublishScreener(ctx context.Context, pairs []dto.ScreenerPair) {
	p.hub.Broadcast(EventScreener, pairs)
}
