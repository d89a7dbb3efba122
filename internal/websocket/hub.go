package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"dailyreport/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single connected WebSocket client watching one report
type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	Send  chan []byte
	Topic string
}

type message struct {
	topic   string
	payload []byte
}

// Hub fans report events out to the clients subscribed to each report
type Hub struct {
	topics     map[string]map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *logrus.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the core dispatch loop for WebSocket events and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for topic, clients := range h.topics {
				for client := range clients {
					close(client.Send)
				}
				delete(h.topics, topic)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.topics[client.Topic] == nil {
				h.topics[client.Topic] = make(map[*Client]bool)
			}
			h.topics[client.Topic][client] = true
			h.mu.Unlock()
			h.log.WithField("report_id", client.Topic).Debug("websocket client subscribed")
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.topics[msg.topic] {
				select {
				case client.Send <- msg.payload:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.topics[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
		h.log.WithField("report_id", client.Topic).Debug("websocket client disconnected")
	}
	if len(clients) == 0 {
		delete(h.topics, client.Topic)
	}
}

// Subscribers counts the clients watching topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish queues event for the subscribers of topic. It never blocks; events
// are dropped when the queue is full.
func (h *Hub) Publish(topic string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Warn("failed to encode websocket event")
		return
	}
	select {
	case h.broadcast <- message{topic: topic, payload: payload}:
	default:
		h.log.WithField("report_id", topic).Warn("websocket queue full, event dropped")
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		// clients never send anything meaningful; reading detects the close
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithError(err).Debug("websocket read failed")
			}
			break
		}
	}
}

// Authorizer decides whether userID may watch reportID.
type Authorizer func(ctx context.Context, userID, reportID uuid.UUID) error

// ServeWs upgrades an authenticated request into a subscription on ?report_id=
func ServeWs(hub *Hub, c *gin.Context, secret []byte, authorize Authorizer) {
	tokenString := c.Query("token")
	if tokenString == "" {
		hub.log.Warn("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	identity, err := middleware.ParseToken(tokenString, secret)
	if err != nil {
		hub.log.WithError(err).Warn("websocket connection rejected: invalid token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	reportID, err := uuid.Parse(c.Query("report_id"))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	if err := authorize(c.Request.Context(), identity.UserID, reportID); err != nil {
		hub.log.WithError(err).WithField("report_id", reportID).Warn("websocket connection rejected")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), Topic: reportID.String()}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
