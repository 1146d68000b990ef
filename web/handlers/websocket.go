package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/tailored-ai/eve/pkg/types"
)

// insightEnvelope is the wire format pushed to connected clients.
type insightEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InsightHub pushes proactive insights to connected WebSocket clients as
// they are generated. It implements agent.InsightNotifier.
type InsightHub struct {
	clients    map[hubClient]bool
	broadcast  chan insightEnvelope
	register   chan hubClient
	unregister chan hubClient
	origins    []string
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// hubClient abstracts the connection so tests can register mock clients.
type hubClient interface {
	sendChannel() chan []byte
	close()
}

// NewInsightHub creates a hub. allowedOrigins are host:port patterns
// accepted during the WebSocket handshake.
func NewInsightHub(allowedOrigins []string) *InsightHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &InsightHub{
		clients:    make(map[hubClient]bool),
		broadcast:  make(chan insightEnvelope, 256),
		register:   make(chan hubClient),
		unregister: make(chan hubClient),
		origins:    allowedOrigins,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NotifyInsight queues an insight for push delivery. Non-blocking; when the
// queue is full the insight is dropped and still reachable via the REST API.
func (h *InsightHub) NotifyInsight(insight types.ProactiveInsight) {
	select {
	case h.broadcast <- insightEnvelope{Type: "insight", Data: insight}:
	default:
		log.Println("handlers: insight broadcast queue full, dropping push")
	}
}

// Run processes register, unregister and broadcast events until Stop.
func (h *InsightHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("handlers: insight client connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.sendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("handlers: insight client disconnected (total: %d)", count)

		case envelope := <-h.broadcast:
			data, err := json.Marshal(envelope)
			if err != nil {
				log.Printf("handlers: failed to marshal insight push: %v", err)
				continue
			}
			// Full lock: slow clients are evicted from the map below.
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.sendChannel() <- data:
				default:
					close(client.sendChannel())
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *InsightHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.sendChannel())
		client.close()
	}
	h.clients = make(map[hubClient]bool)
	h.mu.Unlock()
}

// Register adds a client to the hub.
func (h *InsightHub) Register(client hubClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *InsightHub) Unregister(client hubClient) {
	h.unregister <- client
}

// ServeHTTP upgrades the request to a WebSocket connection and streams
// insight pushes to it.
func (h *InsightHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		log.Printf("handlers: websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// wsClient is a live WebSocket connection.
type wsClient struct {
	hub  *InsightHub
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) sendChannel() chan []byte {
	return c.send
}

func (c *wsClient) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (c *wsClient) writePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			return
		}
	}
}

// readPump drains inbound frames so closes are noticed. Clients have
// nothing to say to the hub yet.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			return
		}
	}
}

// MockClient is a test stand-in for a connected client.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) sendChannel() chan []byte {
	return m.SendChan
}

func (m *MockClient) close() {}
