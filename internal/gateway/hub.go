// Package gateway exposes backtest runs to UI clients: a small REST API to
// request a run and a WebSocket hub that pushes completed results to every
// connected client. Presentation (charts, tables) lives entirely client-side.
package gateway

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"quantdash/internal/metrics"
)

// Hub manages WebSocket clients and fans completed backtest results out to
// them. Slow clients drop frames rather than stall the hub.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	prom    *metrics.Metrics // may be nil
}

// NewHub creates an empty hub.
func NewHub(prom *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		prom:    prom,
	}
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}
	close(c.send)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastResult pushes a completed backtest result to every client.
func (h *Hub) BroadcastResult(res *ResultOut) {
	envelope, err := json.Marshal(map[string]any{
		"type":   "backtest",
		"result": res,
	})
	if err != nil {
		log.Printf("[gateway] marshal broadcast: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- envelope:
		default:
			// client too slow, drop this frame
		}
	}
}
