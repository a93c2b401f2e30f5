package httpapi

import (
	"context"
	"net/http"
	"sort"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
)

const broadcastQueue = 256

// Hub fans LivePrice snapshots out to websocket subscribers.
// One goroutine (Run) owns the client set and the latest snapshot per symbol.
type Hub struct {
	Logger *logger.Logger

	clients    map[*Client]struct{}
	latest     map[string]livePriceResponse
	broadcast  chan []livePriceResponse
	register   chan *Client
	unregister chan *Client
	count      atomic.Int64
	done       chan struct{}
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		Logger:     log.Named("hub"),
		clients:    make(map[*Client]struct{}),
		latest:     make(map[string]livePriceResponse),
		broadcast:  make(chan []livePriceResponse, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns when ctx is cancelled, disconnecting every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			// initial state
			client.send <- streamMessage{Type: "snapshot", Prices: h.snapshot()}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case prices := <-h.broadcast:
			for _, p := range prices {
				h.latest[p.Symbol] = p
			}
			msg := streamMessage{Type: "update", Prices: prices}
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// slow consumer
					h.drop(client)
				}
			}
		}
	}
}

// Publish queues snapshots for broadcast without blocking the caller.
// When the queue is full the update is dropped; the next refresh supersedes it.
func (h *Hub) Publish(prices []*domain.LivePrice) {
	if len(prices) == 0 {
		return
	}
	select {
	case h.broadcast <- toLivePriceResponses(prices):
	default:
		h.Logger.Warning("Broadcast queue full, dropped %d price updates", len(prices))
	}
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	return int(h.count.Load())
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))
}

func (h *Hub) snapshot() []livePriceResponse {
	out := make([]livePriceResponse, 0, len(h.latest))
	for _, p := range h.latest {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *Hub) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan streamMessage, 16),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
