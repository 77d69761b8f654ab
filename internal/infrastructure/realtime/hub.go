package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/api/metrics"
	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// Hub tracks connected clients and broadcasts to the open ones.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	opts    ClientOptions
	log     zerolog.Logger
}

var _ ports.StationEvents = (*Hub)(nil)

func NewHub(opts ClientOptions, log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		opts:    opts.withDefaults(),
		log:     log,
	}
}

// Register adopts conn as a new client in the Connecting state. Messages
// queued before Open are delivered ahead of any broadcast.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := newClient(uuid.NewString(), conn, h, h.opts)
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.Debug().Str("client_id", c.id).Str("remote", conn.RemoteAddr().String()).Msg("websocket client connecting")
	return c
}

// Open moves c to the Open state so that it receives broadcasts.
func (h *Hub) Open(c *Client) {
	if c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		metrics.WebsocketConnections.Inc()
		h.log.Info().Str("client_id", c.id).Msg("websocket client open")
	}
}

func (h *Hub) unregister(c *Client, wasOpen bool) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	if wasOpen {
		metrics.WebsocketConnections.Dec()
	}
	h.log.Info().Str("client_id", c.id).Msg("websocket client closed")
}

// Broadcast sends a message to every open client. A client whose send queue
// is full is closed rather than allowed to stall the others.
func (h *Hub) Broadcast(msgType string, payload any) {
	msg, err := Encode(msgType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("broadcast encode failed")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.State() == StateOpen {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(msg) {
			metrics.SlowClientsDroppedTotal.Inc()
			h.log.Warn().Str("client_id", c.id).Str("type", msgType).Msg("client send queue full, closing")
			c.Close()
		}
	}
	metrics.BroadcastsTotal.WithLabelValues(msgType).Inc()
}

func (h *Hub) StationAvailabilityChanged(s *domain.ChargingStation) {
	h.Broadcast(TypeStationAvailabilityUpdated, AvailabilityPayload{ID: s.ID, Available: s.Available})
}

func (h *Hub) StationRenewableChanged(s *domain.ChargingStation) {
	h.Broadcast(TypeStationRenewableUpdated, RenewablePayload{ID: s.ID, RenewablePercentage: s.RenewablePercentage})
}

// OpenCount returns the number of clients in the Open state.
func (h *Hub) OpenCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.State() == StateOpen {
			n++
		}
	}
	return n
}

// Shutdown closes every client.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.Close()
	}
}
