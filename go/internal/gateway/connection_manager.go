package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Dispatcher executes a control action for a panel on behalf of a websocket client.
type Dispatcher func(ctx context.Context, panelID string, action Action) (*PanelEvent, error)

// ConnectionManager keeps one room of websocket clients per panel and fans
// panel events out to them.
type ConnectionManager struct {
	mu    sync.RWMutex
	rooms map[string]room

	upgrader websocket.Upgrader
	config   ConnectionConfig

	outbox   chan BroadcastMessage
	dispatch Dispatcher
}

type room map[*Connection]struct{}

// ConnectionConfig holds configuration for websocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is one event addressed to a panel room, or to a single
// client of that room when ConnectionID is set.
type BroadcastMessage struct {
	PanelID      string
	Event        *PanelEvent
	ConnectionID string
}

// ConnectionStats summarises active connections.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActivePanels     int            `json:"active_panels"`
	PanelConnections map[string]int `json:"panel_connections"`
}

// DefaultConnectionConfig returns default websocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// A running panel pushes a snapshot at most every 100ms.
		SendBufferSize:  64,
		BroadcastBuffer: 1000,
		// Scoreboards are served from arbitrary local hosts.
		CheckOrigin: func(*http.Request) bool { return true },
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		rooms: make(map[string]room),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		outbox: make(chan BroadcastMessage, config.BroadcastBuffer),
	}
}

// setDispatcher wires client commands to the panels. Must be called before Start.
func (cm *ConnectionManager) setDispatcher(d Dispatcher) {
	cm.dispatch = d
}

// Start delivers queued events until ctx is cancelled, then disconnects every client.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("panel rooms open")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("panel rooms closed")
			return
		case msg := <-cm.outbox:
			cm.deliver(msg)
		}
	}
}

// UpgradeConnection upgrades the request to a websocket and joins the client to panelID's room.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, panelID string) (*Connection, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		PanelID:     panelID,
		ConnectedAt: time.Now(),
		ws:          ws,
		send:        make(chan []byte, cm.config.SendBufferSize),
		cm:          cm,
	}
	cm.join(c)

	go c.writePump()
	go c.readPump()

	return c, nil
}

func (cm *ConnectionManager) join(c *Connection) {
	cm.mu.Lock()
	r, ok := cm.rooms[c.PanelID]
	if !ok {
		r = make(room)
		cm.rooms[c.PanelID] = r
	}
	r[c] = struct{}{}
	size := len(r)
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", c.ID).
		Str("panel_id", c.PanelID).
		Int("room_size", size).
		Msg("client joined panel")
}

// leave removes c from its room and closes its send queue. Safe to call more than once.
func (cm *ConnectionManager) leave(c *Connection) {
	cm.mu.Lock()
	r := cm.rooms[c.PanelID]
	if _, ok := r[c]; !ok {
		cm.mu.Unlock()
		return
	}
	delete(r, c)
	if len(r) == 0 {
		delete(cm.rooms, c.PanelID)
	}
	close(c.send)
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", c.ID).
		Str("panel_id", c.PanelID).
		Dur("connected_for", time.Since(c.ConnectedAt)).
		Msg("client left panel")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, r := range cm.rooms {
		for c := range r {
			all = append(all, c)
		}
	}
	cm.mu.RUnlock()

	for _, c := range all {
		cm.leave(c)
	}
}

// BroadcastToPanel queues an event for every client of a panel. It never blocks.
func (cm *ConnectionManager) BroadcastToPanel(panelID string, event *PanelEvent) {
	cm.enqueue(BroadcastMessage{PanelID: panelID, Event: event})
}

// SendToConnection queues an event for a single client. It never blocks.
func (cm *ConnectionManager) SendToConnection(c *Connection, event *PanelEvent) {
	cm.enqueue(BroadcastMessage{PanelID: c.PanelID, Event: event, ConnectionID: c.ID})
}

func (cm *ConnectionManager) enqueue(msg BroadcastMessage) {
	select {
	case cm.outbox <- msg:
	default:
		log.Warn().
			Str("panel_id", msg.PanelID).
			Str("connection_id", msg.ConnectionID).
			Str("event_type", string(msg.Event.Type)).
			Msg("outbox full, dropping panel event")
	}
}

func (cm *ConnectionManager) deliver(msg BroadcastMessage) {
	data, err := json.Marshal(msg.Event)
	if err != nil {
		log.Error().Err(err).Str("panel_id", msg.PanelID).Msg("failed to encode panel event")
		return
	}

	// Queue under the read lock: leave closes send queues under the write lock.
	var slow []*Connection
	delivered := 0
	cm.mu.RLock()
	for c := range cm.rooms[msg.PanelID] {
		if msg.ConnectionID != "" && c.ID != msg.ConnectionID {
			continue
		}
		select {
		case c.send <- data:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	cm.mu.RUnlock()

	for _, c := range slow {
		log.Warn().
			Str("connection_id", c.ID).
			Str("panel_id", c.PanelID).
			Msg("client is not keeping up, disconnecting")
		cm.leave(c)
		c.ws.Close()
	}

	log.Debug().
		Str("event_type", string(msg.Event.Type)).
		Str("panel_id", msg.PanelID).
		Int("delivered", delivered).
		Msg("panel event delivered")
}

// GetConnectionStats reports the number of clients per panel.
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActivePanels:     len(cm.rooms),
		PanelConnections: make(map[string]int, len(cm.rooms)),
	}
	for panelID, r := range cm.rooms {
		stats.TotalConnections += len(r)
		stats.PanelConnections[panelID] = len(r)
	}
	return stats
}
