package gateway

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// WebSocketHandler handles websocket upgrade requests for panel displays
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	board             *panel.Board
	broadcaster       *Broadcaster
}

func NewWebSocketHandler(cm *ConnectionManager, board *panel.Board, b *Broadcaster) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		board:             board,
		broadcaster:       b,
	}
}

// HandlePanelConnection handles GET /ws/panel?panel_id=...
func (h *WebSocketHandler) HandlePanelConnection(w http.ResponseWriter, r *http.Request) {
	panelID := r.URL.Query().Get("panel_id")
	if panelID == "" {
		http.Error(w, "panel_id is required", http.StatusBadRequest)
		return
	}

	p, err := h.board.Panel(panelID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, panelID)
	if err != nil {
		// The upgrader has already written the HTTP error.
		log.Error().
			Err(err).
			Str("panel_id", panelID).
			Msg("failed to upgrade websocket connection")
		return
	}

	// New displays start from the current state rather than waiting for the next change.
	snap, err := p.Snapshot(r.Context())
	if err != nil {
		log.Warn().Err(err).Str("panel_id", panelID).Msg("could not send initial snapshot")
		return
	}
	event, err := newPanelEvent(panelID, EventTypeSnapshot, h.broadcaster.clock.Now(), snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to build initial snapshot event")
		return
	}
	h.connectionManager.SendToConnection(conn, event)
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers websocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/panel", h.HandlePanelConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
