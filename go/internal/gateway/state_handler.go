package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/metrics"
	"github.com/mcdev12/shotclock/go/internal/panel"
)

// PanelList is the body of GET /api/panels.
type PanelList struct {
	Panels []panel.Snapshot `json:"panels"`
}

// TickSummarizer reports committed tick statistics.
type TickSummarizer interface {
	Summary() metrics.Summary
}

// StateHandler serves panel state and control over plain HTTP.
type StateHandler struct {
	board *panel.Board
	ticks TickSummarizer
}

func NewStateHandler(board *panel.Board, ticks TickSummarizer) *StateHandler {
	return &StateHandler{board: board, ticks: ticks}
}

// HandleListPanels handles GET /api/panels
func (h *StateHandler) HandleListPanels(w http.ResponseWriter, r *http.Request) {
	list := PanelList{Panels: make([]panel.Snapshot, 0, len(h.board.IDs()))}
	for _, p := range h.board.Panels() {
		snap, err := p.Snapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		list.Panels = append(list.Panels, snap)
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetPanelState handles GET /api/panels/{id}/state
func (h *StateHandler) HandleGetPanelState(w http.ResponseWriter, r *http.Request) {
	p, err := h.board.Panel(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := p.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandlePanelAction handles POST /api/panels/{id}/{action}
func (h *StateHandler) HandlePanelAction(w http.ResponseWriter, r *http.Request) {
	panelID := r.PathValue("id")
	p, err := h.board.Panel(panelID)
	if err != nil {
		writeError(w, err)
		return
	}

	action, err := ParseAction(r.PathValue("action"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := action.Apply(r.Context(), p)
	if err != nil {
		log.Error().Err(err).Str("panel_id", panelID).Str("action", string(action)).Msg("panel action failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleTicks handles GET /debug/ticks
func (h *StateHandler) HandleTicks(w http.ResponseWriter, r *http.Request) {
	if h.ticks == nil {
		writeJSON(w, http.StatusOK, metrics.Summary{Panels: []metrics.PanelSummary{}})
		return
	}
	writeJSON(w, http.StatusOK, h.ticks.Summary())
}

// RegisterStateRoutes registers state and control routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/panels", h.HandleListPanels)
	mux.HandleFunc("GET /api/panels/{id}/state", h.HandleGetPanelState)
	mux.HandleFunc("POST /api/panels/{id}/{action}", h.HandlePanelAction)
	mux.HandleFunc("GET /debug/ticks", h.HandleTicks)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorPayload{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, panel.ErrUnknownPanel):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, panel.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
