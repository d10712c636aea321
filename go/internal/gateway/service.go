package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// Service is the display gateway: websocket fan-out, HTTP state API and Connect control.
type Service struct {
	connectionManager *ConnectionManager
	broadcaster       *Broadcaster
	board             *panel.Board
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	panelService      *PanelService
}

// NewService wires the gateway to a board. The board's controllers are expected to use
// broadcaster as their display and notifier.
func NewService(cm *ConnectionManager, broadcaster *Broadcaster, board *panel.Board, ticks TickSummarizer) *Service {
	s := &Service{
		connectionManager: cm,
		broadcaster:       broadcaster,
		board:             board,
		wsHandler:         NewWebSocketHandler(cm, board, broadcaster),
		stateHandler:      NewStateHandler(board, ticks),
		panelService:      NewPanelService(board),
	}
	cm.setDispatcher(s.dispatch)
	return s
}

// Start runs the connection manager until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Strs("panels", s.board.IDs()).Msg("starting panel gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("panel gateway stopped")
	return nil
}

// RegisterRoutes registers websocket, state and RPC routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)

	path, handler := NewPanelServiceHandler(s.panelService)
	mux.Handle(path, handler)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
	log.Info().Msg("panel gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

func (s *Service) dispatch(ctx context.Context, panelID string, action Action) (*PanelEvent, error) {
	p, err := s.board.Panel(panelID)
	if err != nil {
		return nil, err
	}
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}

	snap, err := action.Apply(ctx, p)
	if err != nil {
		return nil, err
	}
	return newPanelEvent(panelID, EventTypeCommandResult, s.broadcaster.clock.Now(), CommandResultPayload{
		Action:   action,
		Snapshot: snap,
	})
}
