package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// LogNotifier writes every expiry event to a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a notifier that logs on the global logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.With().Str("component", "notifier").Logger()}
}

// NewLogNotifierWith logs on the given logger.
func NewLogNotifierWith(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n panel.Notification) {
	l.logger.Info().
		Str("panel_id", n.PanelID).
		Str("event", n.Event.String()).
		Dur("pulse", n.Pulse).
		Str("main", n.Snapshot.MainText).
		Str("shot", n.Snapshot.ShotText).
		Msg("buzzer")
}
