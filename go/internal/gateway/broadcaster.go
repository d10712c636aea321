package gateway

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/clock"
	"github.com/mcdev12/shotclock/go/internal/panel"
)

// Broadcaster pushes panel snapshots and expiry events to websocket clients.
// It is both a panel.Display and a panel.Notifier and never blocks the caller.
type Broadcaster struct {
	cm    *ConnectionManager
	clock clockwork.Clock
}

func NewBroadcaster(cm *ConnectionManager, clk clockwork.Clock) *Broadcaster {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Broadcaster{cm: cm, clock: clk}
}

func (b *Broadcaster) Show(s panel.Snapshot) {
	event, err := newPanelEvent(s.PanelID, EventTypeSnapshot, b.clock.Now(), s)
	if err != nil {
		log.Error().Err(err).Str("panel_id", s.PanelID).Msg("failed to build snapshot event")
		return
	}
	b.cm.BroadcastToPanel(s.PanelID, event)
}

func (b *Broadcaster) Notify(_ context.Context, n panel.Notification) {
	typ := EventTypeShotClockExpired
	if n.Event == clock.MainClockExpired {
		typ = EventTypeMainClockExpired
	}

	at := n.At
	if at.IsZero() {
		at = b.clock.Now()
	}
	event, err := newPanelEvent(n.PanelID, typ, at, ExpiryPayload{
		PulseMS:  n.Pulse.Milliseconds(),
		Snapshot: n.Snapshot,
	})
	if err != nil {
		log.Error().Err(err).Str("panel_id", n.PanelID).Msg("failed to build expiry event")
		return
	}
	b.cm.BroadcastToPanel(n.PanelID, event)
}

var (
	_ panel.Display  = (*Broadcaster)(nil)
	_ panel.Notifier = (*Broadcaster)(nil)
)
