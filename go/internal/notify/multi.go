package notify

import (
	"context"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// Multi delivers each notification to every notifier in order.
type Multi []panel.Notifier

func (m Multi) Notify(ctx context.Context, n panel.Notification) {
	for _, next := range m {
		next.Notify(ctx, n)
	}
}
