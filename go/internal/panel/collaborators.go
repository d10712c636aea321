package panel

import (
	"context"
	"time"

	"github.com/mcdev12/shotclock/go/internal/clock"
)

// Notification is delivered to a Notifier when the engine emits an event.
type Notification struct {
	PanelID  string
	Event    clock.Event
	Pulse    time.Duration
	At       time.Time
	Snapshot Snapshot
}

// Notifier receives expiry events (haptics, buzzers, logs).
// Notify is called from the panel loop and must not block; wrap slow
// implementations with notify.Async.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Display receives a snapshot after every committed change.
// Like Notifier it is called from the panel loop and must not block.
type Display interface {
	Show(s Snapshot)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(s Snapshot)

func (f DisplayFunc) Show(s Snapshot) { f(s) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

type nopDisplay struct{}

func (nopDisplay) Show(Snapshot) {}
