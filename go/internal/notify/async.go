package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// DefaultQueueSize bounds the number of notifications waiting for delivery.
const DefaultQueueSize = 64

type queued struct {
	ctx context.Context
	n   panel.Notification
}

// Async hands notifications to a single worker goroutine so a slow notifier
// never stalls a panel loop. When the queue is full new notifications are dropped.
type Async struct {
	next  panel.Notifier
	queue chan queued
	quit  chan struct{}
	done  chan struct{}

	// mu orders enqueues against Close: nothing is queued once closed is set.
	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the delivery worker. Call Close to stop it.
func NewAsync(next panel.Notifier, size int) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	a := &Async{
		next:  next,
		queue: make(chan queued, size),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go a.worker()
	return a
}

func (a *Async) Notify(ctx context.Context, n panel.Notification) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}

	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), n: n}:
	default:
		log.Warn().
			Str("panel_id", n.PanelID).
			Str("event", n.Event.String()).
			Msg("notification queue full, dropping event")
	}
}

// Close stops accepting notifications, delivers what is already queued and
// waits for the worker to exit.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.quit)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *Async) worker() {
	defer close(a.done)
	for {
		select {
		case q := <-a.queue:
			a.next.Notify(q.ctx, q.n)
		case <-a.quit:
			for {
				select {
				case q := <-a.queue:
					a.next.Notify(q.ctx, q.n)
				default:
					return
				}
			}
		}
	}
}
