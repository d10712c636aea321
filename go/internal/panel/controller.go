package panel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/clock"
	"github.com/mcdev12/shotclock/go/internal/metrics"
)

const (
	// TickInterval is the nominal cadence of the panel loop while running.
	TickInterval = 50 * time.Millisecond

	// ShotResetDelay is how long an expired shot clock shows zero before the auto-reset.
	ShotResetDelay = 150 * time.Millisecond

	// NudgeStep is the size of one manual shot clock adjustment.
	NudgeStep = 5 * time.Second
)

// Controller owns one clock.Engine and drives it from a single loop goroutine.
//
// Ticks, the delayed shot auto-reset and every control command are executed by
// Run, one at a time, so the engine needs no locking. The exported command
// methods are safe for concurrent use; they hand work to the loop and wait for
// the resulting snapshot.
type Controller struct {
	id       string
	clock    clockwork.Clock
	engine   *clock.Engine
	notifier Notifier
	display  Display
	metrics  metrics.Collector
	logger   zerolog.Logger

	cmdCh   chan command
	done    chan struct{}
	started atomic.Bool

	// Owned by the loop goroutine; nil when not scheduled.
	ticker    clockwork.Ticker
	shotReset clockwork.Timer
}

type command struct {
	name    string
	mutates bool
	apply   func(ctx context.Context)
	reply   chan Snapshot
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source. In production, use clockwork.NewRealClock(). In tests, a FakeClock.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithNotifier sets the collaborator that receives expiry events.
func WithNotifier(n Notifier) Option {
	return func(ctl *Controller) { ctl.notifier = n }
}

// WithDisplay sets the collaborator that receives snapshots after each change.
func WithDisplay(d Display) Option {
	return func(ctl *Controller) { ctl.display = d }
}

// WithMetrics sets the tick and event metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// NewController creates an idle controller with a fresh engine. Call Run to start its loop.
func NewController(id string, opts ...Option) *Controller {
	c := &Controller{
		id:       id,
		clock:    clockwork.NewRealClock(),
		engine:   clock.NewEngine(),
		notifier: nopNotifier{},
		display:  nopDisplay{},
		metrics:  metrics.NoOpCollector{},
		cmdCh:    make(chan command),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.With().Str("panel_id", id).Logger()
	return c
}

// ID returns the panel id.
func (c *Controller) ID() string { return c.id }

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Run executes the panel loop until ctx is cancelled. Any pending tick or
// auto-reset is cancelled before it returns.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)
	defer c.teardown()

	c.logger.Info().Msg("panel loop started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("panel loop shutting down")
			return nil

		case cmd := <-c.cmdCh:
			c.handleCommand(ctx, cmd)

		case <-tickerChan(c.ticker):
			c.tick(ctx)

		case <-timerChan(c.shotReset):
			c.shotReset = nil
			c.executeShotReset(ctx)
		}
	}
}

// ToggleRun starts or pauses both clocks.
func (c *Controller) ToggleRun(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, command{name: "toggle_run", mutates: true, apply: func(ctx context.Context) {
		c.catchUp(ctx)
		running := c.engine.ToggleRun()
		c.logger.Info().
			Bool("running", running).
			Dur("main_remaining", c.engine.MainRemaining()).
			Dur("shot_remaining", c.engine.ShotRemaining()).
			Msg("toggled run state")
	}})
}

// ResetAll restores both clocks to their defaults and pauses.
func (c *Controller) ResetAll(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, command{name: "reset_all", mutates: true, apply: func(ctx context.Context) {
		c.engine.ResetAll()
		c.logger.Info().Msg("reset all clocks")
	}})
}

// ResetShot sets the shot clock to the currently active reset duration.
// A pending auto-reset is superseded.
func (c *Controller) ResetShot(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, command{name: "reset_shot", mutates: true, apply: func(ctx context.Context) {
		c.catchUp(ctx)
		c.cancelShotReset()
		c.engine.ResetShot()
		c.logger.Info().Dur("shot_remaining", c.engine.ShotRemaining()).Msg("reset shot clock")
	}})
}

// AdjustShot moves the shot clock by delta, clamped to [0, 60s].
// A pending auto-reset is superseded.
func (c *Controller) AdjustShot(ctx context.Context, delta time.Duration) (Snapshot, error) {
	return c.do(ctx, command{name: "adjust_shot", mutates: true, apply: func(ctx context.Context) {
		c.catchUp(ctx)
		c.cancelShotReset()
		c.engine.AdjustShot(delta)
		c.logger.Info().
			Dur("delta", delta).
			Dur("shot_remaining", c.engine.ShotRemaining()).
			Msg("adjusted shot clock")
	}})
}

// Snapshot returns the current panel state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, command{name: "snapshot", apply: func(context.Context) {}})
}

// do hands cmd to the loop and waits for the snapshot taken right after it ran.
func (c *Controller) do(ctx context.Context, cmd command) (Snapshot, error) {
	cmd.reply = make(chan Snapshot, 1)

	select {
	case c.cmdCh <- cmd:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrStopped
	}

	// The loop always replies to a command it accepted.
	select {
	case snap := <-cmd.reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (c *Controller) handleCommand(ctx context.Context, cmd command) {
	cmd.apply(ctx)

	snap := c.snapshot()
	if cmd.mutates {
		c.syncSchedule()
		snap = c.snapshot()
		c.display.Show(snap)
	}
	cmd.reply <- snap
}

// syncSchedule starts or cancels the tick loop to match the engine's running flag.
func (c *Controller) syncSchedule() {
	if !c.engine.Running() {
		c.stopTicker()
		c.cancelShotReset()
		return
	}
	if c.ticker == nil {
		c.startTicker()
		// Establish the baseline now so the interval before the first tick is not lost.
		c.engine.Advance(c.clock.Now())
	}
}

// tick is the periodic callback while running.
func (c *Controller) tick(ctx context.Context) {
	if !c.engine.Running() {
		c.logger.Debug().Msg("ignoring stale tick")
		c.stopTicker()
		return
	}
	if res := c.advance(ctx); res.Committed() {
		c.display.Show(c.snapshot())
	}
}

// catchUp applies pending elapsed time before a command mutates the engine.
func (c *Controller) catchUp(ctx context.Context) {
	if c.engine.Running() {
		c.advance(ctx)
	}
}

// advance runs one engine tick at the current instant and reacts to its events.
func (c *Controller) advance(ctx context.Context) clock.Result {
	res := c.engine.Advance(c.clock.Now())
	if !res.Committed() {
		return res
	}

	c.metrics.RecordTick(c.id, res.Elapsed)
	c.logger.Debug().
		Dur("elapsed", res.Elapsed).
		Dur("main_remaining", c.engine.MainRemaining()).
		Dur("shot_remaining", c.engine.ShotRemaining()).
		Msg("tick committed")

	for _, ev := range res.Events {
		c.handleEvent(ctx, ev)
	}
	return res
}

func (c *Controller) handleEvent(ctx context.Context, ev clock.Event) {
	c.metrics.RecordEvent(c.id, ev.String())

	switch ev {
	case clock.MainClockExpired:
		c.stopTicker()
		c.cancelShotReset()
		c.logger.Info().Msg("game clock expired")
	case clock.ShotClockExpired:
		c.scheduleShotReset()
		c.logger.Info().
			Dur("main_remaining", c.engine.MainRemaining()).
			Msg("shot clock expired")
	}

	c.notifier.Notify(ctx, Notification{
		PanelID:  c.id,
		Event:    ev,
		Pulse:    ev.Pulse(),
		At:       c.clock.Now(),
		Snapshot: c.snapshot(),
	})
}

// executeShotReset is the delayed auto-reset callback. Whether it still applies,
// and to which duration, is decided against the state at execution time.
func (c *Controller) executeShotReset(ctx context.Context) {
	if c.engine.Running() {
		c.advance(ctx)
	}
	if !c.engine.Running() || c.engine.MainRemaining() == 0 {
		c.logger.Debug().Msg("skipping shot auto-reset on stopped engine")
		return
	}

	c.engine.ResetShot()
	c.logger.Debug().Dur("shot_remaining", c.engine.ShotRemaining()).Msg("shot clock auto-reset")
	c.display.Show(c.snapshot())
}

func (c *Controller) snapshot() Snapshot {
	return snapshotOf(c.id, c.engine)
}
