package clock

import "time"

const (
	// DefaultGameDuration is the game clock value after construction and ResetAll.
	DefaultGameDuration = 10 * time.Minute

	// DefaultShotDuration is the shot clock reset value while the game clock is above FinalMinutesThreshold.
	DefaultShotDuration = 15 * time.Second

	// FinalMinutesShotDuration is the shot clock reset value once the game clock is at or below FinalMinutesThreshold.
	FinalMinutesShotDuration = 10 * time.Second

	// FinalMinutesThreshold switches the shot reset mode.
	FinalMinutesThreshold = 2 * time.Minute

	// MaxShotDuration caps manual shot clock adjustments.
	MaxShotDuration = 60 * time.Second

	// MinTickGranularity is the smallest elapsed interval Advance commits.
	MinTickGranularity = 100 * time.Millisecond
)

// State is the top-level mode of an Engine.
type State int

const (
	// StateIdle is paused with time left on the game clock.
	StateIdle State = iota
	// StateRunning is counting down both clocks.
	StateRunning
	// StateMainExpired is stopped with the game clock at zero until ResetAll.
	StateMainExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateMainExpired:
		return "main_expired"
	default:
		return "unknown"
	}
}

// Engine owns the game clock and shot clock of one panel.
//
// An Engine is not safe for concurrent use. Its owner must serialize every call,
// which the panel controller does by driving it from a single loop goroutine.
type Engine struct {
	main    time.Duration
	shot    time.Duration
	running bool

	// lastTick is the zero Time when no baseline has been established.
	lastTick time.Time
}

// NewEngine returns an idle engine holding the default durations.
func NewEngine() *Engine {
	return &Engine{
		main: DefaultGameDuration,
		shot: DefaultShotDuration,
	}
}

// ActiveResetDuration returns the shot clock reset value for the given game clock value.
func ActiveResetDuration(main time.Duration) time.Duration {
	if main <= FinalMinutesThreshold {
		return FinalMinutesShotDuration
	}
	return DefaultShotDuration
}

// ActiveResetDuration is recomputed on every call; it is never cached, so crossing the
// threshold mid-count only affects the next reset.
func (e *Engine) ActiveResetDuration() time.Duration {
	return ActiveResetDuration(e.main)
}

// MainRemaining returns the time left on the game clock.
func (e *Engine) MainRemaining() time.Duration { return e.main }

// ShotRemaining returns the time left on the shot clock.
func (e *Engine) ShotRemaining() time.Duration { return e.shot }

// Running reports whether both clocks are counting down.
func (e *Engine) Running() bool { return e.running }

// State derives the engine mode from its fields.
func (e *Engine) State() State {
	switch {
	case e.running:
		return StateRunning
	case e.main == 0:
		return StateMainExpired
	default:
		return StateIdle
	}
}

// ToggleRun flips the running flag and reports the new value. Entering the running
// state clears the tick baseline so time spent paused is never applied.
// A game clock at zero cannot be started; only ResetAll leaves StateMainExpired.
func (e *Engine) ToggleRun() bool {
	if !e.running && e.main == 0 {
		return false
	}
	e.running = !e.running
	e.lastTick = time.Time{}
	return e.running
}

// ResetAll restores the default durations and stops the engine.
func (e *Engine) ResetAll() {
	e.main = DefaultGameDuration
	e.shot = DefaultShotDuration
	e.running = false
	e.lastTick = time.Time{}
}

// ResetShot sets the shot clock to the currently active reset duration.
func (e *Engine) ResetShot() {
	e.shot = e.ActiveResetDuration()
}

// AdjustShot nudges the shot clock by delta, clamped to [0, MaxShotDuration].
func (e *Engine) AdjustShot(delta time.Duration) {
	// Saturate before adding so extreme deltas cannot overflow.
	switch {
	case delta >= MaxShotDuration:
		e.shot = MaxShotDuration
	case delta <= -MaxShotDuration:
		e.shot = 0
	default:
		e.shot = clamp(e.shot+delta, 0, MaxShotDuration)
	}
}

// Result describes what a single Advance call committed.
type Result struct {
	// Elapsed is the wall-clock interval subtracted from both clocks, zero when nothing was committed.
	Elapsed time.Duration
	Events  []Event
}

// Committed reports whether the call changed the remaining durations.
func (r Result) Committed() bool { return r.Elapsed > 0 }

// Advance applies the wall-clock time measured since the previous committed tick.
//
// The first call after (re)start only records now as the baseline. Intervals shorter
// than MinTickGranularity are left to accumulate, and a now earlier than the baseline
// is ignored. Because the measured interval is subtracted rather than a nominal
// tick, the aggregate is exact however the calls are spaced.
func (e *Engine) Advance(now time.Time) Result {
	if !e.running {
		return Result{}
	}
	if e.lastTick.IsZero() {
		e.lastTick = now
		return Result{}
	}

	elapsed := now.Sub(e.lastTick)
	if elapsed < MinTickGranularity {
		return Result{}
	}

	prevMain, prevShot := e.main, e.shot
	e.main = max(0, e.main-elapsed)
	e.shot = max(0, e.shot-elapsed)
	e.lastTick = now

	var res Result
	res.Elapsed = elapsed

	if prevMain > 0 && e.main == 0 {
		res.Events = append(res.Events, MainClockExpired)
		e.running = false
		e.lastTick = time.Time{}
	}
	if prevShot > 0 && e.shot == 0 && e.running && e.main > 0 {
		res.Events = append(res.Events, ShotClockExpired)
	}

	return res
}

func clamp(d, lo, hi time.Duration) time.Duration {
	return min(max(d, lo), hi)
}
