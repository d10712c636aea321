package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

// runningAt returns a running engine with an established baseline at t0.
func runningAt(main, shot time.Duration) *Engine {
	e := &Engine{main: main, shot: shot}
	e.ToggleRun()
	e.Advance(t0)
	return e
}

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

func TestNewEngine(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, DefaultGameDuration, e.MainRemaining())
	assert.Equal(t, DefaultShotDuration, e.ShotRemaining())
	assert.False(t, e.Running())
	assert.Equal(t, StateIdle, e.State())
	assert.True(t, e.lastTick.IsZero())
}

func TestAdvance(t *testing.T) {
	t.Run("ignored while paused", func(t *testing.T) {
		e := NewEngine()
		res := e.Advance(t0)

		assert.False(t, res.Committed())
		assert.True(t, e.lastTick.IsZero())
		assert.Equal(t, DefaultGameDuration, e.MainRemaining())
	})

	t.Run("first call only sets the baseline", func(t *testing.T) {
		e := NewEngine()
		e.ToggleRun()

		res := e.Advance(t0)

		assert.False(t, res.Committed())
		assert.Equal(t, t0, e.lastTick)
		assert.Equal(t, DefaultGameDuration, e.MainRemaining())
		assert.Equal(t, DefaultShotDuration, e.ShotRemaining())
	})

	t.Run("intervals below granularity accumulate", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, DefaultShotDuration)

		assert.False(t, e.Advance(t0.Add(ms(50))).Committed())
		assert.False(t, e.Advance(t0.Add(ms(99))).Committed())
		assert.Equal(t, t0, e.lastTick)

		res := e.Advance(t0.Add(ms(100)))
		assert.Equal(t, ms(100), res.Elapsed)
		assert.Equal(t, DefaultGameDuration-ms(100), e.MainRemaining())
		assert.Equal(t, DefaultShotDuration-ms(100), e.ShotRemaining())
	})

	t.Run("non-monotonic instant is ignored", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, DefaultShotDuration)

		res := e.Advance(t0.Add(-5 * time.Second))

		assert.False(t, res.Committed())
		assert.Empty(t, res.Events)
		assert.Equal(t, t0, e.lastTick)
		assert.Equal(t, DefaultGameDuration, e.MainRemaining())
		assert.Equal(t, DefaultShotDuration, e.ShotRemaining())
	})

	t.Run("each clock loses min of elapsed and its value", func(t *testing.T) {
		e := runningAt(30*time.Second, 4*time.Second)

		res := e.Advance(t0.Add(7 * time.Second))

		assert.Equal(t, 7*time.Second, res.Elapsed)
		assert.Equal(t, 23*time.Second, e.MainRemaining())
		assert.Equal(t, time.Duration(0), e.ShotRemaining())
	})
}

func TestAdvanceIsDriftFree(t *testing.T) {
	const total = 37 * time.Second

	steps := []time.Duration{
		ms(1), ms(30), ms(50), ms(99), ms(100), ms(133), time.Second, total,
	}

	for _, step := range steps {
		t.Run(step.String(), func(t *testing.T) {
			e := runningAt(DefaultGameDuration, MaxShotDuration)

			var now time.Duration
			for now+step <= total {
				now += step
				e.Advance(t0.Add(now))
			}
			// At least MinTickGranularity past any earlier commit, so this call
			// folds in whatever is still pending.
			end := total + MinTickGranularity
			e.Advance(t0.Add(end))

			require.Equal(t, end, e.lastTick.Sub(t0))
			assert.Equal(t, DefaultGameDuration-end, e.MainRemaining())
			assert.Equal(t, MaxShotDuration-end, e.ShotRemaining())
		})
	}
}

func TestResetShot(t *testing.T) {
	tests := []struct {
		name  string
		main  time.Duration
		shot  time.Duration
		wants time.Duration
	}{
		{"full game clock", DefaultGameDuration, 3 * time.Second, 15 * time.Second},
		{"just above threshold", FinalMinutesThreshold + time.Millisecond, 0, 15 * time.Second},
		{"exactly at threshold", FinalMinutesThreshold, 14 * time.Second, 10 * time.Second},
		{"final seconds", 5 * time.Second, 60 * time.Second, 10 * time.Second},
		{"expired game clock", 0, 0, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Engine{main: tt.main, shot: tt.shot}
			e.ResetShot()
			assert.Equal(t, tt.wants, e.ShotRemaining())
		})
	}

	t.Run("works while running", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, 2*time.Second)
		e.ResetShot()

		assert.True(t, e.Running())
		assert.Equal(t, DefaultShotDuration, e.ShotRemaining())
	})
}

func TestThresholdCrossingDoesNotTouchShotClock(t *testing.T) {
	e := runningAt(121*time.Second, 8*time.Second)
	require.Equal(t, DefaultShotDuration, e.ActiveResetDuration())

	res := e.Advance(t0.Add(2 * time.Second))

	assert.Empty(t, res.Events)
	assert.Equal(t, 119*time.Second, e.MainRemaining())
	assert.Equal(t, 6*time.Second, e.ShotRemaining())
	assert.Equal(t, FinalMinutesShotDuration, e.ActiveResetDuration())
}

func TestAdjustShot(t *testing.T) {
	tests := []struct {
		name  string
		shot  time.Duration
		delta time.Duration
		wants time.Duration
	}{
		{"nudge up", 10 * time.Second, 5 * time.Second, 15 * time.Second},
		{"nudge down", 10 * time.Second, -5 * time.Second, 5 * time.Second},
		{"clamps at upper bound", ms(58000), ms(5000), ms(60000)},
		{"clamps at zero", ms(3000), ms(-5000), 0},
		{"huge positive delta", 0, time.Duration(math.MaxInt64), MaxShotDuration},
		{"huge negative delta", MaxShotDuration, time.Duration(math.MinInt64), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Engine{main: DefaultGameDuration, shot: tt.shot}
			e.AdjustShot(tt.delta)
			assert.Equal(t, tt.wants, e.ShotRemaining())
		})
	}
}

func TestMainClockExpired(t *testing.T) {
	e := runningAt(ms(500), 8*time.Second)

	res := e.Advance(t0.Add(ms(700)))

	assert.Equal(t, []Event{MainClockExpired}, res.Events)
	assert.Equal(t, time.Duration(0), e.MainRemaining())
	assert.False(t, e.Running())
	assert.Equal(t, StateMainExpired, e.State())

	t.Run("fires only once", func(t *testing.T) {
		res := e.Advance(t0.Add(2 * time.Second))
		assert.Empty(t, res.Events)
		assert.False(t, res.Committed())
	})

	t.Run("cannot be restarted", func(t *testing.T) {
		assert.False(t, e.ToggleRun())
		assert.False(t, e.Running())
		assert.Equal(t, StateMainExpired, e.State())
	})
}

func TestShotClockExpired(t *testing.T) {
	t.Run("fires once on transition", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, ms(300))

		res := e.Advance(t0.Add(ms(300)))
		assert.Equal(t, []Event{ShotClockExpired}, res.Events)
		assert.True(t, e.Running())
		assert.Equal(t, time.Duration(0), e.ShotRemaining())

		res = e.Advance(t0.Add(ms(600)))
		assert.True(t, res.Committed())
		assert.Empty(t, res.Events)
	})

	t.Run("does not reset the shot clock itself", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, ms(100))
		e.Advance(t0.Add(ms(250)))

		assert.Equal(t, time.Duration(0), e.ShotRemaining())
	})

	t.Run("suppressed when game clock expires in the same step", func(t *testing.T) {
		e := runningAt(ms(400), ms(400))

		res := e.Advance(t0.Add(ms(400)))

		assert.Equal(t, []Event{MainClockExpired}, res.Events)
		assert.False(t, e.Running())
	})

	t.Run("not emitted when shot clock already at zero", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, 0)

		res := e.Advance(t0.Add(time.Second))
		assert.True(t, res.Committed())
		assert.Empty(t, res.Events)
	})
}

func TestToggleRun(t *testing.T) {
	t.Run("pause time is never applied", func(t *testing.T) {
		e := runningAt(DefaultGameDuration, DefaultShotDuration)
		e.Advance(t0.Add(time.Second))

		assert.False(t, e.ToggleRun())
		assert.Equal(t, StateIdle, e.State())

		// 30 seconds pass while paused.
		assert.True(t, e.ToggleRun())
		assert.False(t, e.Advance(t0.Add(31*time.Second)).Committed())
		e.Advance(t0.Add(32 * time.Second))

		assert.Equal(t, DefaultGameDuration-2*time.Second, e.MainRemaining())
		assert.Equal(t, DefaultShotDuration-2*time.Second, e.ShotRemaining())
	})
}

func TestResetAll(t *testing.T) {
	states := map[string]*Engine{
		"idle":         NewEngine(),
		"running":      runningAt(5*time.Minute, 3*time.Second),
		"main expired": {main: 0, shot: 7 * time.Second},
		"nudged":       {main: 90 * time.Second, shot: MaxShotDuration},
	}

	for name, e := range states {
		t.Run(name, func(t *testing.T) {
			e.ResetAll()

			assert.Equal(t, ms(600000), e.MainRemaining())
			assert.Equal(t, ms(15000), e.ShotRemaining())
			assert.False(t, e.Running())
			assert.Equal(t, StateIdle, e.State())
			assert.True(t, e.lastTick.IsZero())
		})
	}
}

func TestEndToEndShotExpiry(t *testing.T) {
	e := NewEngine()
	e.ToggleRun()
	e.Advance(t0)

	res := e.Advance(t0.Add(ms(14900)))
	assert.Empty(t, res.Events)
	assert.Equal(t, ms(100), e.ShotRemaining())

	res = e.Advance(t0.Add(ms(15050)))
	assert.Equal(t, []Event{ShotClockExpired}, res.Events)
	assert.Equal(t, time.Duration(0), e.ShotRemaining())
	assert.Equal(t, ms(584950), e.MainRemaining())

	e.ResetShot()
	assert.Equal(t, ms(15000), e.ShotRemaining())
}

func TestEventPulse(t *testing.T) {
	assert.Greater(t, MainClockExpired.Pulse(), ShotClockExpired.Pulse())
	assert.Equal(t, time.Duration(0), Event(0).Pulse())
	assert.Equal(t, "ShotClockExpired", ShotClockExpired.String())
}
