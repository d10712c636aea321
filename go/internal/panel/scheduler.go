package panel

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// startTicker arms the periodic tick. Only called from the loop goroutine.
func (c *Controller) startTicker() {
	c.ticker = c.clock.NewTicker(TickInterval)
	c.logger.Debug().Dur("interval", TickInterval).Msg("tick loop started")
}

// stopTicker fully cancels the periodic tick. A tick already buffered on the
// old channel is never read because the loop selects on the current ticker only.
func (c *Controller) stopTicker() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.ticker = nil
	c.logger.Debug().Msg("tick loop cancelled")
}

// scheduleShotReset arms the delayed auto-reset, replacing any pending one.
func (c *Controller) scheduleShotReset() {
	if c.shotReset != nil {
		stopAndDrainTimer(c.shotReset)
		c.logger.Debug().Msg("replaced pending shot auto-reset")
	}
	c.shotReset = c.clock.NewTimer(ShotResetDelay)
	c.logger.Debug().Dur("delay", ShotResetDelay).Msg("scheduled shot auto-reset")
}

// cancelShotReset cancels a pending auto-reset, if any.
func (c *Controller) cancelShotReset() {
	if c.shotReset == nil {
		return
	}
	stopAndDrainTimer(c.shotReset)
	c.shotReset = nil
	c.logger.Debug().Msg("cancelled pending shot auto-reset")
}

// teardown releases every scheduled callback when the loop exits.
func (c *Controller) teardown() {
	c.stopTicker()
	c.cancelShotReset()
}

// stopAndDrainTimer stops a timer and drains a fire that already landed on its channel.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// tickerChan and timerChan return nil for an unscheduled callback so the
// loop's select never fires it.
func tickerChan(t clockwork.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.Chan()
}

func timerChan(t clockwork.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.Chan()
}
