package clock

import "time"

// Event is a notification emitted by Advance.
type Event int

const (
	// MainClockExpired fires once when the game clock reaches zero; the engine stops in the same step.
	MainClockExpired Event = iota + 1

	// ShotClockExpired fires once when the shot clock reaches zero while the game clock is still running.
	ShotClockExpired
)

// Feedback pulse lengths suggested to notification collaborators.
const (
	MainExpiredPulse = time.Second
	ShotExpiredPulse = 400 * time.Millisecond
)

func (e Event) String() string {
	switch e {
	case MainClockExpired:
		return "MainClockExpired"
	case ShotClockExpired:
		return "ShotClockExpired"
	default:
		return "Unknown"
	}
}

// Pulse returns the suggested feedback length: long for the game clock, short for the shot clock.
func (e Event) Pulse() time.Duration {
	switch e {
	case MainClockExpired:
		return MainExpiredPulse
	case ShotClockExpired:
		return ShotExpiredPulse
	default:
		return 0
	}
}
