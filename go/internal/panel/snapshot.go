package panel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/shotclock/go/internal/clock"
)

// ShotWarningThreshold marks the shot clock as urgent at or below this value.
const ShotWarningThreshold = 5 * time.Second

// Snapshot is an immutable, render-ready view of one panel.
type Snapshot struct {
	PanelID     string
	Main        time.Duration
	Shot        time.Duration
	Running     bool
	State       string
	ActiveReset time.Duration

	// Urgency flags
	FinalMinutes bool
	ShotWarning  bool
	MainExpired  bool

	MainText string
	ShotText string
}

// snapshotJSON is the wire form; durations travel as integer milliseconds.
type snapshotJSON struct {
	PanelID       string `json:"panel_id"`
	MainMS        int64  `json:"main_remaining_ms"`
	ShotMS        int64  `json:"shot_remaining_ms"`
	Running       bool   `json:"is_running"`
	State         string `json:"state"`
	ActiveResetMS int64  `json:"active_reset_ms"`
	FinalMinutes  bool   `json:"final_minutes"`
	ShotWarning   bool   `json:"shot_warning"`
	MainExpired   bool   `json:"main_expired"`
	MainText      string `json:"main_text"`
	ShotText      string `json:"shot_text"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		PanelID:       s.PanelID,
		MainMS:        s.Main.Milliseconds(),
		ShotMS:        s.Shot.Milliseconds(),
		Running:       s.Running,
		State:         s.State,
		ActiveResetMS: s.ActiveReset.Milliseconds(),
		FinalMinutes:  s.FinalMinutes,
		ShotWarning:   s.ShotWarning,
		MainExpired:   s.MainExpired,
		MainText:      s.MainText,
		ShotText:      s.ShotText,
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Snapshot{
		PanelID:      w.PanelID,
		Main:         time.Duration(w.MainMS) * time.Millisecond,
		Shot:         time.Duration(w.ShotMS) * time.Millisecond,
		Running:      w.Running,
		State:        w.State,
		ActiveReset:  time.Duration(w.ActiveResetMS) * time.Millisecond,
		FinalMinutes: w.FinalMinutes,
		ShotWarning:  w.ShotWarning,
		MainExpired:  w.MainExpired,
		MainText:     w.MainText,
		ShotText:     w.ShotText,
	}
	return nil
}

func snapshotOf(id string, e *clock.Engine) Snapshot {
	main, shot := e.MainRemaining(), e.ShotRemaining()
	return Snapshot{
		PanelID:      id,
		Main:         main,
		Shot:         shot,
		Running:      e.Running(),
		State:        e.State().String(),
		ActiveReset:  e.ActiveResetDuration(),
		FinalMinutes: main <= clock.FinalMinutesThreshold,
		ShotWarning:  shot > 0 && shot <= ShotWarningThreshold,
		MainExpired:  main == 0,
		MainText:     FormatMain(main),
		ShotText:     FormatShot(shot),
	}
}

// FormatMain renders the game clock as M:SS, switching to SS.t inside the last minute.
func FormatMain(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		tenths := d / (100 * time.Millisecond)
		return fmt.Sprintf("%02d.%d", tenths/10, tenths%10)
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatShot renders the shot clock in whole seconds, rounding up so "0" only shows at expiry.
func FormatShot(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	secs := (d + time.Second - 1) / time.Second
	return fmt.Sprintf("%d", secs)
}
