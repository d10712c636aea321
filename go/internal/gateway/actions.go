package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// ErrUnknownAction is returned for a control action the gateway does not know.
var ErrUnknownAction = errors.New("unknown action")

// Action names a control command accepted over HTTP and websocket.
type Action string

const (
	ActionToggle    Action = "toggle"
	ActionResetAll  Action = "reset-all"
	ActionResetShot Action = "reset-shot"
	ActionNudgeUp   Action = "nudge-up"
	ActionNudgeDown Action = "nudge-down"
)

// Actions lists every accepted action.
var Actions = []Action{ActionToggle, ActionResetAll, ActionResetShot, ActionNudgeUp, ActionNudgeDown}

// ParseAction validates a client supplied action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Apply runs the action on a controller and returns the resulting snapshot.
func (a Action) Apply(ctx context.Context, ctl *panel.Controller) (panel.Snapshot, error) {
	switch a {
	case ActionToggle:
		return ctl.ToggleRun(ctx)
	case ActionResetAll:
		return ctl.ResetAll(ctx)
	case ActionResetShot:
		return ctl.ResetShot(ctx)
	case ActionNudgeUp:
		return ctl.AdjustShot(ctx, panel.NudgeStep)
	case ActionNudgeDown:
		return ctl.AdjustShot(ctx, -panel.NudgeStep)
	default:
		return panel.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
}
