package tui

import "github.com/mcdev12/shotclock/go/internal/gateway"

// binding maps a key to an action on one of the first two panels.
type binding struct {
	panel  int
	action gateway.Action
}

// keyBindings is the two-operator layout: the left operator uses the space bar
// and letters, the right operator enter, capitals and arrows.
var keyBindings = map[string]binding{
	" ": {panel: 0, action: gateway.ActionToggle},
	"r": {panel: 0, action: gateway.ActionResetAll},
	"s": {panel: 0, action: gateway.ActionResetShot},
	"w": {panel: 0, action: gateway.ActionNudgeUp},
	"x": {panel: 0, action: gateway.ActionNudgeDown},

	"enter": {panel: 1, action: gateway.ActionToggle},
	"R":     {panel: 1, action: gateway.ActionResetAll},
	"S":     {panel: 1, action: gateway.ActionResetShot},
	"up":    {panel: 1, action: gateway.ActionNudgeUp},
	"down":  {panel: 1, action: gateway.ActionNudgeDown},
}

var helpLines = [2]string{
	"space start/pause  r reset  s shot  w/x ±5s",
	"enter start/pause  R reset  S shot  ↑/↓ ±5s",
}
