package panel

import "errors"

// Sentinel errors for controller and board operations.
// Use errors.Is() for matching.
var (
	ErrStopped        = errors.New("panel loop stopped")
	ErrAlreadyRunning = errors.New("panel loop already running")

	ErrNoPanels       = errors.New("at least one panel is required")
	ErrDuplicatePanel = errors.New("duplicate panel id")
	ErrEmptyPanelID   = errors.New("panel id cannot be empty")
	ErrInvalidPanelID = errors.New("panel id may only contain letters, digits, '-' and '_'")
	ErrUnknownPanel   = errors.New("unknown panel")
)
