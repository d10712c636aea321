package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// buzzMsg carries an expiry event into the program.
type buzzMsg struct {
	n panel.Notification
}

// ProgramNotifier forwards expiry events to a running program. Program.Send
// blocks until the event loop accepts the message, so wrap it in notify.Async.
type ProgramNotifier struct {
	send func(tea.Msg)
}

func NewProgramNotifier(send func(tea.Msg)) *ProgramNotifier {
	return &ProgramNotifier{send: send}
}

func (p *ProgramNotifier) Notify(_ context.Context, n panel.Notification) {
	p.send(buzzMsg{n: n})
}
