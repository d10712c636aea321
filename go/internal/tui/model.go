package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcdev12/shotclock/go/internal/clock"
	"github.com/mcdev12/shotclock/go/internal/gateway"
	"github.com/mcdev12/shotclock/go/internal/panel"
)

const (
	// refreshInterval is how often the view polls panel snapshots.
	refreshInterval = 100 * time.Millisecond

	commandTimeout = time.Second
)

type refreshMsg time.Time

type snapshotsMsg struct {
	snaps []panel.Snapshot
	err   error
}

type actionDoneMsg struct {
	action gateway.Action
	snap   panel.Snapshot
	err    error
}

// flash highlights a panel after an expiry event until the pulse has elapsed.
type flash struct {
	event clock.Event
	until time.Time
}

// Model renders every panel of a board side by side.
type Model struct {
	board  *panel.Board
	panels []*panel.Controller
	snaps  map[string]panel.Snapshot
	flash  map[string]flash
	now    func() time.Time

	status string
	err    error
	width  int
}

func NewModel(board *panel.Board) Model {
	return Model{
		board:  board,
		panels: board.Panels(),
		snaps:  make(map[string]panel.Snapshot),
		flash:  make(map[string]flash),
		now:    time.Now,
		status: "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchSnapshots(), refreshCmd())
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) fetchSnapshots() tea.Cmd {
	panels := m.panels
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		snaps := make([]panel.Snapshot, 0, len(panels))
		for _, p := range panels {
			snap, err := p.Snapshot(ctx)
			if err != nil {
				return snapshotsMsg{err: fmt.Errorf("snapshot %s: %w", p.ID(), err)}
			}
			snaps = append(snaps, snap)
		}
		return snapshotsMsg{snaps: snaps}
	}
}

func (m Model) runAction(p *panel.Controller, action gateway.Action) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snap, err := action.Apply(ctx, p)
		return actionDoneMsg{action: action, snap: snap, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.fetchSnapshots(), refreshCmd())

	case snapshotsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		for _, s := range msg.snaps {
			m.snaps[s.PanelID] = s
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.snaps[msg.snap.PanelID] = msg.snap
		m.status = fmt.Sprintf("%s: %s", msg.snap.PanelID, msg.action)
		return m, nil

	case buzzMsg:
		n := msg.n
		m.flash[n.PanelID] = flash{event: n.Event, until: m.now().Add(n.Pulse)}
		m.snaps[n.PanelID] = n.Snapshot
		m.status = fmt.Sprintf("%s: %s", n.PanelID, n.Event)
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" || key == "ctrl+c" {
		return m, tea.Quit
	}

	b, ok := keyBindings[key]
	if !ok || b.panel >= len(m.panels) {
		return m, nil
	}
	return m, m.runAction(m.panels[b.panel], b.action)
}

func (m Model) View() string {
	views := make([]string, 0, len(m.panels))
	for i, p := range m.panels {
		views = append(views, m.renderPanel(i, p.ID()))
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, views...))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
	} else {
		b.WriteString(helpStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q quit"))
	return b.String()
}

func (m Model) renderPanel(idx int, id string) string {
	snap, ok := m.snaps[id]
	if !ok {
		return panelStyle.Render(titleStyle.Render(id) + "\n\n…")
	}

	style := panelStyle
	if f, ok := m.flash[id]; ok && m.now().Before(f.until) {
		if f.event == clock.MainClockExpired {
			style = style.BorderForeground(colorRed)
		} else {
			style = style.BorderForeground(colorYellow)
		}
	}

	shot := shotStyle
	if snap.ShotWarning || snap.Shot == 0 {
		shot = shot.Foreground(colorRed)
	}
	mainText := mainStyle
	if snap.FinalMinutes {
		mainText = mainText.Foreground(colorPeach)
	}

	state := snap.State
	if snap.FinalMinutes && !snap.MainExpired {
		state += fmt.Sprintf("  %ds mode", int(snap.ActiveReset/time.Second))
	}

	lines := []string{
		titleStyle.Render(id),
		"",
		mainText.Render(snap.MainText),
		shot.Render(snap.ShotText),
		"",
		stateStyle.Render(state),
	}
	if idx < len(helpLines) {
		lines = append(lines, helpStyle.Render(helpLines[idx]))
	}
	return style.Render(strings.Join(lines, "\n"))
}
