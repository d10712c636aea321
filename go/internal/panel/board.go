package panel

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/sync/errgroup"
)

// Panel ids become NATS subject tokens and URL path segments.
var panelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID reports whether id can name a panel.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyPanelID
	}
	if !panelIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidPanelID, id)
	}
	return nil
}

// Board owns a set of independent panels. Panels share no state; options such
// as the notifier are collaborators each controller calls on its own.
type Board struct {
	ids    []string
	panels map[string]*Controller
}

// NewBoard creates one controller per id, in order.
func NewBoard(ids []string, opts ...Option) (*Board, error) {
	if len(ids) == 0 {
		return nil, ErrNoPanels
	}

	b := &Board{
		ids:    make([]string, 0, len(ids)),
		panels: make(map[string]*Controller, len(ids)),
	}
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return nil, err
		}
		if _, exists := b.panels[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePanel, id)
		}
		b.ids = append(b.ids, id)
		b.panels[id] = NewController(id, opts...)
	}
	return b, nil
}

// IDs returns the panel ids in construction order.
func (b *Board) IDs() []string {
	return append([]string(nil), b.ids...)
}

// Panel returns the controller for id.
func (b *Board) Panel(id string) (*Controller, error) {
	p, ok := b.panels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	return p, nil
}

// Panels returns every controller in construction order.
func (b *Board) Panels() []*Controller {
	out := make([]*Controller, 0, len(b.ids))
	for _, id := range b.ids {
		out = append(out, b.panels[id])
	}
	return out
}

// Run runs every panel loop until ctx is cancelled.
func (b *Board) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range b.Panels() {
		g.Go(func() error {
			return p.Run(ctx)
		})
	}
	return g.Wait()
}
