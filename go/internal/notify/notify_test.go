package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mcdev12/shotclock/go/internal/clock"
	"github.com/mcdev12/shotclock/go/internal/panel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var at = time.Date(2026, 3, 14, 19, 30, 15, 50_000_000, time.UTC)

func shotExpired(panelID string) panel.Notification {
	return panel.Notification{
		PanelID: panelID,
		Event:   clock.ShotClockExpired,
		Pulse:   clock.ShotClockExpired.Pulse(),
		At:      at,
		Snapshot: panel.Snapshot{
			PanelID:  panelID,
			Main:     584950 * time.Millisecond,
			Running:  true,
			State:    clock.StateRunning.String(),
			MainText: "9:44",
			ShotText: "0",
		},
	}
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []*nats.Msg
	err  error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

type collecting struct {
	mu    sync.Mutex
	notes []panel.Notification
	block chan struct{}
}

func (c *collecting) Notify(_ context.Context, n panel.Notification) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *collecting) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "arena")

	require.NoError(t, p.Publish(shotExpired("left")))
	require.Len(t, conn.msgs, 1)

	msg := conn.msgs[0]
	assert.Equal(t, "arena.panel.left.shotclockexpired", msg.Subject)
	assert.Equal(t, "ShotClockExpired", msg.Header.Get("Event-Type"))
	assert.Equal(t, "left", msg.Header.Get("Panel-ID"))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, msg.Header.Get("Event-ID"), env.EventID)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "ShotClockExpired", env.EventType)
	assert.Equal(t, int64(400), env.PulseMS)
	assert.True(t, at.Equal(env.Timestamp))
	assert.Equal(t, 584950*time.Millisecond, env.Payload.Main)
	assert.Equal(t, "0", env.Payload.ShotText)
}

func TestNATSPublisher_PublishError(t *testing.T) {
	sentinel := errors.New("connection closed")
	p := NewNATSPublisher(&fakeConn{err: sentinel}, "shotclock")

	err := p.Publish(shotExpired("right"))
	assert.ErrorIs(t, err, sentinel)

	// Notify swallows the error.
	p.Notify(context.Background(), shotExpired("right"))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogNotifierWith(zerolog.New(&buf))

	n := shotExpired("left")
	l.Notify(context.Background(), n)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "buzzer", line["message"])
	assert.Equal(t, "left", line["panel_id"])
	assert.Equal(t, "ShotClockExpired", line["event"])
	assert.Equal(t, "0", line["shot"])
}

func TestMulti(t *testing.T) {
	a, b := &collecting{}, &collecting{}
	Multi{a, b}.Notify(context.Background(), shotExpired("left"))
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestAsync_Delivers(t *testing.T) {
	next := &collecting{}
	a := NewAsync(next, 4)

	a.Notify(context.Background(), shotExpired("left"))
	a.Notify(context.Background(), shotExpired("right"))
	a.Close()

	require.Equal(t, 2, next.count())
	assert.Equal(t, "left", next.notes[0].PanelID)
	assert.Equal(t, "right", next.notes[1].PanelID)
}

func TestAsync_DropsWhenFull(t *testing.T) {
	next := &collecting{block: make(chan struct{})}
	a := NewAsync(next, 1)

	// The first notification occupies the worker, the second fills the queue.
	a.Notify(context.Background(), shotExpired("left"))
	require.Eventually(t, func() bool { return len(a.queue) == 0 }, time.Second, time.Millisecond)
	a.Notify(context.Background(), shotExpired("left"))
	a.Notify(context.Background(), shotExpired("left"))

	close(next.block)
	a.Close()
	assert.Equal(t, 2, next.count())
}

func TestAsync_NotifyAfterClose(t *testing.T) {
	next := &collecting{}
	a := NewAsync(next, 0)
	a.Close()
	a.Close()

	a.Notify(context.Background(), shotExpired("left"))
	assert.Equal(t, 0, next.count())
}

func TestAsync_CloseRacingNotify(t *testing.T) {
	for i := 0; i < 50; i++ {
		next := &collecting{}
		a := NewAsync(next, 256)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					a.Notify(context.Background(), shotExpired("left"))
				}
			}()
		}
		a.Close()
		wg.Wait()

		// Everything accepted before Close was delivered and nothing was queued after it.
		require.Empty(t, a.queue)
		assert.LessOrEqual(t, next.count(), 80)
	}
}

func TestAsync_CancelledContextStillDelivers(t *testing.T) {
	next := &collecting{}
	a := NewAsync(next, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Notify(ctx, shotExpired("left"))
	a.Close()
	assert.Equal(t, 1, next.count())
}
