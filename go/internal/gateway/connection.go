package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Connection is one display or remote control attached to a panel.
type Connection struct {
	ID          string
	PanelID     string
	ConnectedAt time.Time

	ws   *websocket.Conn
	send chan []byte
	cm   *ConnectionManager
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.cm.config.WriteTimeout))
	return c.ws.WriteMessage(messageType, data)
}

// writePump is the only writer on the socket. It exits when the send queue
// is closed or a write fails.
func (c *Connection) writePump() {
	ping := time.NewTicker(c.cm.config.PingInterval)
	defer func() {
		ping.Stop()
		c.ws.Close()
		c.cm.leave(c)
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("websocket write failed")
				return
			}

		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("websocket ping failed")
				return
			}
		}
	}
}

// readPump reads control commands until the client goes away.
func (c *Connection) readPump() {
	defer func() {
		c.cm.leave(c)
		c.ws.Close()
	}()

	extend := func() { c.ws.SetReadDeadline(time.Now().Add(c.cm.config.ReadTimeout)) }

	c.ws.SetReadLimit(c.cm.config.MaxMessageSize)
	extend()
	c.ws.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("websocket closed unexpectedly")
			}
			return
		}

		c.handleClientMessage(data)
		extend()
	}
}

// handleClientMessage runs a control command and answers the sender only.
func (c *Connection) handleClientMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("ignoring malformed client message")
		c.replyError("", fmt.Errorf("malformed message: %w", err))
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("panel_id", c.PanelID).
		Str("action", string(msg.Action)).
		Msg("client command")

	if c.cm.dispatch == nil {
		c.replyError(msg.Action, ErrUnknownAction)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cm.config.WriteTimeout)
	defer cancel()

	event, err := c.cm.dispatch(ctx, c.PanelID, msg.Action)
	if err != nil {
		c.replyError(msg.Action, err)
		return
	}
	c.cm.SendToConnection(c, event)
}

func (c *Connection) replyError(action Action, err error) {
	event, mErr := newPanelEvent(c.PanelID, EventTypeError, time.Now(), ErrorPayload{Action: action, Error: err.Error()})
	if mErr != nil {
		log.Error().Err(mErr).Msg("failed to build error event")
		return
	}
	c.cm.SendToConnection(c, event)
}
