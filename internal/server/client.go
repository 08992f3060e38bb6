// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/modulys/pax-chat/internal/auth"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// clientSettings carries the per-connection limits the handler resolves from
// configuration.
type clientSettings struct {
	maxMessageSize int64
	rateBurst      int
	rateRefill     time.Duration
}

// Client represents one live WebSocket connection. It owns exactly one set
// of session claims for its lifetime and tracks the rooms it has joined so
// disconnect can prune them all in one step.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	claims         auth.SessionClaims
	rooms          map[string]struct{}
	closed         bool
	maxMessageSize int64
	limiter        *frameLimiter
	log            zerolog.Logger
}

// newClient creates a Client for an already-authenticated connection. The
// connection identifier is a fresh UUID, unique for the client's lifetime
// and never reused.
func newClient(conn *websocket.Conn, hub *Hub, claims auth.SessionClaims, settings clientSettings, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	if conn != nil {
		conn.SetReadLimit(settings.maxMessageSize)
	}

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		claims:         claims,
		rooms:          make(map[string]struct{}),
		maxMessageSize: settings.maxMessageSize,
		limiter:        newFrameLimiter(settings.rateBurst, settings.rateRefill),
		log: logger.With().
			Str("connId", id).
			Str("tenantId", claims.TenantID).
			Str("employeeId", claims.EmployeeID).
			Logger(),
	}
}

// ID returns the transport-assigned connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Claims returns the session claims the connection was authenticated with.
func (c *Client) Claims() auth.SessionClaims {
	return c.claims
}

// setupReadConnection configures read deadlines and the pong handler.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn().Err(err).Msg("Error setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn().Err(err).Msg("Error setting read deadline in pong handler")
		}
		return nil
	})
}

// logReadError logs an appropriate message for the error that ended the read
// loop. Every read error is terminal for the connection; the disconnect path
// runs regardless of the cause.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn().Int64("limit", c.maxMessageSize).Msg("Inbound frame exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debug().Err(err).Msg("Client closed connection")
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.log.Debug().Err(err).Msg("Connection closed")
	default:
		c.log.Warn().Err(err).Msg("WebSocket read error")
	}
}

// processEvent decodes one inbound frame and dispatches the subscribe or
// unsubscribe it requests. Malformed frames, unknown events, and empty
// channel identifiers are ignored; none of these can meaningfully fail once
// the connection is authenticated.
func (c *Client) processEvent(raw []byte) {
	var evt ClientEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		c.log.Debug().Err(err).Msg("Ignoring malformed frame")
		return
	}

	switch evt.Event {
	case EventJoinConversation:
		if evt.ChannelID == "" {
			c.log.Debug().Msg("Ignoring join:conversation without channelId")
			return
		}
		c.hub.requestSubscribe(subscription{client: c, channelID: evt.ChannelID})
		c.log.Debug().Str("channelId", evt.ChannelID).Msg("join:conversation")
	case EventLeaveConversation:
		if evt.ChannelID == "" {
			c.log.Debug().Msg("Ignoring leave:conversation without channelId")
			return
		}
		c.hub.requestUnsubscribe(subscription{client: c, channelID: evt.ChannelID})
		c.log.Debug().Str("channelId", evt.ChannelID).Msg("leave:conversation")
	default:
		c.log.Debug().Str("event", evt.Event).Msg("Ignoring unknown event")
	}
}

// readPump reads frames until the connection drops for any reason, then
// funnels the client into the hub's unregister path exactly once.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn().Err(err).Msg("Error closing connection in readPump")
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}

		if c.limiter != nil {
			ok, remaining := c.limiter.allow()
			if !ok {
				c.log.Debug().Msg("Rate limit exceeded; discarding frame")
				continue
			}
			if remaining == 0 {
				c.log.Debug().Msg("Rate limit budget exhausted")
			}
		}

		c.processEvent(raw)
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn().Err(err).Msg("Error closing connection in writePump")
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("Error setting write deadline")
				return
			}
			if !ok {
				// Hub closed the send channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					c.log.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Warn().Err(err).Msg("Error writing message")
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("Error setting write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Debug().Err(err).Msg("Error writing ping message")
				}
				return
			}
		}
	}
}
