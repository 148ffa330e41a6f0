package notifications

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client binds a websocket connection to a subscription. The stream is
// server to client only; inbound frames are read for liveness and discarded.
type Client struct {
	Conn *websocket.Conn
	Sub  *Subscription
}

// NewClient creates a new Client instance
func NewClient(conn *websocket.Conn, sub *Subscription) *Client {
	return &Client{Conn: conn, Sub: sub}
}

// Serve runs both pumps and returns when the connection or subscription ends.
func (c *Client) Serve() {
	go c.ReadPump()
	c.WritePump()
}

// ReadPump consumes inbound frames until the peer goes away, then closes the subscription.
func (c *Client) ReadPump() {
	defer c.Sub.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		if c.Sub.hub.presence != nil {
			c.Sub.hub.presence.Touch(context.Background(), c.Sub.UserID)
		}
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Sub.hub.logger.LogError(context.Background(), c.Sub.UserID, err, "read")
			}
			return
		}
	}
}

// WritePump pumps events from the subscription to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Sub.Close()
		_ = c.Conn.Close()
	}()

	for {
		// A closed subscription wins over buffered events.
		select {
		case <-c.Sub.done:
			c.writeClose()
			return
		default:
		}

		select {
		case <-c.Sub.done:
			c.writeClose()
			return

		case message := <-c.Sub.events:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeClose() {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.Conn.WriteMessage(websocket.CloseMessage, closeFrame(c.Sub.reason))
}

func closeFrame(reason string) []byte {
	switch reason {
	case ReasonShutdown:
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	case ReasonSuperseded:
		return websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Session superseded")
	default:
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	}
}
