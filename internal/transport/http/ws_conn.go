package http

import (
	"io"
	"strings"
	"time"

	"quiz-server/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// wsConn carries the line protocol over a websocket: one text frame per line.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn, maxLineBytes int) *wsConn {
	if maxLineBytes <= 0 {
		maxLineBytes = protocol.DefaultMaxLineBytes
	}
	conn.SetReadLimit(int64(maxLineBytes))
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadMessage() (protocol.Message, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return protocol.Message{}, io.EOF
			}
			return protocol.Message{}, errors.Wrap(err, "read frame failed")
		}
		if typ != websocket.TextMessage {
			continue
		}
		return protocol.Decode(strings.TrimRight(string(data), "\r\n"))
	}
}

func (c *wsConn) WriteMessage(m protocol.Message) error {
	line, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return errors.Wrap(c.conn.WriteMessage(websocket.TextMessage, []byte(line)), "write frame failed")
}

func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close sends a close frame before tearing down the connection.
func (c *wsConn) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}
