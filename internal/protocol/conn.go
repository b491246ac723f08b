package protocol

import (
	"bufio"
	"io"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultMaxLineBytes bounds a single received line.
const DefaultMaxLineBytes = 64 * 1024

// Conn carries protocol messages to and from one peer.
type Conn interface {
	// ReadMessage blocks for the next message. It returns io.EOF once the peer
	// has closed the stream, and an error matching IsDecodeError for a line
	// that is not a valid message; the stream stays usable after a decode error.
	ReadMessage() (Message, error)
	WriteMessage(Message) error
	SetReadDeadline(time.Time) error
	RemoteAddr() string
	Close() error
}

// LineConn implements Conn over a byte stream, one message per '\n'-terminated line.
type LineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	w       *bufio.Writer
}

// NewLineConn wraps conn. Lines longer than maxLineBytes fail the read with
// bufio.ErrTooLong; a non-positive value selects DefaultMaxLineBytes.
func NewLineConn(conn net.Conn, maxLineBytes int) *LineConn {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(4096, maxLineBytes)), maxLineBytes)
	return &LineConn{
		conn:    conn,
		scanner: scanner,
		w:       bufio.NewWriter(conn),
	}
}

func (c *LineConn) ReadMessage() (Message, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Message{}, errors.Wrap(err, "read line failed")
		}
		return Message{}, io.EOF
	}
	return Decode(strings.TrimSuffix(c.scanner.Text(), "\r"))
}

func (c *LineConn) WriteMessage(m Message) error {
	line, err := Encode(m)
	if err != nil {
		return err
	}
	if _, err := c.w.WriteString(line); err != nil {
		return errors.Wrap(err, "write line failed")
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "write line failed")
	}
	return errors.Wrap(c.w.Flush(), "flush line failed")
}

func (c *LineConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *LineConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *LineConn) Close() error {
	return c.conn.Close()
}
