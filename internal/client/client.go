// Package client implements a quiz participant: it renders each server
// message as text and answers questions with lines read from its input.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"quiz-server/internal/protocol"

	"github.com/pkg/errors"
)

// ErrNoAnswer is returned when the input runs out while a question is pending.
var ErrNoAnswer = errors.New("no answer available")

// ErrUnexpectedClose is returned when the server closes the stream before the final score.
var ErrUnexpectedClose = errors.New("server closed the connection before the final score")

// Summary is what the participant saw over a whole game.
type Summary struct {
	Questions  int
	Correct    int
	FinalScore int
}

// Client plays one game over conn.
type Client struct {
	conn    protocol.Conn
	answers *bufio.Scanner
	out     io.Writer
}

// Dial connects to a quiz server over TCP.
func Dial(ctx context.Context, addr string) (*protocol.LineConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return protocol.NewLineConn(conn, 0), nil
}

// New creates a client that reads answers from answers and renders to out.
func New(conn protocol.Conn, answers io.Reader, out io.Writer) *Client {
	return &Client{conn: conn, answers: bufio.NewScanner(answers), out: out}
}

// Run plays until FINAL_SCORE arrives and closes the connection on return.
func (c *Client) Run(ctx context.Context) (Summary, error) {
	defer c.conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	var sum Summary
	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			if protocol.IsDecodeError(err) {
				fmt.Fprintf(c.out, "? %v\n", err)
				continue
			}
			if errors.Is(err, io.EOF) {
				return sum, ErrUnexpectedClose
			}
			return sum, errors.Wrap(err, "receive failed")
		}
		switch msg.Tag {
		case protocol.TagQuestion:
			sum.Questions++
			fmt.Fprintf(c.out, "Question %d: %s\n> ", sum.Questions, msg.Text)
			answer, err := c.nextAnswer()
			if err != nil {
				return sum, err
			}
			if err := c.conn.WriteMessage(protocol.Answer(answer)); err != nil {
				return sum, errors.Wrap(err, "send answer failed")
			}
		case protocol.TagResult:
			if msg.Correct() {
				sum.Correct++
			}
			fmt.Fprintln(c.out, msg.Text)
		case protocol.TagScore:
			fmt.Fprintf(c.out, "Score: %d\n", msg.Score)
		case protocol.TagFinalScore:
			sum.FinalScore = msg.Score
			fmt.Fprintf(c.out, "Final score: %d/%d\n", msg.Score, sum.Questions)
			return sum, nil
		}
	}
}

func (c *Client) nextAnswer() (string, error) {
	if !c.answers.Scan() {
		if err := c.answers.Err(); err != nil {
			return "", errors.Wrap(err, "read answer")
		}
		return "", ErrNoAnswer
	}
	// answers must stay on one line
	return strings.TrimRight(c.answers.Text(), "\r"), nil
}
