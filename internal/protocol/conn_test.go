package protocol

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineConnRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewLineConn(server, 0)
	defer conn.Close()

	go func() {
		_ = conn.WriteMessage(Question("What is 1+1?"))
	}()
	r := bufio.NewReader(client)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "QUESTION:What is 1+1?\n", line)

	go func() {
		_, _ = client.Write([]byte("ANSWER:2\r\nFOO:bar\n"))
	}()
	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, Answer("2"), msg)

	_, err = conn.ReadMessage()
	require.True(t, IsDecodeError(err))
}

func TestLineConnEOF(t *testing.T) {
	server, client := net.Pipe()
	conn := NewLineConn(server, 0)
	defer conn.Close()

	go func() {
		_, _ = client.Write([]byte("ANSWER:x\n"))
		client.Close()
	}()
	_, err := conn.ReadMessage()
	require.NoError(t, err)
	_, err = conn.ReadMessage()
	require.ErrorIs(t, err, io.EOF)
}

func TestLineConnLineTooLong(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewLineConn(server, 16)
	defer conn.Close()

	go func() {
		_, _ = client.Write([]byte("ANSWER:" + strings.Repeat("x", 64) + "\n"))
	}()
	_, err := conn.ReadMessage()
	require.ErrorIs(t, err, bufio.ErrTooLong)
	require.False(t, IsDecodeError(err))
}
