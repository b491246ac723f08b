package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"

	"quiz-server/internal/app"
	"quiz-server/internal/domain"
	"quiz-server/internal/infra/memory"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestAcceptorRunsQuizOverTCP(t *testing.T) {
	addr, _ := startAcceptor(t, 2)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	require.Equal(t, "QUESTION:What is the capital of Korea?", readLine(t, conn, r))
	send(t, conn, "ANSWER:SEOUL")
	require.Equal(t, "RESULT:Correct!", readLine(t, conn, r))
	require.Equal(t, "SCORE:1", readLine(t, conn, r))

	require.Equal(t, "QUESTION:What is 1 + 1?", readLine(t, conn, r))
	send(t, conn, "FOO:bar")
	send(t, conn, "ANSWER:  2  ")
	require.Equal(t, "RESULT:Correct!", readLine(t, conn, r))
	require.Equal(t, "SCORE:2", readLine(t, conn, r))

	require.Equal(t, "QUESTION:What subject are you currently taking?", readLine(t, conn, r))
	send(t, conn, "ANSWER:biology")
	require.Equal(t, "RESULT:Incorrect!", readLine(t, conn, r))
	require.Equal(t, "SCORE:2", readLine(t, conn, r))
	require.Equal(t, "FINAL_SCORE:2", readLine(t, conn, r))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = r.ReadString('\n')
	require.ErrorIs(t, err, io.EOF, "server must close the connection after the final score")
}

func TestAcceptorSaturatedPoolDelaysButNeverDrops(t *testing.T) {
	const k = 2
	addr, pool := startAcceptor(t, k)

	var conns []net.Conn
	var readers []*bufio.Reader
	for i := 0; i < k+2; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
		readers = append(readers, bufio.NewReader(conn))
		if i < k {
			require.Contains(t, readLine(t, conns[i], readers[i]), "QUESTION:")
		} else {
			want := i - k + 1
			require.Eventually(t, func() bool { return pool.Waiting() == want }, time.Second, 5*time.Millisecond)
		}
	}

	// queued connections get nothing while every slot is busy
	requireSilent(t, conns[k], readers[k])
	requireSilent(t, conns[k+1], readers[k+1])

	// freeing one slot starts the oldest queued session only
	require.NoError(t, conns[0].Close())
	require.Equal(t, "QUESTION:What is the capital of Korea?", readLine(t, conns[k], readers[k]))
	requireSilent(t, conns[k+1], readers[k+1])
	require.Equal(t, 1, pool.Waiting())

	require.NoError(t, conns[1].Close())
	require.Equal(t, "QUESTION:What is the capital of Korea?", readLine(t, conns[k+1], readers[k+1]))
}

func TestAcceptorStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	acceptor, _ := newAcceptor(t, ln, 1)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- acceptor.Serve(ctx) }()
	cancel()
	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acceptor did not stop")
	}
}

func TestAcceptorRetriesTransientErrorsAndFailsOnListenerFailure(t *testing.T) {
	ln := &scriptedListener{errs: []error{
		&net.OpError{Op: "accept", Net: "tcp", Err: syscall.ECONNABORTED},
		&net.OpError{Op: "accept", Net: "tcp", Err: syscall.EBADF},
	}}
	acceptor, hook := newAcceptor(t, ln, 1)

	err := acceptor.Serve(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, syscall.EBADF)
	require.True(t, ln.closed)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "accept error" {
			warned = true
		}
	}
	require.True(t, warned)
}

func startAcceptor(t *testing.T, k int) (string, *Pool) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	acceptor, _ := newAcceptor(t, ln, k)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = acceptor.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = acceptor.dispatcher.Pool().Shutdown(context.Background())
	})
	return ln.Addr().String(), acceptor.dispatcher.Pool()
}

func newAcceptor(t *testing.T, ln net.Listener, k int) (*Acceptor, *test.Hook) {
	t.Helper()
	bank, err := domain.NewQuestionBank(domain.DefaultQuestions())
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	service := app.NewQuizService(bank, memory.NewSessionTracker(), app.Policy{}, logger)
	dispatcher := NewDispatcher(NewPool(k, 0), service, logger)
	return NewAcceptor(ln, dispatcher, 0, logger), hook
}

func readLine(t *testing.T, conn net.Conn, r *bufio.Reader) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	defer conn.SetReadDeadline(time.Time{})
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func requireSilent(t *testing.T, conn net.Conn, r *bufio.Reader) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	defer conn.SetReadDeadline(time.Time{})
	_, err := r.ReadString('\n')
	var ne net.Error
	require.True(t, errors.As(err, &ne) && ne.Timeout(), "expected no line yet, got %v", err)
}

func send(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

type scriptedListener struct {
	errs   []error
	closed bool
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	err := l.errs[0]
	if len(l.errs) > 1 {
		l.errs = l.errs[1:]
	}
	return nil, err
}

func (l *scriptedListener) Close() error {
	l.closed = true
	return nil
}

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}
