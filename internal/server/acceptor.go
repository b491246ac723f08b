// Package server accepts quiz connections and runs them as sessions on a
// bounded worker pool.
//
// The accept loop never runs quiz logic. Each accepted connection is wrapped
// in a protocol.LineConn and submitted to the pool; when all slots are busy
// the session waits for one rather than being rejected, unless a queue limit
// is configured.
package server

import (
	"context"
	"net"
	"syscall"
	"time"

	"quiz-server/internal/protocol"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxAcceptDelay = time.Second

// Acceptor runs the TCP accept loop.
type Acceptor struct {
	listener     net.Listener
	dispatcher   *Dispatcher
	maxLineBytes int
	logger       logrus.FieldLogger
}

func NewAcceptor(listener net.Listener, dispatcher *Dispatcher, maxLineBytes int, logger logrus.FieldLogger) *Acceptor {
	return &Acceptor{
		listener:     listener,
		dispatcher:   dispatcher,
		maxLineBytes: maxLineBytes,
		logger:       logger,
	}
}

// Addr returns the listener's address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Serve accepts connections until ctx is canceled, which closes the listener
// and returns nil. Transient accept errors are logged and retried with
// backoff; any other listener failure is returned.
func (a *Acceptor) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = a.listener.Close() })
	defer stop()
	defer a.listener.Close()

	a.logger.WithField("addr", a.listener.Addr().String()).Info("accepting quiz connections")
	var delay time.Duration
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !isTransient(err) {
				return errors.Wrap(err, "accept failed")
			}
			delay = backoff(delay)
			a.logger.WithError(err).WithField("retry_in", delay).Warn("accept error")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0
		_, _ = a.dispatcher.Dispatch(ctx, "tcp", protocol.NewLineConn(conn, a.maxLineBytes))
	}
}

func backoff(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}
	delay *= 2
	if delay > maxAcceptDelay {
		return maxAcceptDelay
	}
	return delay
}

func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
