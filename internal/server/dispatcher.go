package server

import (
	"context"

	"quiz-server/internal/app"
	"quiz-server/internal/protocol"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Dispatcher hands connections from any transport to the pool as quiz sessions.
type Dispatcher struct {
	pool    *Pool
	service *app.QuizService
	logger  logrus.FieldLogger
}

func NewDispatcher(pool *Pool, service *app.QuizService, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{pool: pool, service: service, logger: logger}
}

// Dispatch queues a session for conn and returns a channel closed once the
// session has ended and conn has been closed. When the pool rejects the
// session, conn is closed immediately and the error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, transport string, conn protocol.Conn) (<-chan struct{}, error) {
	id := uuid.NewString()
	done := make(chan struct{})
	entry := d.logger.WithFields(logrus.Fields{
		"session":   id,
		"remote":    conn.RemoteAddr(),
		"transport": transport,
	})
	err := d.pool.Submit(ctx, func(ctx context.Context) {
		defer close(done)
		_, _ = d.service.Serve(ctx, id, conn)
	})
	if err != nil {
		_ = conn.Close()
		entry.WithError(err).Warn("connection rejected")
		return nil, errors.Wrap(err, "dispatch session failed")
	}
	entry.WithFields(logrus.Fields{
		"running": d.pool.Running(),
		"waiting": d.pool.Waiting(),
	}).Debug("connection queued")
	return done, nil
}

// Pool returns the pool sessions run on.
func (d *Dispatcher) Pool() *Pool { return d.pool }
