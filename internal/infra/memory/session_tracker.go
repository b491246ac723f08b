package memory

import (
	"context"
	"sync"
	"time"

	"quiz-server/internal/app"
)

// SessionTracker is an in-memory implementation of app.SessionTracker.
type SessionTracker struct {
	clock func() time.Time

	mu        sync.RWMutex
	active    map[string]liveSession
	completed int64
	abandoned int64
}

type liveSession struct {
	remote    string
	startedAt time.Time
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		clock:  time.Now,
		active: make(map[string]liveSession),
	}
}

func (t *SessionTracker) Start(_ context.Context, id, remote string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[id] = liveSession{remote: remote, startedAt: t.clock()}
	return nil
}

func (t *SessionTracker) Finish(_ context.Context, outcome app.Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[outcome.ID]; !ok {
		return nil
	}
	delete(t.active, outcome.ID)
	if outcome.Completed() {
		t.completed++
	} else {
		t.abandoned++
	}
	return nil
}

func (t *SessionTracker) Stats(_ context.Context) (app.Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return app.Stats{
		Active:    int64(len(t.active)),
		Completed: t.completed,
		Abandoned: t.abandoned,
	}, nil
}
