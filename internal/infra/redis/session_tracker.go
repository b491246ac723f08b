package redis

import (
	"context"
	"strconv"
	"time"

	"quiz-server/internal/app"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// SessionTracker records live sessions in Redis so several server instances
// can share one view of who is playing.
// Keys:
//
//	quiz:session:{id}    hash {remote, started_at}, expires after ttl
//	quiz:stats:completed counter
//	quiz:stats:abandoned counter
//
// The ttl bounds how long a session that died with its process stays visible.
type SessionTracker struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

const (
	sessionPrefix = "quiz:session:"
	completedKey  = "quiz:stats:completed"
	abandonedKey  = "quiz:stats:abandoned"
)

func NewSessionTracker(client *redis.Client, ttl time.Duration) *SessionTracker {
	return &SessionTracker{client: client, ttl: ttl, clock: time.Now}
}

func (t *SessionTracker) Start(ctx context.Context, id, remote string) error {
	key := t.key(id)
	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, key, "remote", remote, "started_at", t.clock().UTC().Format(time.RFC3339))
	if t.ttl > 0 {
		pipe.Expire(ctx, key, t.ttl)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "track session start")
}

func (t *SessionTracker) Finish(ctx context.Context, outcome app.Outcome) error {
	removed, err := t.client.Del(ctx, t.key(outcome.ID)).Result()
	if err != nil {
		return errors.Wrap(err, "track session finish")
	}
	if removed == 0 {
		return nil
	}
	counter := abandonedKey
	if outcome.Completed() {
		counter = completedKey
	}
	return errors.Wrap(t.client.Incr(ctx, counter).Err(), "count finished session")
}

func (t *SessionTracker) Stats(ctx context.Context) (app.Stats, error) {
	var stats app.Stats
	iter := t.client.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.Active++
	}
	if err := iter.Err(); err != nil {
		return app.Stats{}, errors.Wrap(err, "scan live sessions")
	}
	counts, err := t.client.MGet(ctx, completedKey, abandonedKey).Result()
	if err != nil {
		return app.Stats{}, errors.Wrap(err, "read session counters")
	}
	stats.Completed = toInt64(counts[0])
	stats.Abandoned = toInt64(counts[1])
	return stats, nil
}

func (t *SessionTracker) key(id string) string {
	return sessionPrefix + id
}

func toInt64(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
