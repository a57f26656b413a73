package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// popDueScript atomically removes and returns the earliest member whose
// score is <= ARGV[1], or nil when nothing is due.
var popDueScript = redis.NewScript(`
	local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
	if #items == 0 then
		return false
	end
	redis.call('ZREM', KEYS[1], items[1])
	return items[1]
`)

// RedisQueue stores jobs in a sorted set scored by NotBefore in unix ms.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *logrus.Logger
	now    func() time.Time
}

func NewRedisQueue(client *redis.Client, key string, log *logrus.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    key,
		log:    log,
		now:    time.Now,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	now := q.now()
	job.EnqueuedAt = now
	if job.NotBefore.IsZero() {
		job.NotBefore = now
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	err = q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(job.NotBefore.UnixMilli()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.CarePlanID, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	deadline := time.Now().Add(timeout)

	for {
		job, err := q.popDue(ctx)
		if err != nil || job != nil {
			return job, err
		}

		more, err := waitOrDeadline(ctx, deadline)
		if err != nil || !more {
			return nil, err
		}
	}
}

func (q *RedisQueue) popDue(ctx context.Context) (*Job, error) {
	raw, err := popDueScript.Run(ctx, q.client, []string{q.key}, q.now().UnixMilli()).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// A malformed member would otherwise block the queue head forever.
		q.log.Errorf("Dropping malformed job payload %q: %+v", raw, err)
		return nil, nil
	}
	return &job, nil
}

// Len returns the number of queued jobs, due or not.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.key).Result()
}
