package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue for tests and single-process runs.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []Job
	now  func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{now: time.Now}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	job.EnqueuedAt = now
	if job.NotBefore.IsZero() {
		job.NotBefore = now
	}

	q.jobs = append(q.jobs, job)
	sort.SliceStable(q.jobs, func(i, j int) bool {
		return q.jobs[i].NotBefore.Before(q.jobs[j].NotBefore)
	})
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	deadline := time.Now().Add(timeout)

	for {
		if job := q.popDue(); job != nil {
			return job, nil
		}

		more, err := waitOrDeadline(ctx, deadline)
		if err != nil || !more {
			return nil, err
		}
	}
}

func (q *MemoryQueue) popDue() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 || q.jobs[0].NotBefore.After(q.now()) {
		return nil
	}

	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job
}

// Pending returns a snapshot of queued jobs ordered by NotBefore.
func (q *MemoryQueue) Pending() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}
