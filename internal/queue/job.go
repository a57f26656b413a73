// Package queue carries generation jobs from the order pipeline to workers.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks a worker to run one generation attempt for a care plan.
type Job struct {
	CarePlanID uuid.UUID `json:"care_plan_id"`
	Attempt    int       `json:"attempt"`
	// NotBefore delays delivery; zero means immediately.
	NotBefore  time.Time `json:"not_before"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue delivers jobs at least once, never before NotBefore.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks up to timeout and returns nil, nil when nothing is due.
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
}

// pollInterval is how often an idle consumer checks for due jobs.
const pollInterval = 250 * time.Millisecond

// waitOrDeadline sleeps one poll interval, cut short by the deadline.
// It returns false once the deadline has passed.
func waitOrDeadline(ctx context.Context, deadline time.Time) (bool, error) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false, nil
	}
	if remaining > pollInterval {
		remaining = pollInterval
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return true, nil
	}
}
