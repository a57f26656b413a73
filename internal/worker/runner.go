package worker

import (
	"context"
	"time"

	"careplan-service/config"
	"careplan-service/internal/queue"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// errorPause throttles a consumer whose queue keeps failing.
const errorPause = time.Second

// Runner consumes the queue with a fixed number of concurrent consumers,
// each processing one job at a time.
type Runner struct {
	queue          queue.Queue
	processor      *Processor
	log            *logrus.Logger
	concurrency    int
	dequeueTimeout time.Duration
}

func NewRunner(jobQueue queue.Queue, processor *Processor, log *logrus.Logger, cfg config.WorkerConfig) *Runner {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	timeout := cfg.DequeueTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Runner{
		queue:          jobQueue,
		processor:      processor,
		log:            log,
		concurrency:    concurrency,
		dequeueTimeout: timeout,
	}
}

// Run blocks until ctx is cancelled and every consumer has returned.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Infof("Worker started with %d consumers", r.concurrency)

	p := pool.New().WithContext(ctx)
	for i := 0; i < r.concurrency; i++ {
		p.Go(func(ctx context.Context) error {
			r.consume(ctx, i)
			return nil
		})
	}

	err := p.Wait()
	r.log.Info("Worker stopped")
	return err
}

func (r *Runner) consume(ctx context.Context, consumer int) {
	log := r.log.WithField("consumer", consumer)

	for ctx.Err() == nil {
		job, err := r.queue.Dequeue(ctx, r.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnf("Failed to dequeue job: %+v", err)
			pause(ctx, errorPause)
			continue
		}
		if job == nil {
			continue
		}

		if err := r.processor.Process(ctx, *job); err != nil {
			log.WithField("care_plan_id", job.CarePlanID.String()).Warnf("Failed to process job: %+v", err)
		}
	}
}

func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
