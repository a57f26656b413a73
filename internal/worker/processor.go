// Package worker runs care plan generation jobs off the queue.
package worker

import (
	"context"
	"time"

	"careplan-service/internal/domain/entity"
	"careplan-service/internal/domain/repository"
	"careplan-service/internal/generation"
	"careplan-service/internal/queue"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxRetries is the number of retries after the first attempt.
const MaxRetries = 3

// BackendResolver picks the generation backend for a care plan's hint.
type BackendResolver interface {
	Resolve(hint string) (generation.Backend, error)
}

// RetryDelay is the wait before retry n (1-based): 2s, 4s, 8s.
func RetryDelay(retry int) time.Duration {
	return time.Duration(1<<uint(retry)) * time.Second
}

// Processor runs a single generation attempt per job.
type Processor struct {
	db           *gorm.DB
	log          *logrus.Logger
	carePlanRepo repository.CarePlanRepository
	queue        queue.Queue
	backends     BackendResolver
	now          func() time.Time
}

func NewProcessor(
	db *gorm.DB,
	log *logrus.Logger,
	carePlanRepo repository.CarePlanRepository,
	jobQueue queue.Queue,
	backends BackendResolver,
) *Processor {
	return &Processor{
		db:           db,
		log:          log,
		carePlanRepo: carePlanRepo,
		queue:        jobQueue,
		backends:     backends,
		now:          time.Now,
	}
}

// Process claims job.Attempt for the care plan and calls the backend.
// Stale, duplicate and unknown jobs are dropped without error. The returned
// error is reserved for store failures.
//
// Flow:
// 1. Load the care plan
// 2. Claim the attempt (persists processing before generation)
// 3. Generate
// 4. Complete, schedule a retry, or fail
func (p *Processor) Process(ctx context.Context, job queue.Job) error {
	db := p.db.WithContext(ctx)
	entry := p.log.WithFields(logrus.Fields{
		"care_plan_id": job.CarePlanID.String(),
		"attempt":      job.Attempt,
	})

	// Step 1: load
	carePlan, err := p.carePlanRepo.FindByID(db, job.CarePlanID)
	if err != nil {
		entry.Warnf("Failed to load care plan: %+v", err)
		return err
	}
	if carePlan == nil {
		entry.Debug("Care plan not found, job dropped")
		return nil
	}

	// Step 2: claim
	claimed, err := p.carePlanRepo.ClaimAttempt(db, carePlan.ID, job.Attempt)
	if err != nil {
		entry.Warnf("Failed to claim care plan: %+v", err)
		return err
	}
	if claimed == 0 {
		entry.WithField("status", carePlan.Status).Debug("Attempt already claimed or finished, job dropped")
		return nil
	}

	// Step 3: generate
	content, backendName, genErr := p.generate(ctx, carePlan)
	entry = entry.WithField("backend", backendName)

	// Step 4: outcome
	if genErr == nil {
		updated, err := p.carePlanRepo.MarkCompleted(db, carePlan.ID, content)
		if err != nil {
			entry.Warnf("Failed to store generated care plan: %+v", err)
			return err
		}
		if updated == 0 {
			entry.Warn("Care plan left processing before completion was stored")
			return nil
		}
		entry.Info("Care plan generated")
		return nil
	}

	if job.Attempt < MaxRetries {
		retry := job.Attempt + 1
		delay := RetryDelay(retry)
		next := queue.Job{
			CarePlanID: carePlan.ID,
			Attempt:    retry,
			NotBefore:  p.now().Add(delay),
		}
		err := p.queue.Enqueue(ctx, next)
		if err == nil {
			entry.Warnf("Generation failed, retry %d in %s: %v", retry, delay, genErr)
			return nil
		}
		entry.Errorf("Failed to enqueue retry, failing care plan: %+v", err)
	}

	if _, err := p.carePlanRepo.MarkFailed(db, carePlan.ID, genErr.Error()); err != nil {
		entry.Warnf("Failed to mark care plan failed: %+v", err)
		return err
	}
	entry.Errorf("Generation failed permanently: %v", genErr)
	return nil
}

func (p *Processor) generate(ctx context.Context, carePlan *entity.CarePlan) (string, string, error) {
	backend, err := p.backends.Resolve(carePlan.BackendHint)
	if err != nil {
		return "", carePlan.BackendHint, err
	}

	content, err := backend.Generate(ctx, generation.SystemPrompt, generation.BuildUserPrompt(carePlan), generation.DefaultOptions())
	return content, backend.Name(), err
}
