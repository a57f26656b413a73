package service

import (
	"context"
	"fmt"
	"time"

	"careplan-service/internal/domain/entity"
	"careplan-service/internal/domain/repository"
	"careplan-service/internal/queue"
	"careplan-service/internal/worker"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Batch size for each sync pass
	syncBatchSize = 500

	// How often the periodic sync runs
	syncInterval = 5 * time.Minute

	// A pending order younger than this may still be on its way to the queue
	pendingGrace = time.Minute

	// A processing order untouched for this long lost its worker
	processingStaleThreshold = 10 * time.Minute

	interruptedMessage = "Generation was interrupted and retries are exhausted"
)

// QueueSyncService re-enqueues care plans whose job was lost: orders left
// pending by a failed enqueue, and orders stuck in processing after a worker
// died. Duplicate jobs are harmless because every attempt is claimed.
type QueueSyncService struct {
	db           *gorm.DB
	log          *logrus.Logger
	carePlanRepo repository.CarePlanRepository
	queue        queue.Queue
	now          func() time.Time
}

func NewQueueSyncService(db *gorm.DB, log *logrus.Logger, carePlanRepo repository.CarePlanRepository, jobQueue queue.Queue) *QueueSyncService {
	return &QueueSyncService{
		db:           db,
		log:          log,
		carePlanRepo: carePlanRepo,
		queue:        jobQueue,
		now:          time.Now,
	}
}

// Run syncs once immediately and then every syncInterval until ctx ends.
func (s *QueueSyncService) Run(ctx context.Context) error {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.log.Warnf("Failed to sync queue: %+v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sync runs one pass and returns how many jobs were enqueued.
func (s *QueueSyncService) Sync(ctx context.Context) (int, error) {
	now := s.now()

	pending, err := s.syncStatus(ctx, entity.CarePlanStatusPending, now.Add(-pendingGrace))
	if err != nil {
		return pending, err
	}

	processing, err := s.syncStatus(ctx, entity.CarePlanStatusProcessing, now.Add(-processingStaleThreshold))
	total := pending + processing
	if total > 0 {
		s.log.Infof("Queue sync re-enqueued %d care plans (pending=%d, processing=%d)", total, pending, processing)
	}
	return total, err
}

func (s *QueueSyncService) syncStatus(ctx context.Context, status entity.CarePlanStatus, cutoff time.Time) (int, error) {
	db := s.db.WithContext(ctx)
	afterID := uuid.Nil
	enqueued := 0

	for {
		carePlans, err := s.carePlanRepo.FindStale(db, status, cutoff, afterID, syncBatchSize)
		if err != nil {
			return enqueued, fmt.Errorf("find stale %s care plans: %w", status, err)
		}

		for i := range carePlans {
			ok, err := s.requeue(ctx, &carePlans[i])
			if err != nil {
				return enqueued, err
			}
			if ok {
				enqueued++
			}
		}

		if len(carePlans) < syncBatchSize {
			return enqueued, nil
		}
		afterID = carePlans[len(carePlans)-1].ID

		// Respect context cancellation
		select {
		case <-ctx.Done():
			return enqueued, ctx.Err()
		default:
		}
	}
}

// requeue enqueues the attempt the care plan is waiting for. A processing
// order whose final attempt was interrupted is failed instead.
func (s *QueueSyncService) requeue(ctx context.Context, carePlan *entity.CarePlan) (bool, error) {
	attempt := 0
	if carePlan.IsProcessing() {
		attempt = carePlan.Attempts
		if attempt > worker.MaxRetries {
			if _, err := s.carePlanRepo.MarkFailed(s.db.WithContext(ctx), carePlan.ID, interruptedMessage); err != nil {
				return false, fmt.Errorf("fail interrupted care plan %s: %w", carePlan.ID, err)
			}
			s.log.Warnf("Care plan %s failed after an interrupted final attempt", carePlan.ID)
			return false, nil
		}
	}

	if err := s.queue.Enqueue(ctx, queue.Job{CarePlanID: carePlan.ID, Attempt: attempt}); err != nil {
		return false, fmt.Errorf("enqueue care plan %s: %w", carePlan.ID, err)
	}
	return true, nil
}
