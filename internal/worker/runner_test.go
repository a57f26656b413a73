package worker

import (
	"context"
	"testing"
	"time"

	"careplan-service/config"
	"careplan-service/internal/domain/entity"
	"careplan-service/internal/generation"
	"careplan-service/internal/queue"
	"careplan-service/internal/repository"
	"careplan-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_ProcessesQueuedJobs(t *testing.T) {
	db := testutil.NewDB(t)
	log := testutil.NewLogger()
	q := queue.NewMemoryQueue()
	selector := generation.NewSelector(config.LLMConfig{UseMock: true}, log)
	processor := NewProcessor(db, log, repository.NewCarePlanRepository(), q, selector)
	runner := NewRunner(q, processor, log, config.WorkerConfig{Concurrency: 2, DequeueTimeout: 100 * time.Millisecond})

	id := seedCarePlan(t, db, "openai")
	require.NoError(t, q.Enqueue(context.Background(), queue.Job{CarePlanID: id}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	assert.Eventually(t, func() bool {
		carePlan, err := repository.NewCarePlanRepository().FindByID(db, id)
		return err == nil && carePlan != nil && carePlan.IsCompleted()
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	carePlan := loadCarePlan(t, db, id)
	assert.Equal(t, generation.MockCarePlanText, carePlan.GeneratedContent)
	assert.Equal(t, entity.CarePlanStatusCompleted, carePlan.Status)
}

func TestNewRunner_Defaults(t *testing.T) {
	runner := NewRunner(queue.NewMemoryQueue(), nil, testutil.NewLogger(), config.WorkerConfig{})
	assert.Equal(t, 1, runner.concurrency)
	assert.Equal(t, 5*time.Second, runner.dequeueTimeout)
}
