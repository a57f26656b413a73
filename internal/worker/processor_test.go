package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"careplan-service/internal/domain/entity"
	"careplan-service/internal/generation"
	"careplan-service/internal/queue"
	"careplan-service/internal/repository"
	"careplan-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// scriptedBackend fails with errs in order, then returns content.
type scriptedBackend struct {
	mu      sync.Mutex
	errs    []error
	content string
	calls   int
	prompts []string
}

func (b *scriptedBackend) Name() string {
	return "scripted"
}

func (b *scriptedBackend) Generate(ctx context.Context, system, user string, opts generation.Options) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	b.prompts = append(b.prompts, user)
	if b.calls <= len(b.errs) {
		return "", b.errs[b.calls-1]
	}
	return b.content, nil
}

func (b *scriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// observingBackend records the stored care plan as seen during Generate,
// failing the first failures calls.
type observingBackend struct {
	db       *gorm.DB
	id       uuid.UUID
	failures int
	seen     []entity.CarePlan
}

func (b *observingBackend) Name() string {
	return "observing"
}

func (b *observingBackend) Generate(ctx context.Context, system, user string, opts generation.Options) (string, error) {
	carePlan, err := repository.NewCarePlanRepository().FindByID(b.db, b.id)
	if err != nil {
		return "", err
	}
	if carePlan != nil {
		b.seen = append(b.seen, *carePlan)
	}
	if len(b.seen) <= b.failures {
		return "", errors.New("timeout")
	}
	return "Plan", nil
}

type stubResolver struct {
	backend generation.Backend
	hints   []string
}

func (r *stubResolver) Resolve(hint string) (generation.Backend, error) {
	r.hints = append(r.hints, hint)
	return r.backend, nil
}

var fixedNow = time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

func newProcessor(t *testing.T, backend generation.Backend) (*Processor, *queue.MemoryQueue, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	q := queue.NewMemoryQueue()
	p := NewProcessor(db, testutil.NewLogger(), repository.NewCarePlanRepository(), q, &stubResolver{backend: backend})
	p.now = func() time.Time { return fixedNow }
	return p, q, db
}

func seedCarePlan(t *testing.T, db *gorm.DB, hint string) uuid.UUID {
	t.Helper()

	dob, err := entity.ParseDOB("1990-01-15")
	require.NoError(t, err)
	patient := &entity.Patient{MRN: "123456", FirstName: "John", LastName: "Doe", DOB: dob}
	require.NoError(t, db.Create(patient).Error)
	provider := &entity.Provider{NPI: "1234567890", Name: "Dr. Jane Smith"}
	require.NoError(t, db.Create(provider).Error)

	carePlan := &entity.CarePlan{
		PatientID:        patient.ID,
		ProviderID:       provider.ID,
		PrimaryDiagnosis: "E11.9",
		MedicationName:   "Metformin",
		PatientRecords:   "Stable type 2 diabetes.",
		Status:           entity.CarePlanStatusPending,
		Source:           "webform",
		BackendHint:      hint,
	}
	require.NoError(t, repository.NewCarePlanRepository().Create(db, carePlan))
	return carePlan.ID
}

func loadCarePlan(t *testing.T, db *gorm.DB, id uuid.UUID) *entity.CarePlan {
	t.Helper()

	carePlan, err := repository.NewCarePlanRepository().FindByID(db, id)
	require.NoError(t, err)
	require.NotNil(t, carePlan)
	return carePlan
}

// next pops the single scheduled retry.
func next(t *testing.T, q *queue.MemoryQueue) queue.Job {
	t.Helper()

	require.Len(t, q.Pending(), 1)
	job, err := q.Dequeue(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, job)
	return *job
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, RetryDelay(1))
	assert.Equal(t, 4*time.Second, RetryDelay(2))
	assert.Equal(t, 8*time.Second, RetryDelay(3))
}

func TestProcess_Success(t *testing.T) {
	backend := &scriptedBackend{content: "generated plan"}
	p, q, db := newProcessor(t, backend)
	id := seedCarePlan(t, db, "claude")

	require.NoError(t, p.Process(context.Background(), queue.Job{CarePlanID: id}))

	carePlan := loadCarePlan(t, db, id)
	assert.Equal(t, entity.CarePlanStatusCompleted, carePlan.Status)
	assert.Equal(t, "generated plan", carePlan.GeneratedContent)
	assert.Equal(t, 1, carePlan.Attempts)
	assert.Empty(t, q.Pending())
	assert.Equal(t, []string{"claude"}, p.backends.(*stubResolver).hints)
	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "John Doe")
	assert.Contains(t, backend.prompts[0], "Metformin")
}

func TestProcess_PersistsProcessingBeforeGenerating(t *testing.T) {
	backend := &observingBackend{failures: 1}
	p, q, db := newProcessor(t, backend)
	backend.db = db
	backend.id = seedCarePlan(t, db, "")
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: backend.id, Attempt: 0}))
	require.NoError(t, p.Process(ctx, next(t, q)))

	require.Len(t, backend.seen, 2)
	for i, seen := range backend.seen {
		assert.Equal(t, entity.CarePlanStatusProcessing, seen.Status, "attempt %d", i)
		assert.Equal(t, i+1, seen.Attempts, "attempt %d", i)
	}
	assert.Equal(t, entity.CarePlanStatusCompleted, loadCarePlan(t, db, backend.id).Status)
}

func TestProcess_RetriesThenFails(t *testing.T) {
	backend := &scriptedBackend{errs: []error{
		errors.New("rate limited 1"),
		errors.New("rate limited 2"),
		errors.New("rate limited 3"),
		errors.New("rate limited 4"),
	}}
	p, q, db := newProcessor(t, backend)
	id := seedCarePlan(t, db, "")
	ctx := context.Background()

	job := queue.Job{CarePlanID: id}
	var delays []time.Duration
	for i := 0; i < MaxRetries; i++ {
		require.NoError(t, p.Process(ctx, job))
		assert.Equal(t, entity.CarePlanStatusProcessing, loadCarePlan(t, db, id).Status)

		job = next(t, q)
		assert.Equal(t, i+1, job.Attempt)
		delays = append(delays, job.NotBefore.Sub(fixedNow))
	}
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)

	require.NoError(t, p.Process(ctx, job))

	carePlan := loadCarePlan(t, db, id)
	assert.Equal(t, entity.CarePlanStatusFailed, carePlan.Status)
	assert.Equal(t, "rate limited 4", carePlan.ErrorMessage)
	assert.Equal(t, 4, backend.Calls())
	assert.Empty(t, q.Pending())
}

func TestProcess_SucceedsOnSecondAttempt(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("timeout")}, content: "second time lucky"}
	p, q, db := newProcessor(t, backend)
	id := seedCarePlan(t, db, "")
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: id}))
	require.NoError(t, p.Process(ctx, next(t, q)))

	carePlan := loadCarePlan(t, db, id)
	assert.Equal(t, entity.CarePlanStatusCompleted, carePlan.Status)
	assert.Equal(t, "second time lucky", carePlan.GeneratedContent)
	assert.Equal(t, 2, carePlan.Attempts)
}

func TestProcess_CompletedOrderIsUntouched(t *testing.T) {
	backend := &scriptedBackend{content: "first"}
	p, _, db := newProcessor(t, backend)
	id := seedCarePlan(t, db, "")
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: id}))
	before := loadCarePlan(t, db, id)

	backend.content = "second"
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: id, Attempt: attempt}))
	}

	after := loadCarePlan(t, db, id)
	assert.Equal(t, entity.CarePlanStatusCompleted, after.Status)
	assert.Equal(t, "first", after.GeneratedContent)
	assert.Equal(t, before.Attempts, after.Attempts)
	assert.Equal(t, 1, backend.Calls())
}

func TestProcess_StaleRetryIsDropped(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("boom")}, content: "plan"}
	p, q, db := newProcessor(t, backend)
	id := seedCarePlan(t, db, "")
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: id}))
	retry := next(t, q)

	// A redelivered attempt 0 and a future attempt both lose the claim.
	require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: id}))
	require.NoError(t, p.Process(ctx, queue.Job{CarePlanID: id, Attempt: retry.Attempt + 1}))
	assert.Equal(t, 1, backend.Calls())

	require.NoError(t, p.Process(ctx, retry))
	assert.Equal(t, entity.CarePlanStatusCompleted, loadCarePlan(t, db, id).Status)
}

func TestProcess_UnknownCarePlanIsDropped(t *testing.T) {
	backend := &scriptedBackend{content: "plan"}
	p, q, _ := newProcessor(t, backend)

	require.NoError(t, p.Process(context.Background(), queue.Job{CarePlanID: uuid.New()}))
	assert.Zero(t, backend.Calls())
	assert.Empty(t, q.Pending())
}

type failingEnqueue struct {
	*queue.MemoryQueue
}

func (failingEnqueue) Enqueue(ctx context.Context, job queue.Job) error {
	return fmt.Errorf("redis unavailable")
}

func TestProcess_RetryEnqueueFailureFailsOrder(t *testing.T) {
	db := testutil.NewDB(t)
	backend := &scriptedBackend{errs: []error{errors.New("boom")}}
	p := NewProcessor(db, testutil.NewLogger(), repository.NewCarePlanRepository(), failingEnqueue{queue.NewMemoryQueue()}, &stubResolver{backend: backend})
	id := seedCarePlan(t, db, "")

	require.NoError(t, p.Process(context.Background(), queue.Job{CarePlanID: id}))

	carePlan := loadCarePlan(t, db, id)
	assert.Equal(t, entity.CarePlanStatusFailed, carePlan.Status)
	assert.Equal(t, "boom", carePlan.ErrorMessage)
}
