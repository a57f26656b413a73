package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainRepo "careplan-service/internal/domain/repository"
	"careplan-service/internal/intake"
	"careplan-service/internal/queue"
	"careplan-service/internal/repository"
	"careplan-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type staticCatalog []string

func (c staticCatalog) Supports(hint string) bool {
	if hint == "" {
		return true
	}
	for _, name := range c {
		if name == hint {
			return true
		}
	}
	return false
}

func (c staticCatalog) Known() []string {
	return c
}

type failingQueue struct{}

func (failingQueue) Enqueue(ctx context.Context, job queue.Job) error {
	return errors.New("redis unavailable")
}

func (failingQueue) Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error) {
	return nil, nil
}

type fixture struct {
	db    *gorm.DB
	queue *queue.MemoryQueue
	gate  *DuplicationGate
	uc    CarePlanUsecase
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:    testutil.NewDB(t),
		queue: queue.NewMemoryQueue(),
		clock: time.Date(2025, time.March, 10, 10, 0, 0, 0, time.Local),
	}
	f.gate = NewDuplicationGate(
		repository.NewPatientRepository(),
		repository.NewProviderRepository(),
		repository.NewCarePlanRepository(),
		func() time.Time { return f.clock },
	)
	f.uc = f.newUsecase(f.queue)
	return f
}

func (f *fixture) newUsecase(q queue.Queue) CarePlanUsecase {
	return NewCarePlanUsecase(
		f.db,
		testutil.NewLogger(),
		f.gate,
		repository.NewPatientRepository(),
		repository.NewProviderRepository(),
		repository.NewCarePlanRepository(),
		q,
		staticCatalog{"claude", "mock", "openai"},
	)
}

// withProviderRepo rebuilds the gate and usecase around providerRepo.
func (f *fixture) withProviderRepo(providerRepo domainRepo.ProviderRepository) CarePlanUsecase {
	f.gate = NewDuplicationGate(
		repository.NewPatientRepository(),
		providerRepo,
		repository.NewCarePlanRepository(),
		func() time.Time { return f.clock },
	)
	return NewCarePlanUsecase(
		f.db,
		testutil.NewLogger(),
		f.gate,
		repository.NewPatientRepository(),
		providerRepo,
		repository.NewCarePlanRepository(),
		f.queue,
		staticCatalog{"claude", "mock", "openai"},
	)
}

// complete drives a care plan through a successful generation.
func (f *fixture) complete(t *testing.T, id uuid.UUID, content string) {
	t.Helper()

	repo := repository.NewCarePlanRepository()
	rows, err := repo.ClaimAttempt(f.db, id, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
	rows, err = repo.MarkCompleted(f.db, id, content)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func newOrder(mods ...func(*intake.CanonicalOrder)) *intake.CanonicalOrder {
	order := &intake.CanonicalOrder{
		Patient: intake.PatientInfo{
			MRN:       "123456",
			FirstName: "John",
			LastName:  "Doe",
			DOB:       "1990-01-15",
		},
		Provider: intake.ProviderInfo{
			NPI:  "1234567890",
			Name: "Dr. Jane Smith",
		},
		CarePlan: intake.CarePlanInfo{
			PrimaryDiagnosis:  "E11.9",
			MedicationName:    "Metformin",
			MedicationHistory: "Lisinopril 10mg",
			PatientRecords:    "Stable type 2 diabetes.",
		},
		Source: intake.SourceWebForm,
	}
	for _, mod := range mods {
		mod(order)
	}
	return order
}

func confirmed(o *intake.CanonicalOrder) {
	o.Flags.Confirm = true
}
