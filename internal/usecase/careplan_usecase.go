package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"careplan-service/internal/converter"
	"careplan-service/internal/delivery/dto"
	"careplan-service/internal/domain/entity"
	"careplan-service/internal/domain/repository"
	"careplan-service/internal/intake"
	"careplan-service/internal/queue"
	"careplan-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// MaxSearchResults caps search results when no export is requested.
	MaxSearchResults = 50

	submitAcceptedMessage = "Received"
)

// BackendCatalog reports which generation backends a hint may name.
type BackendCatalog interface {
	Supports(hint string) bool
	Known() []string
}

type CarePlanUsecase interface {
	Submit(ctx context.Context, order *intake.CanonicalOrder) (*dto.SubmitResponse, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*dto.CarePlanStatusResponse, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*dto.CarePlanDetailResponse, error)
	GetDownload(ctx context.Context, id uuid.UUID) (*dto.CarePlanDownload, error)
	Search(ctx context.Context, query string, limit int) (*dto.CarePlanSearchResponse, error)
	Export(ctx context.Context, query string, w io.Writer) error
}

type carePlanUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	gate         *DuplicationGate
	patientRepo  repository.PatientRepository
	providerRepo repository.ProviderRepository
	carePlanRepo repository.CarePlanRepository
	queue        queue.Queue
	backends     BackendCatalog
	now          func() time.Time
}

func NewCarePlanUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	gate *DuplicationGate,
	patientRepo repository.PatientRepository,
	providerRepo repository.ProviderRepository,
	carePlanRepo repository.CarePlanRepository,
	jobQueue queue.Queue,
	backends BackendCatalog,
) CarePlanUsecase {
	return &carePlanUsecase{
		db:           db,
		log:          log,
		gate:         gate,
		patientRepo:  patientRepo,
		providerRepo: providerRepo,
		carePlanRepo: carePlanRepo,
		queue:        jobQueue,
		backends:     backends,
		now:          gate.now,
	}
}

// Submit runs the duplication gate, persists a pending care plan and
// enqueues its first generation attempt. It never waits for generation.
//
// Flow:
// 1. Reject an unknown backend hint
// 2. Provider check, then reuse or create
// 3. Patient check, then reuse or create
// 4. Order check
// 5. Insert care plan as pending
// 6. Enqueue attempt 0
func (u *carePlanUsecase) Submit(ctx context.Context, order *intake.CanonicalOrder) (*dto.SubmitResponse, error) {
	hint := strings.ToLower(strings.TrimSpace(order.Flags.BackendHint))
	if !u.backends.Supports(hint) {
		return nil, apperror.Validation([]apperror.FieldError{{
			Field:   "llm_provider",
			Message: fmt.Sprintf("Unknown generation backend: %s. Known: %s", hint, strings.Join(u.backends.Known(), ", ")),
		}})
	}

	dob, err := entity.ParseDOB(order.Patient.DOB)
	if err != nil {
		return nil, apperror.Validation([]apperror.FieldError{{
			Field:   "patient.dob",
			Message: "Date of birth must be a valid date in YYYY-MM-DD format",
		}})
	}

	db := u.db.WithContext(ctx)
	confirm := order.Flags.Confirm

	// Step 2: provider
	provider, err := u.gate.CheckProvider(db, order.Provider.NPI, order.Provider.Name)
	if err != nil {
		return nil, u.gateError("provider", err)
	}
	if provider == nil {
		provider = &entity.Provider{NPI: order.Provider.NPI, Name: order.Provider.Name}
		if err := u.providerRepo.Create(db, provider); err != nil {
			return nil, u.createError("provider", err)
		}
	}

	// Step 3: patient
	patient, err := u.gate.CheckPatient(db, order.Patient.MRN, order.Patient.FirstName, order.Patient.LastName, dob, confirm)
	if err != nil {
		return nil, u.gateError("patient", err)
	}
	if patient == nil {
		patient = &entity.Patient{
			MRN:       order.Patient.MRN,
			FirstName: order.Patient.FirstName,
			LastName:  order.Patient.LastName,
			DOB:       dob,
		}
		if err := u.patientRepo.Create(db, patient); err != nil {
			return nil, u.createError("patient", err)
		}
	}

	// Step 4: order
	if err := u.gate.CheckOrder(db, patient, order.CarePlan.MedicationName, confirm); err != nil {
		return nil, u.gateError("order", err)
	}

	// Step 5: care plan
	carePlan := &entity.CarePlan{
		PatientID:           patient.ID,
		ProviderID:          provider.ID,
		PrimaryDiagnosis:    order.CarePlan.PrimaryDiagnosis,
		AdditionalDiagnosis: order.CarePlan.AdditionalDiagnosis,
		MedicationName:      order.CarePlan.MedicationName,
		MedicationHistory:   order.CarePlan.MedicationHistory,
		PatientRecords:      order.CarePlan.PatientRecords,
		Status:              entity.CarePlanStatusPending,
		Source:              order.Source,
		BackendHint:         hint,
		CreatedAt:           u.now(),
	}
	if err := u.carePlanRepo.Create(db, carePlan); err != nil {
		u.log.Warnf("Failed to create care plan: %+v", err)
		return nil, err
	}

	// Step 6: enqueue
	if err := u.queue.Enqueue(ctx, queue.Job{CarePlanID: carePlan.ID}); err != nil {
		u.log.Errorf("Failed to enqueue care plan %s, left pending: %+v", carePlan.ID, err)
		return nil, err
	}

	u.log.Infof("Care plan submitted: id=%s, source=%s, mrn=%s, medication=%s", carePlan.ID, carePlan.Source, patient.MRN, carePlan.MedicationName)
	return &dto.SubmitResponse{
		Message:    submitAcceptedMessage,
		CarePlanID: carePlan.ID,
		Status:     string(carePlan.Status),
	}, nil
}

// gateError passes conflicts through unchanged and logs store failures.
func (u *carePlanUsecase) gateError(check string, err error) error {
	if _, ok := apperror.As(err); !ok {
		u.log.Warnf("Failed %s duplication check: %+v", check, err)
	}
	return err
}

// createError maps a lost unique-key race to a retryable conflict.
func (u *carePlanUsecase) createError(entityName string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		u.log.Warnf("Concurrent %s creation detected: %+v", entityName, err)
		return apperror.Conflict(
			apperror.CodeConcurrentSubmission,
			fmt.Sprintf("A concurrent submission created this %s. Please resubmit.", entityName),
		)
	}
	u.log.Warnf("Failed to create %s: %+v", entityName, err)
	return err
}

func (u *carePlanUsecase) findCarePlan(ctx context.Context, id uuid.UUID) (*entity.CarePlan, error) {
	carePlan, err := u.carePlanRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find care plan %s: %+v", id, err)
		return nil, err
	}
	if carePlan == nil {
		return nil, apperror.NotFound("Care plan not found")
	}
	return carePlan, nil
}

// GetStatus never fails for an order that is not ready.
func (u *carePlanUsecase) GetStatus(ctx context.Context, id uuid.UUID) (*dto.CarePlanStatusResponse, error) {
	carePlan, err := u.findCarePlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.CarePlanToStatusResponse(carePlan), nil
}

func (u *carePlanUsecase) GetDetail(ctx context.Context, id uuid.UUID) (*dto.CarePlanDetailResponse, error) {
	carePlan, err := u.findCarePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if !carePlan.IsCompleted() {
		message := "Care plan is not ready yet"
		if carePlan.IsFailed() && carePlan.ErrorMessage != "" {
			message = carePlan.ErrorMessage
		}
		return nil, apperror.NotReady(message, map[string]interface{}{"status": string(carePlan.Status)})
	}

	return converter.CarePlanToDetailResponse(carePlan), nil
}

func (u *carePlanUsecase) GetDownload(ctx context.Context, id uuid.UUID) (*dto.CarePlanDownload, error) {
	carePlan, err := u.findCarePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if !carePlan.IsCompleted() || carePlan.GeneratedContent == "" {
		return nil, apperror.NotReady("Care plan is not completed yet", map[string]interface{}{"status": string(carePlan.Status)})
	}

	return &dto.CarePlanDownload{
		Filename: converter.DownloadFilename(carePlan),
		Content:  carePlan.GeneratedContent,
	}, nil
}

// Search returns completed care plans, newest first. limit is clamped to
// MaxSearchResults.
func (u *carePlanUsecase) Search(ctx context.Context, query string, limit int) (*dto.CarePlanSearchResponse, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	carePlans, err := u.carePlanRepo.SearchCompleted(u.db.WithContext(ctx), query, limit)
	if err != nil {
		u.log.Warnf("Failed to search care plans: %+v", err)
		return nil, err
	}

	return &dto.CarePlanSearchResponse{Results: converter.CarePlansToSearchResults(carePlans)}, nil
}

// Export writes every matching completed care plan as CSV, with no limit.
func (u *carePlanUsecase) Export(ctx context.Context, query string, w io.Writer) error {
	carePlans, err := u.carePlanRepo.SearchCompleted(u.db.WithContext(ctx), query, 0)
	if err != nil {
		u.log.Warnf("Failed to export care plans: %+v", err)
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(converter.CarePlanExportHeader); err != nil {
		return err
	}
	for i := range carePlans {
		if err := writer.Write(converter.CarePlanToExportRow(&carePlans[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
