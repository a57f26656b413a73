package usecase

import (
	"time"

	"careplan-service/internal/domain/entity"
	"careplan-service/internal/domain/repository"
	"careplan-service/pkg/apperror"

	"gorm.io/gorm"
)

// DuplicationGate runs the provider, patient and order duplicate checks.
// Each check returns an entity to reuse, nil to create, or a typed conflict.
type DuplicationGate struct {
	patientRepo  repository.PatientRepository
	providerRepo repository.ProviderRepository
	carePlanRepo repository.CarePlanRepository
	now          func() time.Time
}

func NewDuplicationGate(
	patientRepo repository.PatientRepository,
	providerRepo repository.ProviderRepository,
	carePlanRepo repository.CarePlanRepository,
	now func() time.Time,
) *DuplicationGate {
	if now == nil {
		now = time.Now
	}
	return &DuplicationGate{
		patientRepo:  patientRepo,
		providerRepo: providerRepo,
		carePlanRepo: carePlanRepo,
		now:          now,
	}
}

// CheckProvider blocks an NPI that is already registered under another
// name, with or without confirmation.
func (g *DuplicationGate) CheckProvider(db *gorm.DB, npi, name string) (*entity.Provider, error) {
	existing, err := g.providerRepo.FindByNPI(db, npi)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Name == name {
		return existing, nil
	}
	return nil, apperror.Block(
		apperror.CodeProviderNPIMismatch,
		"NPI already exists with a different provider name. The provider name must be corrected.",
	)
}

// CheckPatient resolves the patient by MRN first. Only without an MRN match
// is the name and date of birth compared against other MRNs.
func (g *DuplicationGate) CheckPatient(db *gorm.DB, mrn, firstName, lastName string, dob time.Time, confirm bool) (*entity.Patient, error) {
	byMRN, err := g.patientRepo.FindByMRN(db, mrn)
	if err != nil {
		return nil, err
	}

	if byMRN != nil {
		if byMRN.Matches(firstName, lastName, dob) {
			return byMRN, nil
		}
		if !confirm {
			return nil, apperror.Warning(
				apperror.CodePatientMRNMismatch,
				"MRN already exists with a different patient name or date of birth. Please confirm to continue.",
			)
		}
		// Confirmed: the stored record wins over the submitted attributes.
		return byMRN, nil
	}

	byNameDOB, err := g.patientRepo.FindByNameAndDOB(db, firstName, lastName, dob, mrn)
	if err != nil {
		return nil, err
	}
	if byNameDOB != nil && !confirm {
		return nil, apperror.Warning(
			apperror.CodePatientNameDOBDuplicate,
			"A patient with the same name and date of birth exists under a different MRN. Please confirm to continue.",
		)
	}
	return nil, nil
}

// CheckOrder blocks a same-day reorder of the same medication and warns on
// a reorder from an earlier day. The day is the process-local calendar day.
func (g *DuplicationGate) CheckOrder(db *gorm.DB, patient *entity.Patient, medication string, confirm bool) error {
	if patient == nil {
		return nil
	}

	from, to := dayBounds(g.now())
	sameDay, err := g.carePlanRepo.CountByPatientAndMedicationBetween(db, patient.ID, medication, from, to)
	if err != nil {
		return err
	}
	if sameDay > 0 {
		return apperror.Block(
			apperror.CodeOrderSameDayDuplicate,
			"An order for this patient and medication was already submitted today and cannot be resubmitted.",
		)
	}

	if confirm {
		return nil
	}

	prior, err := g.carePlanRepo.CountByPatientAndMedication(db, patient.ID, medication)
	if err != nil {
		return err
	}
	if prior > 0 {
		return apperror.Warning(
			apperror.CodeOrderDiffDayDuplicate,
			"An order for this patient and medication exists from a previous day. Please confirm to continue.",
		)
	}
	return nil
}

// dayBounds returns [local midnight, next local midnight) around t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
