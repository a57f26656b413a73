package repository

import (
	"errors"
	"time"

	"careplan-service/internal/domain/entity"
	domainRepo "careplan-service/internal/domain/repository"

	"gorm.io/gorm"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	return db.Create(patient).Error
}

func (r *patientRepository) FindByMRN(db *gorm.DB, mrn string) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("mrn = ?", mrn).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByNameAndDOB(db *gorm.DB, firstName, lastName string, dob time.Time, excludeMRN string) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("first_name = ? AND last_name = ? AND dob = ? AND mrn <> ?", firstName, lastName, dob, excludeMRN).
		Order("created_at ASC").
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}
