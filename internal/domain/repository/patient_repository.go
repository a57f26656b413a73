package repository

import (
	"time"

	"careplan-service/internal/domain/entity"

	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(db *gorm.DB, patient *entity.Patient) error
	FindByMRN(db *gorm.DB, mrn string) (*entity.Patient, error)
	// FindByNameAndDOB finds a patient with identical name and DOB under a
	// different MRN than excludeMRN.
	FindByNameAndDOB(db *gorm.DB, firstName, lastName string, dob time.Time, excludeMRN string) (*entity.Patient, error)
}
