package repository

import (
	"time"

	"careplan-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CarePlanRepository interface {
	Create(db *gorm.DB, carePlan *entity.CarePlan) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.CarePlan, error)
	CountByPatientAndMedication(db *gorm.DB, patientID uuid.UUID, medication string) (int64, error)
	CountByPatientAndMedicationBetween(db *gorm.DB, patientID uuid.UUID, medication string, from, to time.Time) (int64, error)
	ClaimAttempt(db *gorm.DB, id uuid.UUID, attempt int) (int64, error)
	MarkCompleted(db *gorm.DB, id uuid.UUID, content string) (int64, error)
	MarkFailed(db *gorm.DB, id uuid.UUID, message string) (int64, error)
	// FindStale returns up to limit care plans in status that were last
	// updated before the cutoff, ordered by id and starting after afterID.
	FindStale(db *gorm.DB, status entity.CarePlanStatus, updatedBefore time.Time, afterID uuid.UUID, limit int) ([]entity.CarePlan, error)
	// SearchCompleted returns completed care plans matching query, newest
	// first. A limit <= 0 means no limit.
	SearchCompleted(db *gorm.DB, query string, limit int) ([]entity.CarePlan, error)
}
