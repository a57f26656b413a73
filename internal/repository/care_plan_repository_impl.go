package repository

import (
	"errors"
	"strings"
	"time"

	"careplan-service/internal/domain/entity"
	domainRepo "careplan-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type carePlanRepository struct{}

func NewCarePlanRepository() domainRepo.CarePlanRepository {
	return &carePlanRepository{}
}

func (r *carePlanRepository) Create(db *gorm.DB, carePlan *entity.CarePlan) error {
	return db.Omit("Patient", "Provider").Create(carePlan).Error
}

func (r *carePlanRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.CarePlan, error) {
	var carePlan entity.CarePlan
	err := db.Preload("Patient").Preload("Provider").Where("id = ?", id).First(&carePlan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &carePlan, nil
}

func (r *carePlanRepository) CountByPatientAndMedication(db *gorm.DB, patientID uuid.UUID, medication string) (int64, error) {
	var count int64
	err := db.Model(&entity.CarePlan{}).
		Where("patient_id = ? AND medication_name = ?", patientID, medication).
		Count(&count).Error
	return count, err
}

// CountByPatientAndMedicationBetween counts orders created in [from, to).
func (r *carePlanRepository) CountByPatientAndMedicationBetween(db *gorm.DB, patientID uuid.UUID, medication string, from, to time.Time) (int64, error) {
	var count int64
	err := db.Model(&entity.CarePlan{}).
		Where("patient_id = ? AND medication_name = ?", patientID, medication).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}

// ClaimAttempt atomically moves a care plan into processing for the given
// attempt. Attempt 0 claims a pending order; attempt k claims a processing
// order whose attempt counter is still k.
// Returns affected rows: 1 = claimed, 0 = stale or duplicate delivery.
func (r *carePlanRepository) ClaimAttempt(db *gorm.DB, id uuid.UUID, attempt int) (int64, error) {
	query := db.Model(&entity.CarePlan{}).Where("id = ?", id)
	if attempt == 0 {
		query = query.Where("status = ?", entity.CarePlanStatusPending)
	} else {
		query = query.Where("status = ? AND attempts = ?", entity.CarePlanStatusProcessing, attempt)
	}

	result := query.Updates(map[string]interface{}{
		"status":   entity.CarePlanStatusProcessing,
		"attempts": attempt + 1,
	})
	return result.RowsAffected, result.Error
}

// MarkCompleted stores generated content ONLY if the order is still processing.
func (r *carePlanRepository) MarkCompleted(db *gorm.DB, id uuid.UUID, content string) (int64, error) {
	result := db.Model(&entity.CarePlan{}).
		Where("id = ? AND status = ?", id, entity.CarePlanStatusProcessing).
		Updates(map[string]interface{}{
			"status":            entity.CarePlanStatusCompleted,
			"generated_content": content,
			"error_message":     "",
		})
	return result.RowsAffected, result.Error
}

// MarkFailed records the terminal error ONLY if the order is still processing.
func (r *carePlanRepository) MarkFailed(db *gorm.DB, id uuid.UUID, message string) (int64, error) {
	result := db.Model(&entity.CarePlan{}).
		Where("id = ? AND status = ?", id, entity.CarePlanStatusProcessing).
		Updates(map[string]interface{}{
			"status":        entity.CarePlanStatusFailed,
			"error_message": message,
		})
	return result.RowsAffected, result.Error
}

func (r *carePlanRepository) FindStale(db *gorm.DB, status entity.CarePlanStatus, updatedBefore time.Time, afterID uuid.UUID, limit int) ([]entity.CarePlan, error) {
	var carePlans []entity.CarePlan
	err := db.Where("status = ? AND updated_at < ? AND id > ?", status, updatedBefore, afterID).
		Order("id").
		Limit(limit).
		Find(&carePlans).Error
	if err != nil {
		return nil, err
	}
	return carePlans, nil
}

func (r *carePlanRepository) SearchCompleted(db *gorm.DB, query string, limit int) ([]entity.CarePlan, error) {
	var carePlans []entity.CarePlan

	tx := db.Model(&entity.CarePlan{}).
		Joins("JOIN patients ON patients.id = care_plans.patient_id").
		Joins("JOIN providers ON providers.id = care_plans.provider_id").
		Where("care_plans.status = ?", entity.CarePlanStatusCompleted)

	if q := strings.TrimSpace(query); q != "" {
		like := containsPattern(q)
		tx = tx.Where(
			"(LOWER(patients.first_name) LIKE ? ESCAPE '\\' OR "+
				"LOWER(patients.last_name) LIKE ? ESCAPE '\\' OR "+
				"LOWER(patients.mrn) LIKE ? ESCAPE '\\' OR "+
				"LOWER(providers.name) LIKE ? ESCAPE '\\' OR "+
				"LOWER(providers.npi) LIKE ? ESCAPE '\\' OR "+
				"LOWER(care_plans.medication_name) LIKE ? ESCAPE '\\' OR "+
				"LOWER(care_plans.primary_diagnosis) LIKE ? ESCAPE '\\')",
			like, like, like, like, like, like, like,
		)
	}

	tx = tx.Preload("Patient").Preload("Provider").Order("care_plans.created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	if err := tx.Find(&carePlans).Error; err != nil {
		return nil, err
	}
	return carePlans, nil
}

// containsPattern builds a lower-cased LIKE pattern with wildcards escaped.
func containsPattern(q string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(q))
	return "%" + escaped + "%"
}
