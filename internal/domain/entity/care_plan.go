package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CarePlanStatus is the generation lifecycle of a care plan order.
type CarePlanStatus string

const (
	CarePlanStatusPending    CarePlanStatus = "pending"
	CarePlanStatusProcessing CarePlanStatus = "processing"
	CarePlanStatusCompleted  CarePlanStatus = "completed"
	CarePlanStatusFailed     CarePlanStatus = "failed"
)

// CarePlan is the generation work item created by a successful intake.
// Status only moves forward: pending -> processing -> completed|failed.
type CarePlan struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_care_plans_patient_medication" json:"patient_id"`
	ProviderID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"provider_id"`
	PrimaryDiagnosis    string         `gorm:"type:varchar(50);not null" json:"primary_diagnosis"`
	AdditionalDiagnosis string         `gorm:"type:text" json:"additional_diagnosis"`
	MedicationName      string         `gorm:"type:varchar(200);not null;index:idx_care_plans_patient_medication" json:"medication_name"`
	MedicationHistory   string         `gorm:"type:text" json:"medication_history"`
	PatientRecords      string         `gorm:"type:text;not null" json:"patient_records"`
	Status              CarePlanStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	GeneratedContent    string         `gorm:"type:text" json:"generated_content"`
	ErrorMessage        string         `gorm:"type:text" json:"error_message"`
	Source              string         `gorm:"type:varchar(50)" json:"source"`
	BackendHint         string         `gorm:"type:varchar(50)" json:"backend_hint"`
	// Attempts counts generation attempts started; retries claim by it.
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient  Patient  `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Provider Provider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (CarePlan) TableName() string {
	return "care_plans"
}

func (c *CarePlan) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *CarePlan) IsPending() bool {
	return c.Status == CarePlanStatusPending
}

func (c *CarePlan) IsProcessing() bool {
	return c.Status == CarePlanStatusProcessing
}

func (c *CarePlan) IsCompleted() bool {
	return c.Status == CarePlanStatusCompleted
}

func (c *CarePlan) IsFailed() bool {
	return c.Status == CarePlanStatusFailed
}

// IsTerminal reports whether no further transition is possible.
func (c *CarePlan) IsTerminal() bool {
	return c.IsCompleted() || c.IsFailed()
}
