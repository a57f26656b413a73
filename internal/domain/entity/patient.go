package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the canonical calendar date format for DOB values.
const DateLayout = "2006-01-02"

// Patient is identified by MRN and is never updated after creation.
type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MRN       string    `gorm:"type:varchar(6);uniqueIndex;not null" json:"mrn"`
	FirstName string    `gorm:"type:varchar(100);not null;index:idx_patients_name_dob" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100);not null;index:idx_patients_name_dob" json:"last_name"`
	DOB       time.Time `gorm:"type:date;not null;index:idx_patients_name_dob" json:"dob"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FullName returns "First Last".
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// DOBString formats the date of birth as YYYY-MM-DD.
func (p *Patient) DOBString() string {
	return p.DOB.Format(DateLayout)
}

// Matches reports whether name and date of birth are identical.
func (p *Patient) Matches(firstName, lastName string, dob time.Time) bool {
	return p.FirstName == firstName &&
		p.LastName == lastName &&
		p.DOBString() == dob.Format(DateLayout)
}

// ParseDOB parses a YYYY-MM-DD date as UTC midnight.
func ParseDOB(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
