package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider is identified by NPI. One NPI maps to exactly one name.
type Provider struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NPI       string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"npi"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Provider) TableName() string {
	return "providers"
}

func (p *Provider) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
