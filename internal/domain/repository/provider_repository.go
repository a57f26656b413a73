package repository

import (
	"careplan-service/internal/domain/entity"

	"gorm.io/gorm"
)

type ProviderRepository interface {
	Create(db *gorm.DB, provider *entity.Provider) error
	FindByNPI(db *gorm.DB, npi string) (*entity.Provider, error)
}
