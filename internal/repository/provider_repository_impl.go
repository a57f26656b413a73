package repository

import (
	"errors"

	"careplan-service/internal/domain/entity"
	domainRepo "careplan-service/internal/domain/repository"

	"gorm.io/gorm"
)

type providerRepository struct{}

func NewProviderRepository() domainRepo.ProviderRepository {
	return &providerRepository{}
}

func (r *providerRepository) Create(db *gorm.DB, provider *entity.Provider) error {
	return db.Create(provider).Error
}

func (r *providerRepository) FindByNPI(db *gorm.DB, npi string) (*entity.Provider, error) {
	var provider entity.Provider
	err := db.Where("npi = ?", npi).First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}
