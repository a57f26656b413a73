package repository

import (
	"careplan-service/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
	// FindByAction lists newest first. An empty action matches all; limit <= 0
	// means no limit.
	FindByAction(db *gorm.DB, action string, limit int) ([]entity.AuditLog, error)
}
