package service

import (
	"context"

	"careplan-service/internal/domain/entity"
	"careplan-service/internal/domain/repository"
	"careplan-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// rawExcerptLimit bounds how much of a payload is kept in the audit trail.
const rawExcerptLimit = 4096

type AuditService interface {
	LogIntakeAccepted(ctx context.Context, source string, carePlanID uuid.UUID, raw []byte) error
	LogIntakeRejected(ctx context.Context, source string, cause error, raw []byte) error
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogIntakeAccepted records a submission that produced a care plan
func (s *auditService) LogIntakeAccepted(ctx context.Context, source string, carePlanID uuid.UUID, raw []byte) error {
	metadata := datatypes.JSONMap{
		"source":       source,
		"outcome":      "accepted",
		"care_plan_id": carePlanID.String(),
		"raw":          excerpt(raw),
	}

	return s.create(ctx, entity.AuditActionIntakeAccepted, metadata)
}

// LogIntakeRejected records a submission stopped by intake or the gate
func (s *auditService) LogIntakeRejected(ctx context.Context, source string, cause error, raw []byte) error {
	metadata := datatypes.JSONMap{
		"source":  source,
		"outcome": "rejected",
		"type":    string(apperror.TypeError),
		"code":    apperror.CodeInternal,
		"message": cause.Error(),
		"raw":     excerpt(raw),
	}
	if appErr, ok := apperror.As(cause); ok {
		metadata["type"] = string(appErr.Type)
		metadata["code"] = appErr.Code
		metadata["message"] = appErr.Message
	}

	return s.create(ctx, entity.AuditActionIntakeRejected, metadata)
}

func (s *auditService) create(ctx context.Context, action string, metadata datatypes.JSONMap) error {
	auditLog := &entity.AuditLog{
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(s.db.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}
	return nil
}

func excerpt(raw []byte) string {
	if len(raw) > rawExcerptLimit {
		return string(raw[:rawExcerptLimit])
	}
	return string(raw)
}
