package usecase

import (
	"context"

	"careplan-service/internal/converter"
	"careplan-service/internal/delivery/dto"
	"careplan-service/internal/domain/repository"
	"careplan-service/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxAuditLogs caps one page of the intake audit trail.
const MaxAuditLogs = 100

type AuditLogUsecase interface {
	ListAuditLogs(ctx context.Context, action string, limit int) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// ListAuditLogs returns the newest intake audit entries, optionally for one
// action only.
func (u *auditLogUsecase) ListAuditLogs(ctx context.Context, action string, limit int) (*dto.AuditLogListResponse, error) {
	if limit <= 0 || limit > MaxAuditLogs {
		limit = MaxAuditLogs
	}

	logs, err := u.auditLogRepo.FindByAction(u.db.WithContext(ctx), action, limit)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, err
	}
	if auditLog == nil {
		return nil, apperror.NotFound("Audit log not found")
	}

	return converter.AuditLogToResponse(auditLog), nil
}
