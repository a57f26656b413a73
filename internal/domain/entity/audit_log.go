package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records the outcome of every intake submission.
type AuditLog struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Action    string            `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

const (
	AuditActionIntakeAccepted = "intake.accepted"
	AuditActionIntakeRejected = "intake.rejected"
)
