package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog records one committed mutation with the projections before and after it.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RecordKind Kind   `gorm:"size:16;index:idx_audit_record" json:"record_kind"`
	RecordID   string `gorm:"size:64;index:idx_audit_record" json:"record_id"`

	// Empty when the caller was anonymous.
	ActorID string `gorm:"size:64" json:"actor_id"`

	Action AuditAction `gorm:"size:20" json:"action"`

	BeforeData datatypes.JSON `json:"before_data"`
	AfterData  datatypes.JSON `json:"after_data"`
}
