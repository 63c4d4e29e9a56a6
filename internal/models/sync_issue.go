package models

import "time"

type SyncIssueType string

const (
	// Relational row exists with no index document and the compensating delete failed.
	SyncIssueOrphanedRecord SyncIssueType = "orphaned_record"
	// Relational update committed but the projection was not re-indexed.
	SyncIssueStaleProjection SyncIssueType = "stale_projection"
	// Relational row deleted but the index document may still exist.
	SyncIssueIndexDeleteFailed SyncIssueType = "index_delete_failed"
)

// SyncIssue is a known divergence between the relational store and the index,
// left for the reconciliation job.
type SyncIssue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RecordKind Kind          `gorm:"size:16;index" json:"record_kind"`
	RecordID   string        `gorm:"size:64;index" json:"record_id"`
	Operation  string        `gorm:"size:20" json:"operation"`
	Type       SyncIssueType `gorm:"size:32;index" json:"type"`
	Detail     string        `gorm:"type:text" json:"detail"`

	ResolvedAt *time.Time `json:"resolved_at"`
	ResolvedBy string     `gorm:"size:64" json:"resolved_by"`
}
