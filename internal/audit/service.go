// Package audit journals committed mutations and records known divergences
// between the relational store and the search index.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"realestate-backend/internal/models"
)

var (
	ErrIssueNotFound   = errors.New("sync issue not found")
	ErrAlreadyResolved = errors.New("sync issue already resolved")
)

type LogOptions struct {
	Kind     models.Kind
	RecordID string
	ActorID  string
	Action   models.AuditAction
	Before   any
	After    any
}

type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// snapshot encodes v as JSON; nil becomes the JSON null literal so jsonb
// columns never receive an empty string.
func snapshot(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func (r *Recorder) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		RecordKind: opts.Kind,
		RecordID:   opts.RecordID,
		ActorID:    opts.ActorID,
		Action:     opts.Action,
		BeforeData: snapshot(opts.Before),
		AfterData:  snapshot(opts.After),
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (r *Recorder) ReportIssue(ctx context.Context, issue *models.SyncIssue) error {
	if err := r.db.WithContext(ctx).Create(issue).Error; err != nil {
		return fmt.Errorf("record sync issue: %w", err)
	}
	return nil
}

type LogFilter struct {
	Kind     models.Kind
	RecordID string
	ActorID  string
	Limit    int
}

func (r *Recorder) ListLogs(ctx context.Context, f LogFilter) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.Kind != "" {
		q = q.Where("record_kind = ?", f.Kind)
	}
	if f.RecordID != "" {
		q = q.Where("record_id = ?", f.RecordID)
	}
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var logs []models.AuditLog
	if err := q.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

type IssueFilter struct {
	Kind models.Kind
	Type models.SyncIssueType
	// Status is "open" (default), "resolved" or "all".
	Status string
	Limit  int
}

func (r *Recorder) ListIssues(ctx context.Context, f IssueFilter) ([]models.SyncIssue, error) {
	q := r.db.WithContext(ctx).Model(&models.SyncIssue{})
	switch f.Status {
	case "", "open":
		q = q.Where("resolved_at IS NULL")
	case "resolved":
		q = q.Where("resolved_at IS NOT NULL")
	}
	if f.Kind != "" {
		q = q.Where("record_kind = ?", f.Kind)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var issues []models.SyncIssue
	if err := q.Order("id DESC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("list sync issues: %w", err)
	}
	return issues, nil
}

// Resolve marks an issue as handled by the reconciliation job or an operator.
func (r *Recorder) Resolve(ctx context.Context, id uint, by string) (*models.SyncIssue, error) {
	var issue models.SyncIssue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issue, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrIssueNotFound
			}
			return err
		}
		if issue.ResolvedAt != nil {
			return ErrAlreadyResolved
		}
		now := time.Now().UTC()
		issue.ResolvedAt = &now
		issue.ResolvedBy = by
		return tx.Model(&issue).Updates(map[string]any{"resolved_at": now, "resolved_by": by}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("resolve sync issue %d: %w", id, err)
	}
	return &issue, nil
}
