// Package repository is the relational system of record for supply and
// demand rows. Every mutation runs in its own transaction.
package repository

import (
	"context"
	"errors"
	"fmt"

	"realestate-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record id already exists")
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates rec and returns the row as committed, defaults included.
func (r *Repository) Insert(ctx context.Context, rec models.Record) (models.Record, error) {
	var committed models.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		fresh, err := load(tx, rec.Kind(), rec.RecordID())
		if err != nil {
			return err
		}
		committed = fresh
		return nil
	})
	if err != nil {
		return nil, wrap("insert", rec.Kind(), rec.RecordID(), err)
	}
	return committed, nil
}

// Update writes only the given columns. Keys are column names; a present key
// always overwrites, whatever its value.
func (r *Repository) Update(ctx context.Context, kind models.Kind, id string, fields map[string]any) (models.Record, error) {
	if _, ok := fields["id"]; ok {
		return nil, fmt.Errorf("update %s %s: id is immutable", kind, id)
	}
	var committed models.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := load(tx, kind, id)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(current).Updates(fields).Error; err != nil {
				return err
			}
		}
		fresh, err := load(tx, kind, id)
		if err != nil {
			return err
		}
		committed = fresh
		return nil
	})
	if err != nil {
		return nil, wrap("update", kind, id, err)
	}
	return committed, nil
}

// Delete removes the row and returns it as it was before deletion.
func (r *Repository) Delete(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	var deleted models.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := load(tx, kind, id)
		if err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(models.NewRecord(kind))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = current
		return nil
	})
	if err != nil {
		return nil, wrap("delete", kind, id, err)
	}
	return deleted, nil
}

func (r *Repository) GetByID(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	rec, err := load(r.db.WithContext(ctx), kind, id)
	if err != nil {
		return nil, wrap("get", kind, id, err)
	}
	return rec, nil
}

func (r *Repository) Count(ctx context.Context, kind models.Kind) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(models.NewRecord(kind)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// List returns up to limit rows of kind, oldest first. A limit <= 0 returns
// every row.
func (r *Repository) List(ctx context.Context, kind models.Kind, limit int) ([]models.Record, error) {
	q := r.db.WithContext(ctx).Order("created_at, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Record
	switch kind {
	case models.KindDemand:
		var rows []*models.DemandRecord
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, row := range rows {
			out = append(out, row)
		}
	default:
		var rows []*models.SupplyRecord
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, row := range rows {
			out = append(out, row)
		}
	}
	return out, nil
}

func load(tx *gorm.DB, kind models.Kind, id string) (models.Record, error) {
	rec := models.NewRecord(kind)
	if err := tx.First(rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func wrap(op string, kind models.Kind, id string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		err = ErrDuplicateID
	}
	return fmt.Errorf("%s %s %s: %w", op, kind, id, err)
}
