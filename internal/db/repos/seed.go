package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedRepository writes fixture rows idempotently and removes them by primary key
type SeedRepository struct {
	db *gorm.DB
}

// NewSeedRepository creates a new SeedRepository
func NewSeedRepository(db *gorm.DB) *SeedRepository {
	return &SeedRepository{db: db}
}

// Upsert inserts the entity or, when its primary key exists, overwrites every column
func (r *SeedRepository) Upsert(ctx context.Context, entity interface{}) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(entity).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %T: %w", entity, err)
	}
	return nil
}

// DeleteMany removes the rows of model whose id is in ids and returns how many were removed.
// Missing ids are not an error.
func (r *SeedRepository) DeleteMany(ctx context.Context, model interface{}, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(model)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete %T rows: %w", model, result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of rows of model whose id is in ids, or all rows when ids is nil
func (r *SeedRepository) Count(ctx context.Context, model interface{}, ids []string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(model)
	if ids != nil {
		db = db.Where("id IN ?", ids)
	}
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %T rows: %w", model, err)
	}
	return count, nil
}

// Transaction runs fn with a repository bound to one transaction
func (r *SeedRepository) Transaction(ctx context.Context, fn func(tx *SeedRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SeedRepository{db: tx})
	})
}
