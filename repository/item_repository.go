package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepositoryImpl implements ItemRepository for one content table
type ItemRepositoryImpl[I any] struct {
	*BaseRepository[I, models.ItemFilter]
}

func newItemRepository[I any](db *gorm.DB) *ItemRepositoryImpl[I] {
	return &ItemRepositoryImpl[I]{BaseRepository: NewBaseRepository[I, models.ItemFilter](db)}
}

func NewAdRepository(db *gorm.DB) ItemRepository[models.Ad] {
	return newItemRepository[models.Ad](db)
}

func NewPollRepository(db *gorm.DB) ItemRepository[models.Poll] {
	return newItemRepository[models.Poll](db)
}

func NewPromptIdeaRepository(db *gorm.DB) ItemRepository[models.PromptIdea] {
	return newItemRepository[models.PromptIdea](db)
}

func (r *ItemRepositoryImpl[I]) applyFilter(db *gorm.DB, f models.ItemFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.PublicationID != nil {
		db = db.Where("publication_id = ?", *f.PublicationID)
	}
	if f.ModuleID != nil {
		db = db.Where("module_id = ?", *f.ModuleID)
	}
	if f.Unpinned != nil {
		if *f.Unpinned {
			db = db.Where("module_id IS NULL")
		} else {
			db = db.Where("module_id IS NOT NULL")
		}
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	return db
}

func (r *ItemRepositoryImpl[I]) ByFilter(ctx context.Context, filter models.ItemFilter, orderBy string, limit, offset int) ([]*I, error) {
	query := page(r.applyFilter(r.getDB(ctx).Model(new(I)), filter), orderBy, limit, offset)
	var rows []*I
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return rows, nil
}

func (r *ItemRepositoryImpl[I]) Count(ctx context.Context, filter models.ItemFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(new(I)), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *ItemRepositoryImpl[I]) Exists(ctx context.Context, filter models.ItemFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ItemRepositoryImpl[I]) EligiblePool(ctx context.Context, publicationID uuid.UUID, moduleID uint) ([]*I, error) {
	active := true
	pinned, err := r.ByFilter(ctx, models.ItemFilter{
		PublicationID: &publicationID,
		ModuleID:      &moduleID,
		IsActive:      &active,
	}, "display_order ASC, id ASC", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(pinned) > 0 {
		return pinned, nil
	}

	unpinned := true
	return r.ByFilter(ctx, models.ItemFilter{
		PublicationID: &publicationID,
		Unpinned:      &unpinned,
		IsActive:      &active,
	}, "display_order ASC, id ASC", 0, 0)
}

func (r *ItemRepositoryImpl[I]) IncrementUsage(ctx context.Context, itemID uint, usedOn time.Time) error {
	result := r.getDB(ctx).Model(new(I)).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"times_used":     gorm.Expr("times_used + 1"),
			"last_used_date": utils.DateOnly(usedOn),
			"updated_at":     utils.UTCNow(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment usage of item %d: %w", itemID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("item not found with ID: %d", itemID)
	}
	return nil
}
