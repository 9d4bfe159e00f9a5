package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModuleRepositoryImpl implements ModuleRepository and RotatingModuleRepository for one module table
type ModuleRepositoryImpl[M any] struct {
	*BaseRepository[M, models.ModuleFilter]
	preloads []string
}

func newModuleRepository[M any](db *gorm.DB, preloads ...string) *ModuleRepositoryImpl[M] {
	return &ModuleRepositoryImpl[M]{
		BaseRepository: NewBaseRepository[M, models.ModuleFilter](db),
		preloads:       preloads,
	}
}

func NewAdModuleRepository(db *gorm.DB) ModuleRepository[models.AdModule] {
	return newModuleRepository[models.AdModule](db)
}

func NewPollModuleRepository(db *gorm.DB) RotatingModuleRepository[models.PollModule] {
	return newModuleRepository[models.PollModule](db)
}

func NewPromptModuleRepository(db *gorm.DB) RotatingModuleRepository[models.PromptModule] {
	return newModuleRepository[models.PromptModule](db)
}

func NewFeedbackModuleRepository(db *gorm.DB) ModuleRepository[models.FeedbackModule] {
	return newModuleRepository[models.FeedbackModule](db, "VoteOptions")
}

func NewTextBoxModuleRepository(db *gorm.DB) ModuleRepository[models.TextBoxModule] {
	return newModuleRepository[models.TextBoxModule](db)
}

func (r *ModuleRepositoryImpl[M]) query(ctx context.Context) *gorm.DB {
	db := r.getDB(ctx).Model(new(M))
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	return db
}

func (r *ModuleRepositoryImpl[M]) ByID(ctx context.Context, id uint) (*M, error) {
	var row M
	if err := r.query(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find module %d: %w", id, err)
	}
	return &row, nil
}

func (r *ModuleRepositoryImpl[M]) applyFilter(db *gorm.DB, f models.ModuleFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.PublicationID != nil {
		db = db.Where("publication_id = ?", *f.PublicationID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	return db
}

func (r *ModuleRepositoryImpl[M]) ByFilter(ctx context.Context, filter models.ModuleFilter, orderBy string, limit, offset int) ([]*M, error) {
	query := page(r.applyFilter(r.query(ctx), filter), orderBy, limit, offset)
	var rows []*M
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return rows, nil
}

func (r *ModuleRepositoryImpl[M]) Count(ctx context.Context, filter models.ModuleFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(new(M)), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count modules: %w", err)
	}
	return count, nil
}

func (r *ModuleRepositoryImpl[M]) Exists(ctx context.Context, filter models.ModuleFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ModuleRepositoryImpl[M]) ListActive(ctx context.Context, publicationID uuid.UUID) ([]*M, error) {
	active := true
	return r.ByFilter(ctx, models.ModuleFilter{PublicationID: &publicationID, IsActive: &active}, "display_order ASC, id ASC", 0, 0)
}

func (r *ModuleRepositoryImpl[M]) UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	cols := update.Columns()
	cols["updated_at"] = utils.UTCNow()
	result := r.getDB(ctx).Model(new(M)).Where("id = ?", moduleID).Updates(cols)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update config of module %d: %w", moduleID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ModuleRepositoryImpl[M]) UpdateNextPosition(ctx context.Context, moduleID uint, nextPosition int) error {
	result := r.getDB(ctx).Model(new(M)).
		Where("id = ?", moduleID).
		Updates(map[string]any{"next_position": nextPosition, "updated_at": utils.UTCNow()})
	if result.Error != nil {
		return fmt.Errorf("failed to advance next_position of module %d: %w", moduleID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("module not found with ID: %d", moduleID)
	}
	return nil
}
