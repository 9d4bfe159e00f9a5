package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/issue-composer/models"
	"gorm.io/gorm"
)

// ShortLinkClickRepositoryImpl implements ShortLinkClickRepository
type ShortLinkClickRepositoryImpl struct {
	*BaseRepository[models.ShortLinkClick, models.ShortLinkClickFilter]
}

func NewShortLinkClickRepository(db *gorm.DB) ShortLinkClickRepository {
	return &ShortLinkClickRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ShortLinkClick, models.ShortLinkClickFilter](db),
	}
}

func (r *ShortLinkClickRepositoryImpl) applyFilter(db *gorm.DB, f models.ShortLinkClickFilter) *gorm.DB {
	if f.ShortLinkID != nil {
		db = db.Where("short_link_id = ?", *f.ShortLinkID)
	}
	if f.UID != nil {
		db = db.Where("uid = ?", *f.UID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ShortLinkClickRepositoryImpl) ByFilter(ctx context.Context, filter models.ShortLinkClickFilter, orderBy string, limit, offset int) ([]*models.ShortLinkClick, error) {
	query := page(r.applyFilter(r.getDB(ctx).Model(&models.ShortLinkClick{}), filter), orderBy, limit, offset)
	var rows []*models.ShortLinkClick
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list short link clicks: %w", err)
	}
	return rows, nil
}

func (r *ShortLinkClickRepositoryImpl) Count(ctx context.Context, filter models.ShortLinkClickFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.ShortLinkClick{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count short link clicks: %w", err)
	}
	return count, nil
}

func (r *ShortLinkClickRepositoryImpl) Exists(ctx context.Context, filter models.ShortLinkClickFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
