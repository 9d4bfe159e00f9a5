package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/issue-composer/models"
	"gorm.io/gorm"
)

// ShortLinkRepositoryImpl implements ShortLinkRepository
type ShortLinkRepositoryImpl struct {
	*BaseRepository[models.ShortLink, models.ShortLinkFilter]
}

func NewShortLinkRepository(db *gorm.DB) ShortLinkRepository {
	return &ShortLinkRepositoryImpl{BaseRepository: NewBaseRepository[models.ShortLink, models.ShortLinkFilter](db)}
}

func (r *ShortLinkRepositoryImpl) ByUID(ctx context.Context, uid string) (*models.ShortLink, error) {
	rows, err := r.ByFilter(ctx, models.ShortLinkFilter{UID: &uid}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ShortLinkRepositoryImpl) applyFilter(db *gorm.DB, f models.ShortLinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UID != nil {
		db = db.Where("uid = ?", *f.UID)
	}
	if f.IssueID != nil {
		db = db.Where("issue_id = ?", *f.IssueID)
	}
	if f.Section != nil {
		db = db.Where("section = ?", *f.Section)
	}
	if f.LongLink != nil {
		db = db.Where("long_link = ?", *f.LongLink)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ShortLinkRepositoryImpl) ByFilter(ctx context.Context, filter models.ShortLinkFilter, orderBy string, limit, offset int) ([]*models.ShortLink, error) {
	query := page(r.applyFilter(r.getDB(ctx).Model(&models.ShortLink{}), filter), orderBy, limit, offset)
	var rows []*models.ShortLink
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list short links: %w", err)
	}
	return rows, nil
}

func (r *ShortLinkRepositoryImpl) Count(ctx context.Context, filter models.ShortLinkFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.ShortLink{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count short links: %w", err)
	}
	return count, nil
}

func (r *ShortLinkRepositoryImpl) Exists(ctx context.Context, filter models.ShortLinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ShortLinkRepositoryImpl) IncrementClicks(ctx context.Context, id uint) error {
	err := r.getDB(ctx).Model(&models.ShortLink{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to count click on short link %d: %w", id, err)
	}
	return nil
}
