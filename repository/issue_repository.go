package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueRepositoryImpl implements IssueRepository
type IssueRepositoryImpl struct {
	*BaseRepository[models.Issue, models.IssueFilter]
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &IssueRepositoryImpl{BaseRepository: NewBaseRepository[models.Issue, models.IssueFilter](db)}
}

func (r *IssueRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	var row models.Issue
	if err := r.getDB(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find issue %s: %w", id, err)
	}
	return &row, nil
}

func (r *IssueRepositoryImpl) applyFilter(db *gorm.DB, f models.IssueFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.PublicationID != nil {
		db = db.Where("publication_id = ?", *f.PublicationID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.DateFrom != nil {
		db = db.Where("issue_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		db = db.Where("issue_date <= ?", *f.DateTo)
	}
	return db
}

func (r *IssueRepositoryImpl) ByFilter(ctx context.Context, filter models.IssueFilter, orderBy string, limit, offset int) ([]*models.Issue, error) {
	query := page(r.applyFilter(r.getDB(ctx).Model(&models.Issue{}), filter), orderBy, limit, offset)
	var rows []*models.Issue
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return rows, nil
}

func (r *IssueRepositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time, archiveURL *string) (bool, error) {
	updates := map[string]any{
		"status":     models.IssueStatusSent,
		"sent_at":    sentAt,
		"updated_at": utils.UTCNow(),
	}
	if archiveURL != nil {
		updates["archive_url"] = *archiveURL
	}
	result := r.getDB(ctx).Model(&models.Issue{}).
		Where("id = ? AND status = ?", id, models.IssueStatusDraft).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark issue %s sent: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *IssueRepositoryImpl) FreezeArchiveStyles(ctx context.Context, id uuid.UUID, styles models.ArchiveStyles) (bool, error) {
	result := r.getDB(ctx).Model(&models.Issue{}).
		Where("id = ? AND archive_styles IS NULL", id).
		Updates(map[string]any{
			"archive_styles": styles,
			"updated_at":     utils.UTCNow(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to freeze archive styles of issue %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}
