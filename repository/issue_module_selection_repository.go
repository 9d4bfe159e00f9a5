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
	"gorm.io/gorm/clause"
)

var selectionKey = []clause.Column{{Name: "issue_id"}, {Name: "family"}, {Name: "module_id"}}

// IssueModuleSelectionRepositoryImpl implements IssueModuleSelectionRepository
type IssueModuleSelectionRepositoryImpl struct {
	*BaseRepository[models.IssueModuleSelection, models.IssueModuleSelectionFilter]
}

func NewIssueModuleSelectionRepository(db *gorm.DB) IssueModuleSelectionRepository {
	return &IssueModuleSelectionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.IssueModuleSelection, models.IssueModuleSelectionFilter](db),
	}
}

func (r *IssueModuleSelectionRepositoryImpl) applyFilter(db *gorm.DB, f models.IssueModuleSelectionFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.IssueID != nil {
		db = db.Where("issue_id = ?", *f.IssueID)
	}
	if f.Family != nil {
		db = db.Where("family = ?", *f.Family)
	}
	if f.ModuleID != nil {
		db = db.Where("module_id = ?", *f.ModuleID)
	}
	if f.Unused != nil {
		if *f.Unused {
			db = db.Where("used_at IS NULL")
		} else {
			db = db.Where("used_at IS NOT NULL")
		}
	}
	return db
}

func (r *IssueModuleSelectionRepositoryImpl) ByFilter(ctx context.Context, filter models.IssueModuleSelectionFilter, orderBy string, limit, offset int) ([]*models.IssueModuleSelection, error) {
	query := page(r.applyFilter(r.getDB(ctx).Model(&models.IssueModuleSelection{}), filter), orderBy, limit, offset)
	var rows []*models.IssueModuleSelection
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	return rows, nil
}

func (r *IssueModuleSelectionRepositoryImpl) Count(ctx context.Context, filter models.IssueModuleSelectionFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.IssueModuleSelection{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count selections: %w", err)
	}
	return count, nil
}

func (r *IssueModuleSelectionRepositoryImpl) Exists(ctx context.Context, filter models.IssueModuleSelectionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *IssueModuleSelectionRepositoryImpl) ByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	return r.ByFilter(ctx, models.IssueModuleSelectionFilter{IssueID: &issueID}, "family ASC, module_id ASC", 0, 0)
}

func (r *IssueModuleSelectionRepositoryImpl) ByIssueModule(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*models.IssueModuleSelection, error) {
	var row models.IssueModuleSelection
	err := r.getDB(ctx).
		Where("issue_id = ? AND family = ? AND module_id = ?", issueID, family, moduleID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find selection: %w", err)
	}
	return &row, nil
}

func (r *IssueModuleSelectionRepositoryImpl) ListUnusedForUpdate(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily) ([]*models.IssueModuleSelection, error) {
	var rows []*models.IssueModuleSelection
	err := r.getDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("issue_id = ? AND family = ? AND used_at IS NULL", issueID, family).
		Order("module_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock unused selections: %w", err)
	}
	return rows, nil
}

func (r *IssueModuleSelectionRepositoryImpl) CreateIfAbsent(ctx context.Context, selection *models.IssueModuleSelection) (bool, error) {
	result := r.getDB(ctx).
		Clauses(clause.OnConflict{Columns: selectionKey, DoNothing: true}).
		Create(selection)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create selection: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *IssueModuleSelectionRepositoryImpl) UpsertPick(ctx context.Context, selection *models.IssueModuleSelection) (bool, error) {
	result := r.getDB(ctx).
		Clauses(clause.OnConflict{
			Columns: selectionKey,
			DoUpdates: clause.Assignments(map[string]any{
				"selected_item_id": clause.Expr{SQL: "EXCLUDED.selected_item_id"},
				"selection_mode":   clause.Expr{SQL: "EXCLUDED.selection_mode"},
				"is_manual":        clause.Expr{SQL: "EXCLUDED.is_manual"},
				"reason":           clause.Expr{SQL: "EXCLUDED.reason"},
				"selected_at":      clause.Expr{SQL: "EXCLUDED.selected_at"},
				"updated_at":       clause.Expr{SQL: "EXCLUDED.updated_at"},
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "issue_module_selections.used_at IS NULL"},
			}},
		}).
		Create(selection)
	if result.Error != nil {
		return false, fmt.Errorf("failed to upsert selection: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *IssueModuleSelectionRepositoryImpl) MarkUsed(ctx context.Context, id uint, usedAt time.Time, snapshot *models.ContentSnapshot) (bool, error) {
	updates := map[string]any{
		"used_at":    usedAt,
		"updated_at": utils.UTCNow(),
	}
	if snapshot != nil {
		updates["content_snapshot"] = snapshot
	}
	result := r.getDB(ctx).Model(&models.IssueModuleSelection{}).
		Where("id = ? AND used_at IS NULL", id).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark selection %d used: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}
