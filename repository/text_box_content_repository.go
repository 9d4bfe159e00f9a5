package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/issue-composer/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TextBoxContentRepositoryImpl implements TextBoxContentRepository
type TextBoxContentRepositoryImpl struct {
	*BaseRepository[models.TextBoxContent, any]
}

func NewTextBoxContentRepository(db *gorm.DB) TextBoxContentRepository {
	return &TextBoxContentRepositoryImpl{BaseRepository: NewBaseRepository[models.TextBoxContent, any](db)}
}

func (r *TextBoxContentRepositoryImpl) ByIssueModule(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.TextBoxContent, error) {
	var row models.TextBoxContent
	err := r.getDB(ctx).
		Where("issue_id = ? AND text_box_module_id = ?", issueID, moduleID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find text box content: %w", err)
	}
	return &row, nil
}

func (r *TextBoxContentRepositoryImpl) ByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.TextBoxContent, error) {
	var rows []*models.TextBoxContent
	if err := r.getDB(ctx).Where("issue_id = ?", issueID).Order("text_box_module_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list text box contents: %w", err)
	}
	return rows, nil
}

func (r *TextBoxContentRepositoryImpl) Upsert(ctx context.Context, content *models.TextBoxContent) error {
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "issue_id"}, {Name: "text_box_module_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"body":         clause.Expr{SQL: "EXCLUDED.body"},
			"body_format":  clause.Expr{SQL: "EXCLUDED.body_format"},
			"generated_at": clause.Expr{SQL: "EXCLUDED.generated_at"},
			"updated_at":   clause.Expr{SQL: "EXCLUDED.updated_at"},
		}),
	}).Create(content).Error
	if err != nil {
		return fmt.Errorf("failed to store text box content: %w", err)
	}
	return nil
}
