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

// PublicationStyleRepositoryImpl implements PublicationStyleRepository
type PublicationStyleRepositoryImpl struct {
	*BaseRepository[models.PublicationStyle, any]
}

func NewPublicationStyleRepository(db *gorm.DB) PublicationStyleRepository {
	return &PublicationStyleRepositoryImpl{BaseRepository: NewBaseRepository[models.PublicationStyle, any](db)}
}

func (r *PublicationStyleRepositoryImpl) ByPublicationID(ctx context.Context, publicationID uuid.UUID) (*models.PublicationStyle, error) {
	var row models.PublicationStyle
	if err := r.getDB(ctx).Where("publication_id = ?", publicationID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find publication style: %w", err)
	}
	return &row, nil
}

func (r *PublicationStyleRepositoryImpl) Upsert(ctx context.Context, style *models.PublicationStyle) error {
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "publication_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"primary_color", "secondary_color", "heading_font", "body_font", "updated_at"}),
	}).Create(style).Error
	if err != nil {
		return fmt.Errorf("failed to store publication style: %w", err)
	}
	return nil
}
