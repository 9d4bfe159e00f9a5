package models

import (
	"time"

	"github.com/google/uuid"
)

// PublicationStyle holds a publication's colors and fonts
type PublicationStyle struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PublicationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_publication_styles_publication_id" json:"publication_id"`
	PrimaryColor   string    `gorm:"size:32;not null" json:"primary_color"`
	SecondaryColor string    `gorm:"size:32;not null" json:"secondary_color"`
	HeadingFont    string    `gorm:"size:255;not null" json:"heading_font"`
	BodyFont       string    `gorm:"size:255;not null" json:"body_font"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for PublicationStyle
func (PublicationStyle) TableName() string { return "publication_styles" }
