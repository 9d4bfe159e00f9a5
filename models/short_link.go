package models

import (
	"time"

	"github.com/google/uuid"
)

// ShortLink maps a short token to the outbound URL of one section of one issue.
// Section is the module name the link was rendered in.
type ShortLink struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UID       string     `gorm:"size:64;not null;uniqueIndex:uk_short_links_uid" json:"uid"`
	IssueID   *uuid.UUID `gorm:"type:uuid;index:idx_short_links_issue_id" json:"issue_id,omitempty"`
	Section   string     `gorm:"size:255;not null;default:''" json:"section"`
	IssueDate *time.Time `gorm:"type:date" json:"issue_date,omitempty"`
	LongLink  string     `gorm:"type:text;not null" json:"long_link"`
	ShortLink string     `gorm:"type:text;not null" json:"short_link"`
	Clicks    int64      `gorm:"not null;default:0" json:"clicks"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_short_links_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for ShortLink
func (ShortLink) TableName() string { return "short_links" }

// ShortLinkFilter provides filter fields for repository queries
type ShortLinkFilter struct {
	ID            *uint
	UID           *string
	IssueID       *uuid.UUID
	Section       *string
	LongLink      *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
