package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IssueStatus represents the lifecycle state of an issue
type IssueStatus string

const (
	IssueStatusDraft IssueStatus = "draft"
	IssueStatusSent  IssueStatus = "sent"
)

// String returns the string representation of the status
func (s IssueStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusDraft, IssueStatusSent:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for IssueStatus
func (s *IssueStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = IssueStatus(v)
	case []byte:
		*s = IssueStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into IssueStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for IssueStatus
func (s IssueStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid IssueStatus: %s", s)
	}
	return string(s), nil
}

// Issue is one edition of a publication
type Issue struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PublicationID uuid.UUID   `gorm:"type:uuid;not null;index:idx_issues_publication_id" json:"publication_id"`
	IssueDate     time.Time   `gorm:"type:date;not null" json:"issue_date"`
	Subject       string      `gorm:"size:255" json:"subject"`
	Status        IssueStatus `gorm:"size:16;not null;default:'draft'" json:"status"`
	SentAt        *time.Time  `json:"sent_at,omitempty"`
	ArchiveURL    *string     `gorm:"type:text" json:"archive_url,omitempty"`
	// ArchiveStyles are the publication styles captured when the issue was sent
	ArchiveStyles *ArchiveStyles `gorm:"type:jsonb" json:"archive_styles,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// ArchiveStyles is the jsonb copy of the styles an archive renders with
type ArchiveStyles struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	HeadingFont    string `json:"heading_font,omitempty"`
	BodyFont       string `json:"body_font,omitempty"`
}

// Value implements the driver.Valuer interface for ArchiveStyles
func (s ArchiveStyles) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for ArchiveStyles
func (s *ArchiveStyles) Scan(value any) error {
	if value == nil {
		*s = ArchiveStyles{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ArchiveStyles", value)
	}

	return json.Unmarshal(bytes, s)
}

// TableName returns the table name for Issue
func (Issue) TableName() string { return "issues" }

// IsSent reports whether the issue has gone out
func (i *Issue) IsSent() bool {
	return i.Status == IssueStatusSent
}

// IssueFilter provides filter fields for repository queries
type IssueFilter struct {
	ID            *uuid.UUID
	PublicationID *uuid.UUID
	Status        *IssueStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}
