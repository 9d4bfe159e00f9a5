package models

import (
	"time"

	"github.com/google/uuid"
)

// SelectionState is the lifecycle position of one issue-module selection
type SelectionState string

const (
	SelectionStateCreated SelectionState = "created"
	SelectionStatePicked  SelectionState = "picked"
	SelectionStateUsed    SelectionState = "used"
)

// IssueModuleSelection records which item a module shows in one issue.
// UsedAt and ContentSnapshot are written once, when the issue is sent.
type IssueModuleSelection struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	IssueID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_issue_module_selections_issue_module;index:idx_issue_module_selections_issue_id" json:"issue_id"`
	Family          ModuleFamily     `gorm:"size:16;not null;uniqueIndex:uk_issue_module_selections_issue_module" json:"family"`
	ModuleID        uint             `gorm:"not null;uniqueIndex:uk_issue_module_selections_issue_module" json:"module_id"`
	SelectedItemID  *uint            `json:"selected_item_id,omitempty"`
	SelectionMode   SelectionMode    `gorm:"size:16;not null" json:"selection_mode"`
	IsManual        bool             `gorm:"not null;default:false" json:"is_manual"`
	Reason          string           `gorm:"size:128" json:"reason"`
	SelectedAt      *time.Time       `json:"selected_at,omitempty"`
	UsedAt          *time.Time       `json:"used_at,omitempty"`
	ContentSnapshot *ContentSnapshot `gorm:"type:jsonb" json:"content_snapshot,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for IssueModuleSelection
func (IssueModuleSelection) TableName() string { return "issue_module_selections" }

// State derives the lifecycle state from the stored fields
func (s *IssueModuleSelection) State() SelectionState {
	switch {
	case s.UsedAt != nil:
		return SelectionStateUsed
	case s.SelectedItemID != nil:
		return SelectionStatePicked
	default:
		return SelectionStateCreated
	}
}

// IsUsed reports whether usage has been recorded; used selections are read-only
func (s *IssueModuleSelection) IsUsed() bool {
	return s.UsedAt != nil
}

// IssueModuleSelectionFilter provides filter fields for repository queries
type IssueModuleSelectionFilter struct {
	ID       *uint
	IssueID  *uuid.UUID
	Family   *ModuleFamily
	ModuleID *uint
	Unused   *bool
}
