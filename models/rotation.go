package models

import (
	"time"

	"github.com/amirphl/issue-composer/selection"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RotationCounters are the per-item fields the selection algorithms read.
// Only usage recording at send time mutates TimesUsed and LastUsedDate.
type RotationCounters struct {
	DisplayOrder int        `gorm:"not null;default:0" json:"display_order"`
	Priority     int        `gorm:"not null;default:0" json:"priority"`
	TimesUsed    int        `gorm:"not null;default:0" json:"times_used"`
	LastUsedDate *time.Time `gorm:"type:date" json:"last_used_date,omitempty"`
}

// ModuleBase holds the configuration shared by every module instance
type ModuleBase struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PublicationID uuid.UUID      `gorm:"type:uuid;not null" json:"publication_id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	ShowName      bool           `gorm:"not null;default:true" json:"show_name"`
	DisplayOrder  int            `gorm:"not null;default:0" json:"display_order"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	BlockOrder    pq.StringArray `gorm:"type:text[];not null" json:"block_order"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// Base exposes the shared configuration to family-agnostic code
func (m *ModuleBase) Base() *ModuleBase { return m }

// ModuleConfigUpdate carries the presentation fields an editor may change; nil fields stay as stored
type ModuleConfigUpdate struct {
	Name         *string
	ShowName     *bool
	DisplayOrder *int
	IsActive     *bool
	BlockOrder   []string
}

// Empty reports whether the update changes nothing
func (u ModuleConfigUpdate) Empty() bool {
	return u.Name == nil && u.ShowName == nil && u.DisplayOrder == nil && u.IsActive == nil && u.BlockOrder == nil
}

// Columns maps the set fields to their column names
func (u ModuleConfigUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.ShowName != nil {
		cols["show_name"] = *u.ShowName
	}
	if u.DisplayOrder != nil {
		cols["display_order"] = *u.DisplayOrder
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	if u.BlockOrder != nil {
		cols["block_order"] = pq.StringArray(u.BlockOrder)
	}
	return cols
}

// Module is implemented by every module instance type
type Module interface {
	Base() *ModuleBase
	Family() ModuleFamily
}

// RotatingModule is a module whose picks follow a configurable selection mode
type RotatingModule interface {
	Module
	Mode() SelectionMode
	Cursor() int
}

// Item is implemented by every selectable content item
type Item interface {
	ItemID() uint
	Candidate() selection.Candidate
	Snapshot(at time.Time) ContentSnapshot
}

// ModuleFilter provides filter fields shared by module repositories
type ModuleFilter struct {
	ID            *uint
	PublicationID *uuid.UUID
	IsActive      *bool
	Name          *string
}

// ItemFilter provides filter fields shared by content item repositories
type ItemFilter struct {
	ID            *uint
	PublicationID *uuid.UUID
	ModuleID      *uint
	Unpinned      *bool
	IsActive      *bool
}
