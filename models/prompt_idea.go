package models

import (
	"time"

	"github.com/amirphl/issue-composer/selection"
	"github.com/google/uuid"
)

// PromptModule is a configured prompt card slot with a rotation rule
type PromptModule struct {
	ModuleBase
	SelectionMode SelectionMode `gorm:"size:16;not null;default:'random'" json:"selection_mode"`
	NextPosition  int           `gorm:"not null;default:1" json:"next_position"`
}

// TableName returns the table name for PromptModule
func (PromptModule) TableName() string { return "prompt_modules" }

// Family returns the module family
func (PromptModule) Family() ModuleFamily { return ModuleFamilyPrompt }

// Mode returns the configured selection mode
func (m *PromptModule) Mode() SelectionMode { return m.SelectionMode }

// Cursor returns the sequential cursor
func (m *PromptModule) Cursor() int { return m.NextPosition }

// PromptIdea is a reusable prompt readers can try
type PromptIdea struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PublicationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_prompt_ideas_publication_id" json:"publication_id"`
	ModuleID      *uint      `gorm:"index:idx_prompt_ideas_module_id" json:"module_id,omitempty"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	PromptText    string     `gorm:"type:text;not null" json:"prompt_text"`
	BodyFormat    BodyFormat `gorm:"size:16;not null;default:'markdown'" json:"body_format"`
	ImageURL      string     `gorm:"type:text" json:"image_url"`
	ImageAlt      string     `gorm:"size:255" json:"image_alt"`
	ButtonText    string     `gorm:"size:128" json:"button_text"`
	ButtonURL     string     `gorm:"type:text" json:"button_url"`
	IsActive      bool       `gorm:"not null;default:true;index:idx_prompt_ideas_is_active" json:"is_active"`
	RotationCounters

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for PromptIdea
func (PromptIdea) TableName() string { return "prompt_ideas" }

// ItemID returns the prompt idea id
func (p *PromptIdea) ItemID() uint { return p.ID }

// Candidate returns the rotation view of the prompt idea
func (p *PromptIdea) Candidate() selection.Candidate {
	return selection.Candidate{
		ID:           p.ID,
		DisplayOrder: p.DisplayOrder,
		Priority:     p.Priority,
		TimesUsed:    p.TimesUsed,
	}
}

// Snapshot freezes the prompt idea's rendering fields
func (p *PromptIdea) Snapshot(at time.Time) ContentSnapshot {
	return ContentSnapshot{
		Family:     ModuleFamilyPrompt,
		ItemID:     p.ID,
		Title:      p.Title,
		Body:       p.PromptText,
		BodyFormat: p.BodyFormat,
		ImageURL:   p.ImageURL,
		ImageAlt:   p.ImageAlt,
		ButtonText: p.ButtonText,
		ButtonURL:  p.ButtonURL,
		CapturedAt: at,
	}
}
