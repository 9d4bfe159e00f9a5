package models

import (
	"time"

	"github.com/amirphl/issue-composer/selection"
	"github.com/google/uuid"
)

// TextBoxModule is a free-text section. Static text lives on the module;
// generated text is stored per issue in TextBoxContent.
type TextBoxModule struct {
	ModuleBase
	Title            string     `gorm:"size:255" json:"title"`
	Body             string     `gorm:"type:text" json:"body"`
	BodyFormat       BodyFormat `gorm:"size:16;not null;default:'markdown'" json:"body_format"`
	ImageURL         string     `gorm:"type:text" json:"image_url"`
	ImageAlt         string     `gorm:"size:255" json:"image_alt"`
	IsGenerated      bool       `gorm:"not null;default:false" json:"is_generated"`
	GenerationPrompt string     `gorm:"type:text" json:"generation_prompt"`
}

// TableName returns the table name for TextBoxModule
func (TextBoxModule) TableName() string { return "text_box_modules" }

// Family returns the module family
func (TextBoxModule) Family() ModuleFamily { return ModuleFamilyTextBox }

// TextBoxContent is the text stored for one text box in one issue
type TextBoxContent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	IssueID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_text_box_contents_issue_module" json:"issue_id"`
	TextBoxModuleID uint       `gorm:"not null;uniqueIndex:uk_text_box_contents_issue_module" json:"text_box_module_id"`
	Body            string     `gorm:"type:text;not null" json:"body"`
	BodyFormat      BodyFormat `gorm:"size:16;not null;default:'markdown'" json:"body_format"`
	GeneratedAt     time.Time  `gorm:"not null" json:"generated_at"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for TextBoxContent
func (TextBoxContent) TableName() string { return "text_box_contents" }

// TextBoxItem is a text box module resolved for one issue
type TextBoxItem struct {
	Module  *TextBoxModule
	Content *TextBoxContent
}

// ItemID returns the module id; a text box selects itself
func (t *TextBoxItem) ItemID() uint { return t.Module.ID }

// Candidate returns the rotation view of the text box
func (t *TextBoxItem) Candidate() selection.Candidate {
	return selection.Candidate{ID: t.Module.ID, DisplayOrder: t.Module.DisplayOrder}
}

// Snapshot freezes the text shown in the issue, preferring issue-level content
func (t *TextBoxItem) Snapshot(at time.Time) ContentSnapshot {
	body, format := t.Module.Body, t.Module.BodyFormat
	if t.Content != nil {
		body, format = t.Content.Body, t.Content.BodyFormat
	}
	return ContentSnapshot{
		Family:     ModuleFamilyTextBox,
		ItemID:     t.Module.ID,
		Title:      t.Module.Title,
		Body:       body,
		BodyFormat: format,
		ImageURL:   t.Module.ImageURL,
		ImageAlt:   t.Module.ImageAlt,
		CapturedAt: at,
	}
}
