package models

import (
	"time"

	"github.com/amirphl/issue-composer/selection"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PollModule is a configured poll slot with a rotation rule
type PollModule struct {
	ModuleBase
	SelectionMode SelectionMode `gorm:"size:16;not null;default:'sequential'" json:"selection_mode"`
	NextPosition  int           `gorm:"not null;default:1" json:"next_position"`
}

// TableName returns the table name for PollModule
func (PollModule) TableName() string { return "poll_modules" }

// Family returns the module family
func (PollModule) Family() ModuleFamily { return ModuleFamilyPoll }

// Mode returns the configured selection mode
func (m *PollModule) Mode() SelectionMode { return m.SelectionMode }

// Cursor returns the sequential cursor
func (m *PollModule) Cursor() int { return m.NextPosition }

// Poll is a question with a fixed list of answer options
type Poll struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PublicationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_polls_publication_id" json:"publication_id"`
	ModuleID      *uint          `gorm:"index:idx_polls_module_id" json:"module_id,omitempty"`
	Title         string         `gorm:"size:255" json:"title"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Options       pq.StringArray `gorm:"type:text[];not null" json:"options"`
	ImageURL      string         `gorm:"type:text" json:"image_url"`
	ImageAlt      string         `gorm:"size:255" json:"image_alt"`
	IsActive      bool           `gorm:"not null;default:true;index:idx_polls_is_active" json:"is_active"`
	RotationCounters

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Poll
func (Poll) TableName() string { return "polls" }

// ItemID returns the poll id
func (p *Poll) ItemID() uint { return p.ID }

// Candidate returns the rotation view of the poll
func (p *Poll) Candidate() selection.Candidate {
	return selection.Candidate{
		ID:           p.ID,
		DisplayOrder: p.DisplayOrder,
		Priority:     p.Priority,
		TimesUsed:    p.TimesUsed,
	}
}

// Snapshot freezes the poll; option ids are their 1-based positions
func (p *Poll) Snapshot(at time.Time) ContentSnapshot {
	options := make([]SnapshotOption, 0, len(p.Options))
	for i, label := range p.Options {
		options = append(options, SnapshotOption{ID: uint(i + 1), Label: label})
	}
	return ContentSnapshot{
		Family:     ModuleFamilyPoll,
		ItemID:     p.ID,
		Title:      p.Title,
		Question:   p.Question,
		Options:    options,
		ImageURL:   p.ImageURL,
		ImageAlt:   p.ImageAlt,
		CapturedAt: at,
	}
}
