package models

import (
	"slices"
	"time"

	"github.com/amirphl/issue-composer/selection"
)

// FeedbackModule is a self-contained "how did we do" widget; the module is its own content
type FeedbackModule struct {
	ModuleBase
	Title       string               `gorm:"size:255" json:"title"`
	Body        string               `gorm:"type:text" json:"body"`
	Question    string               `gorm:"type:text;not null" json:"question"`
	VoteOptions []FeedbackVoteOption `gorm:"foreignKey:FeedbackModuleID" json:"vote_options,omitempty"`
}

// TableName returns the table name for FeedbackModule
func (FeedbackModule) TableName() string { return "feedback_modules" }

// Family returns the module family
func (FeedbackModule) Family() ModuleFamily { return ModuleFamilyFeedback }

// ItemID returns the module id; a feedback module selects itself
func (m *FeedbackModule) ItemID() uint { return m.ID }

// Candidate returns the rotation view of the module
func (m *FeedbackModule) Candidate() selection.Candidate {
	return selection.Candidate{ID: m.ID, DisplayOrder: m.DisplayOrder}
}

// ActiveOptions returns active vote options ordered for display
func (m *FeedbackModule) ActiveOptions() []FeedbackVoteOption {
	var out []FeedbackVoteOption
	for _, o := range m.VoteOptions {
		if o.IsActive {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b FeedbackVoteOption) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return int(a.ID) - int(b.ID)
	})
	return out
}

// Snapshot freezes the feedback question and its active options
func (m *FeedbackModule) Snapshot(at time.Time) ContentSnapshot {
	active := m.ActiveOptions()
	options := make([]SnapshotOption, 0, len(active))
	for _, o := range active {
		label := o.Label
		if o.Emoji != "" {
			label = o.Emoji + " " + o.Label
		}
		options = append(options, SnapshotOption{ID: o.ID, Label: label})
	}
	return ContentSnapshot{
		Family:     ModuleFamilyFeedback,
		ItemID:     m.ID,
		Title:      m.Title,
		Body:       m.Body,
		BodyFormat: BodyFormatText,
		Question:   m.Question,
		Options:    options,
		CapturedAt: at,
	}
}

// FeedbackVoteOption is one answer readers can click in a feedback module
type FeedbackVoteOption struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	FeedbackModuleID uint   `gorm:"not null;index:idx_feedback_vote_options_module_id" json:"feedback_module_id"`
	Label            string `gorm:"size:128;not null" json:"label"`
	Emoji            string `gorm:"size:16" json:"emoji"`
	DisplayOrder     int    `gorm:"not null;default:0" json:"display_order"`
	IsActive         bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for FeedbackVoteOption
func (FeedbackVoteOption) TableName() string { return "feedback_vote_options" }
