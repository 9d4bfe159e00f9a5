package models

import (
	"time"

	"github.com/amirphl/issue-composer/selection"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
)

// AdModule is a configured advertisement slot
type AdModule struct {
	ModuleBase
}

// TableName returns the table name for AdModule
func (AdModule) TableName() string { return "ad_modules" }

// Family returns the module family
func (AdModule) Family() ModuleFamily { return ModuleFamilyAd }

// Ad is one advertisement eligible for an ad module.
// StartDate and EndDate bound the issue dates it may run in; nil means open-ended.
type Ad struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PublicationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_ads_publication_id" json:"publication_id"`
	ModuleID      *uint      `gorm:"index:idx_ads_module_id" json:"module_id,omitempty"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Body          string     `gorm:"type:text" json:"body"`
	BodyFormat    BodyFormat `gorm:"size:16;not null;default:'text'" json:"body_format"`
	ImageURL      string     `gorm:"type:text" json:"image_url"`
	ImageAlt      string     `gorm:"size:255" json:"image_alt"`
	ButtonText    string     `gorm:"size:128" json:"button_text"`
	ButtonURL     string     `gorm:"type:text" json:"button_url"`
	Label         string     `gorm:"size:64;not null;default:'Sponsored'" json:"label"`
	StartDate     *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	IsActive      bool       `gorm:"not null;default:true;index:idx_ads_is_active" json:"is_active"`
	RotationCounters

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Ad
func (Ad) TableName() string { return "ads" }

// ItemID returns the ad id
func (a *Ad) ItemID() uint { return a.ID }

// Candidate returns the rotation view of the ad
func (a *Ad) Candidate() selection.Candidate {
	return selection.Candidate{
		ID:           a.ID,
		DisplayOrder: a.DisplayOrder,
		Priority:     a.Priority,
		TimesUsed:    a.TimesUsed,
	}
}

// RunsOn reports whether the ad's date window contains the issue date
func (a *Ad) RunsOn(issueDate time.Time) bool {
	day := utils.DateOnly(issueDate)
	if a.StartDate != nil && day.Before(utils.DateOnly(*a.StartDate)) {
		return false
	}
	if a.EndDate != nil && day.After(utils.DateOnly(*a.EndDate)) {
		return false
	}
	return true
}

// Snapshot freezes the ad's rendering fields
func (a *Ad) Snapshot(at time.Time) ContentSnapshot {
	return ContentSnapshot{
		Family:     ModuleFamilyAd,
		ItemID:     a.ID,
		Title:      a.Title,
		Body:       a.Body,
		BodyFormat: a.BodyFormat,
		ImageURL:   a.ImageURL,
		ImageAlt:   a.ImageAlt,
		ButtonText: a.ButtonText,
		ButtonURL:  a.ButtonURL,
		Label:      a.Label,
		CapturedAt: at,
	}
}
