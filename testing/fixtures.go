package testing

import (
	"fmt"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateIssue inserts a draft issue for the publication
func (tf *TestFixtures) CreateIssue(publicationID uuid.UUID, issueDate time.Time) (*models.Issue, error) {
	issue := &models.Issue{
		ID:            uuid.New(),
		PublicationID: publicationID,
		IssueDate:     utils.DateOnly(issueDate),
		Subject:       "Test issue " + utils.FormatDate(issueDate),
		Status:        models.IssueStatusDraft,
	}
	if err := tf.DB.DB.Create(issue).Error; err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	return issue, nil
}

// CreatePollModule inserts an active poll module
func (tf *TestFixtures) CreatePollModule(publicationID uuid.UUID, name string, mode models.SelectionMode) (*models.PollModule, error) {
	module := &models.PollModule{
		ModuleBase: models.ModuleBase{
			PublicationID: publicationID,
			Name:          name,
			ShowName:      true,
			IsActive:      true,
			BlockOrder:    pq.StringArray(models.DefaultBlockOrder(models.ModuleFamilyPoll)),
		},
		SelectionMode: mode,
		NextPosition:  1,
	}
	if err := tf.DB.DB.Create(module).Error; err != nil {
		return nil, fmt.Errorf("failed to create poll module: %w", err)
	}
	return module, nil
}

// CreatePoll inserts an active poll, pinned when moduleID is set
func (tf *TestFixtures) CreatePoll(publicationID uuid.UUID, moduleID *uint, displayOrder int) (*models.Poll, error) {
	poll := &models.Poll{
		PublicationID: publicationID,
		ModuleID:      moduleID,
		Title:         fmt.Sprintf("Poll %d", displayOrder),
		Question:      fmt.Sprintf("Question %d?", displayOrder),
		Options:       pq.StringArray{"Yes", "No"},
		IsActive:      true,
		RotationCounters: models.RotationCounters{
			DisplayOrder: displayOrder,
		},
	}
	if err := tf.DB.DB.Create(poll).Error; err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	return poll, nil
}

// Deactivate flips is_active off for any model row
func (tf *TestFixtures) Deactivate(model any, id uint) error {
	return tf.DB.DB.Model(model).Where("id = ?", id).Update("is_active", false).Error
}
