package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/selection"
	"github.com/google/uuid"
)

// FamilySource gives the selection flow uniform access to one family's modules and content.
// Module and Item return (nil, nil) for missing rows.
type FamilySource interface {
	Family() models.ModuleFamily
	ActiveModules(ctx context.Context, publicationID uuid.UUID) ([]models.Module, error)
	Module(ctx context.Context, moduleID uint) (models.Module, error)
	// Pool returns the module's eligible items; issue is nil outside an issue context
	Pool(ctx context.Context, module models.Module, issue *models.Issue) ([]models.Item, error)
	Item(ctx context.Context, module models.Module, issueID uuid.UUID, itemID uint) (models.Item, error)
	IncrementUsage(ctx context.Context, itemID uint, usedOn time.Time) error
	AdvanceCursor(ctx context.Context, moduleID uint, nextPosition int) error
	// UpdateConfig writes the module's presentation fields; false means no such module
	UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error)
}

func modeOf(m models.Module) models.SelectionMode {
	if r, ok := m.(models.RotatingModule); ok {
		return r.Mode()
	}
	return models.SelectionModeDefault
}

func cursorOf(m models.Module) int {
	if r, ok := m.(models.RotatingModule); ok && r.Cursor() > 0 {
		return r.Cursor()
	}
	return 1
}

func candidatesOf(pool []models.Item) []selection.Candidate {
	out := make([]selection.Candidate, 0, len(pool))
	for _, item := range pool {
		out = append(out, item.Candidate())
	}
	return out
}

func findItem(pool []models.Item, id uint) models.Item {
	for _, item := range pool {
		if item.ItemID() == id {
			return item
		}
	}
	return nil
}

// rotatingSource serves poll and prompt modules, whose items rotate by selection mode
type rotatingSource[M any, PM interface {
	*M
	models.RotatingModule
}, I any, PI interface {
	*I
	models.Item
}] struct {
	family  models.ModuleFamily
	modules repository.RotatingModuleRepository[M]
	items   repository.ItemRepository[I]
}

// NewPollSource creates the poll family source
func NewPollSource(modules repository.RotatingModuleRepository[models.PollModule], items repository.ItemRepository[models.Poll]) FamilySource {
	return &rotatingSource[models.PollModule, *models.PollModule, models.Poll, *models.Poll]{
		family:  models.ModuleFamilyPoll,
		modules: modules,
		items:   items,
	}
}

// NewPromptSource creates the prompt card family source
func NewPromptSource(modules repository.RotatingModuleRepository[models.PromptModule], items repository.ItemRepository[models.PromptIdea]) FamilySource {
	return &rotatingSource[models.PromptModule, *models.PromptModule, models.PromptIdea, *models.PromptIdea]{
		family:  models.ModuleFamilyPrompt,
		modules: modules,
		items:   items,
	}
}

func (s *rotatingSource[M, PM, I, PI]) Family() models.ModuleFamily { return s.family }

func (s *rotatingSource[M, PM, I, PI]) ActiveModules(ctx context.Context, publicationID uuid.UUID) ([]models.Module, error) {
	rows, err := s.modules.ListActive(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Module, 0, len(rows))
	for _, row := range rows {
		out = append(out, PM(row))
	}
	return out, nil
}

func (s *rotatingSource[M, PM, I, PI]) Module(ctx context.Context, moduleID uint) (models.Module, error) {
	row, err := s.modules.ByID(ctx, moduleID)
	if err != nil || row == nil {
		return nil, err
	}
	return PM(row), nil
}

func (s *rotatingSource[M, PM, I, PI]) Pool(ctx context.Context, module models.Module, _ *models.Issue) ([]models.Item, error) {
	base := module.Base()
	rows, err := s.items.EligiblePool(ctx, base.PublicationID, base.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, PI(row))
	}
	return out, nil
}

func (s *rotatingSource[M, PM, I, PI]) Item(ctx context.Context, _ models.Module, _ uuid.UUID, itemID uint) (models.Item, error) {
	row, err := s.items.ByID(ctx, itemID)
	if err != nil || row == nil {
		return nil, err
	}
	return PI(row), nil
}

func (s *rotatingSource[M, PM, I, PI]) IncrementUsage(ctx context.Context, itemID uint, usedOn time.Time) error {
	return s.items.IncrementUsage(ctx, itemID, usedOn)
}

func (s *rotatingSource[M, PM, I, PI]) AdvanceCursor(ctx context.Context, moduleID uint, nextPosition int) error {
	return s.modules.UpdateNextPosition(ctx, moduleID, nextPosition)
}

func (s *rotatingSource[M, PM, I, PI]) UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	return s.modules.UpdateConfig(ctx, moduleID, update)
}

// adSource serves ad modules: one default pick among ads running on the issue date
type adSource struct {
	modules repository.ModuleRepository[models.AdModule]
	items   repository.ItemRepository[models.Ad]
}

// NewAdSource creates the ad family source
func NewAdSource(modules repository.ModuleRepository[models.AdModule], items repository.ItemRepository[models.Ad]) FamilySource {
	return &adSource{modules: modules, items: items}
}

func (s *adSource) Family() models.ModuleFamily { return models.ModuleFamilyAd }

func (s *adSource) ActiveModules(ctx context.Context, publicationID uuid.UUID) ([]models.Module, error) {
	rows, err := s.modules.ListActive(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Module, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *adSource) Module(ctx context.Context, moduleID uint) (models.Module, error) {
	row, err := s.modules.ByID(ctx, moduleID)
	if err != nil || row == nil {
		return nil, err
	}
	return row, nil
}

func (s *adSource) Pool(ctx context.Context, module models.Module, issue *models.Issue) ([]models.Item, error) {
	base := module.Base()
	rows, err := s.items.EligiblePool(ctx, base.PublicationID, base.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Item, 0, len(rows))
	for _, ad := range rows {
		if issue != nil && !ad.RunsOn(issue.IssueDate) {
			continue
		}
		out = append(out, ad)
	}
	return out, nil
}

func (s *adSource) Item(ctx context.Context, _ models.Module, _ uuid.UUID, itemID uint) (models.Item, error) {
	row, err := s.items.ByID(ctx, itemID)
	if err != nil || row == nil {
		return nil, err
	}
	return row, nil
}

func (s *adSource) IncrementUsage(ctx context.Context, itemID uint, usedOn time.Time) error {
	return s.items.IncrementUsage(ctx, itemID, usedOn)
}

func (s *adSource) AdvanceCursor(context.Context, uint, int) error { return nil }

func (s *adSource) UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	return s.modules.UpdateConfig(ctx, moduleID, update)
}

// feedbackSource serves feedback modules; each module is its own single item
type feedbackSource struct {
	modules repository.ModuleRepository[models.FeedbackModule]
}

// NewFeedbackSource creates the feedback family source
func NewFeedbackSource(modules repository.ModuleRepository[models.FeedbackModule]) FamilySource {
	return &feedbackSource{modules: modules}
}

func (s *feedbackSource) Family() models.ModuleFamily { return models.ModuleFamilyFeedback }

func (s *feedbackSource) ActiveModules(ctx context.Context, publicationID uuid.UUID) ([]models.Module, error) {
	rows, err := s.modules.ListActive(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Module, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *feedbackSource) Module(ctx context.Context, moduleID uint) (models.Module, error) {
	row, err := s.modules.ByID(ctx, moduleID)
	if err != nil || row == nil {
		return nil, err
	}
	return row, nil
}

func (s *feedbackSource) Pool(_ context.Context, module models.Module, _ *models.Issue) ([]models.Item, error) {
	fb, ok := module.(*models.FeedbackModule)
	if !ok || strings.TrimSpace(fb.Question) == "" {
		return nil, nil
	}
	return []models.Item{fb}, nil
}

func (s *feedbackSource) Item(ctx context.Context, module models.Module, _ uuid.UUID, itemID uint) (models.Item, error) {
	if fb, ok := module.(*models.FeedbackModule); ok && fb.ID == itemID {
		return fb, nil
	}
	row, err := s.modules.ByID(ctx, itemID)
	if err != nil || row == nil {
		return nil, err
	}
	return row, nil
}

func (s *feedbackSource) IncrementUsage(context.Context, uint, time.Time) error { return nil }

func (s *feedbackSource) AdvanceCursor(context.Context, uint, int) error { return nil }

func (s *feedbackSource) UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	return s.modules.UpdateConfig(ctx, moduleID, update)
}

// textBoxSource serves text boxes; the item is the module plus its per-issue content
type textBoxSource struct {
	modules  repository.ModuleRepository[models.TextBoxModule]
	contents repository.TextBoxContentRepository
}

// NewTextBoxSource creates the text box family source
func NewTextBoxSource(modules repository.ModuleRepository[models.TextBoxModule], contents repository.TextBoxContentRepository) FamilySource {
	return &textBoxSource{modules: modules, contents: contents}
}

func (s *textBoxSource) Family() models.ModuleFamily { return models.ModuleFamilyTextBox }

func (s *textBoxSource) ActiveModules(ctx context.Context, publicationID uuid.UUID) ([]models.Module, error) {
	rows, err := s.modules.ListActive(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Module, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *textBoxSource) Module(ctx context.Context, moduleID uint) (models.Module, error) {
	row, err := s.modules.ByID(ctx, moduleID)
	if err != nil || row == nil {
		return nil, err
	}
	return row, nil
}

func (s *textBoxSource) resolve(ctx context.Context, module *models.TextBoxModule, issueID uuid.UUID) (*models.TextBoxItem, error) {
	item := &models.TextBoxItem{Module: module}
	if issueID != uuid.Nil {
		content, err := s.contents.ByIssueModule(ctx, issueID, module.ID)
		if err != nil {
			return nil, err
		}
		item.Content = content
	}
	return item, nil
}

func (s *textBoxSource) Pool(ctx context.Context, module models.Module, issue *models.Issue) ([]models.Item, error) {
	tb, ok := module.(*models.TextBoxModule)
	if !ok {
		return nil, nil
	}
	issueID := uuid.Nil
	if issue != nil {
		issueID = issue.ID
	}
	item, err := s.resolve(ctx, tb, issueID)
	if err != nil {
		return nil, err
	}
	// generated boxes stay eligible before their text exists; empty text renders nothing
	if tb.IsGenerated {
		return []models.Item{item}, nil
	}
	snap := item.Snapshot(time.Time{})
	if strings.TrimSpace(snap.Body) == "" && strings.TrimSpace(snap.Title) == "" {
		return nil, nil
	}
	return []models.Item{item}, nil
}

func (s *textBoxSource) Item(ctx context.Context, module models.Module, issueID uuid.UUID, itemID uint) (models.Item, error) {
	tb, ok := module.(*models.TextBoxModule)
	if !ok || tb.ID != itemID {
		row, err := s.modules.ByID(ctx, itemID)
		if err != nil || row == nil {
			return nil, err
		}
		tb = row
	}
	return s.resolve(ctx, tb, issueID)
}

func (s *textBoxSource) IncrementUsage(context.Context, uint, time.Time) error { return nil }

func (s *textBoxSource) AdvanceCursor(context.Context, uint, int) error { return nil }

func (s *textBoxSource) UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	return s.modules.UpdateConfig(ctx, moduleID, update)
}
