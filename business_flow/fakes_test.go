package businessflow

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	testPublication = uuid.MustParse("7d9c3a10-2f4e-4b8a-9c61-0e5d4f3a2b19")
	testIssueDate   = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

// memorySource is an in-memory FamilySource over poll or ad rows
type memorySource struct {
	family  models.ModuleFamily
	modules []models.Module
	items   []models.Item
	poolErr error
}

func itemMeta(item models.Item) (uuid.UUID, *uint, bool) {
	switch v := item.(type) {
	case *models.Poll:
		return v.PublicationID, v.ModuleID, v.IsActive
	case *models.Ad:
		return v.PublicationID, v.ModuleID, v.IsActive
	case *models.PromptIdea:
		return v.PublicationID, v.ModuleID, v.IsActive
	}
	return uuid.Nil, nil, false
}

func counters(item models.Item) *models.RotationCounters {
	switch v := item.(type) {
	case *models.Poll:
		return &v.RotationCounters
	case *models.Ad:
		return &v.RotationCounters
	case *models.PromptIdea:
		return &v.RotationCounters
	}
	return nil
}

func (s *memorySource) Family() models.ModuleFamily { return s.family }

func (s *memorySource) ActiveModules(_ context.Context, publicationID uuid.UUID) ([]models.Module, error) {
	var out []models.Module
	for _, m := range s.modules {
		if m.Base().PublicationID == publicationID && m.Base().IsActive {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Module) int {
		if a.Base().DisplayOrder != b.Base().DisplayOrder {
			return a.Base().DisplayOrder - b.Base().DisplayOrder
		}
		return int(a.Base().ID) - int(b.Base().ID)
	})
	return out, nil
}

func (s *memorySource) Module(_ context.Context, moduleID uint) (models.Module, error) {
	for _, m := range s.modules {
		if m.Base().ID == moduleID {
			return m, nil
		}
	}
	return nil, nil
}

func (s *memorySource) Pool(_ context.Context, module models.Module, issue *models.Issue) ([]models.Item, error) {
	if s.poolErr != nil {
		return nil, s.poolErr
	}
	base := module.Base()
	var pinned, shared []models.Item
	for _, item := range s.items {
		pub, moduleID, active := itemMeta(item)
		if pub != base.PublicationID || !active {
			continue
		}
		if ad, ok := item.(*models.Ad); ok && issue != nil && !ad.RunsOn(issue.IssueDate) {
			continue
		}
		switch {
		case moduleID == nil:
			shared = append(shared, item)
		case *moduleID == base.ID:
			pinned = append(pinned, item)
		}
	}
	pool := shared
	if len(pinned) > 0 {
		pool = pinned
	}
	slices.SortStableFunc(pool, func(a, b models.Item) int {
		if a.Candidate().DisplayOrder != b.Candidate().DisplayOrder {
			return a.Candidate().DisplayOrder - b.Candidate().DisplayOrder
		}
		return int(a.ItemID()) - int(b.ItemID())
	})
	return pool, nil
}

func (s *memorySource) Item(_ context.Context, _ models.Module, _ uuid.UUID, itemID uint) (models.Item, error) {
	for _, item := range s.items {
		if item.ItemID() == itemID {
			return item, nil
		}
	}
	return nil, nil
}

func (s *memorySource) IncrementUsage(_ context.Context, itemID uint, usedOn time.Time) error {
	for _, item := range s.items {
		if item.ItemID() == itemID {
			c := counters(item)
			c.TimesUsed++
			c.LastUsedDate = utils.DateOnlyPtr(usedOn)
			return nil
		}
	}
	return errors.New("item not found")
}

func (s *memorySource) AdvanceCursor(_ context.Context, moduleID uint, nextPosition int) error {
	for _, m := range s.modules {
		if m.Base().ID != moduleID {
			continue
		}
		switch v := m.(type) {
		case *models.PollModule:
			v.NextPosition = nextPosition
		case *models.PromptModule:
			v.NextPosition = nextPosition
		}
		return nil
	}
	return errors.New("module not found")
}

func (s *memorySource) remove(itemID uint) {
	s.items = slices.DeleteFunc(s.items, func(item models.Item) bool { return item.ItemID() == itemID })
}

func (s *memorySource) UpdateConfig(_ context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	for _, m := range s.modules {
		if m.Base().ID == moduleID {
			applyConfig(m.Base(), update)
			return true, nil
		}
	}
	return false, nil
}

func applyConfig(base *models.ModuleBase, update models.ModuleConfigUpdate) {
	if update.Name != nil {
		base.Name = *update.Name
	}
	if update.ShowName != nil {
		base.ShowName = *update.ShowName
	}
	if update.DisplayOrder != nil {
		base.DisplayOrder = *update.DisplayOrder
	}
	if update.IsActive != nil {
		base.IsActive = *update.IsActive
	}
	if update.BlockOrder != nil {
		base.BlockOrder = pq.StringArray(update.BlockOrder)
	}
}

func (s *memorySource) removeModule(moduleID uint) {
	s.modules = slices.DeleteFunc(s.modules, func(m models.Module) bool { return m.Base().ID == moduleID })
}

func newPollModule(id uint, mode models.SelectionMode, displayOrder int) *models.PollModule {
	return &models.PollModule{
		ModuleBase: models.ModuleBase{
			ID:            id,
			PublicationID: testPublication,
			Name:          "Poll",
			ShowName:      true,
			DisplayOrder:  displayOrder,
			IsActive:      true,
			BlockOrder:    pq.StringArray(models.DefaultBlockOrder(models.ModuleFamilyPoll)),
		},
		SelectionMode: mode,
		NextPosition:  1,
	}
}

func newPoll(id uint, displayOrder, priority int) *models.Poll {
	return &models.Poll{
		ID:            id,
		PublicationID: testPublication,
		Title:         "Poll title",
		Question:      "Question?",
		Options:       pq.StringArray{"Yes", "No"},
		IsActive:      true,
		RotationCounters: models.RotationCounters{
			DisplayOrder: displayOrder,
			Priority:     priority,
		},
	}
}

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[uuid.UUID]*models.Issue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: map[uuid.UUID]*models.Issue{}}
}

func (r *fakeIssueRepo) add(date time.Time) *models.Issue {
	issue := &models.Issue{
		ID:            uuid.New(),
		PublicationID: testPublication,
		IssueDate:     date,
		Status:        models.IssueStatusDraft,
	}
	r.issues[issue.ID] = issue
	return issue
}

func (r *fakeIssueRepo) ByUUID(_ context.Context, id uuid.UUID) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, nil
	}
	cp := *issue
	return &cp, nil
}

func (r *fakeIssueRepo) ByFilter(_ context.Context, _ models.IssueFilter, _ string, _, _ int) ([]*models.Issue, error) {
	var out []*models.Issue
	for _, issue := range r.issues {
		out = append(out, issue)
	}
	return out, nil
}

func (r *fakeIssueRepo) Save(_ context.Context, issue *models.Issue) error {
	r.issues[issue.ID] = issue
	return nil
}

func (r *fakeIssueRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time, archiveURL *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok || issue.IsSent() {
		return false, nil
	}
	issue.Status = models.IssueStatusSent
	issue.SentAt = &sentAt
	issue.ArchiveURL = archiveURL
	return true, nil
}

func (r *fakeIssueRepo) FreezeArchiveStyles(_ context.Context, id uuid.UUID, styles models.ArchiveStyles) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok || issue.ArchiveStyles != nil {
		return false, nil
	}
	issue.ArchiveStyles = &styles
	return true, nil
}

type fakeSelectionRepo struct {
	mu     sync.Mutex
	rows   []*models.IssueModuleSelection
	nextID uint
}

func (r *fakeSelectionRepo) find(issueID uuid.UUID, family models.ModuleFamily, moduleID uint) *models.IssueModuleSelection {
	for _, row := range r.rows {
		if row.IssueID == issueID && row.Family == family && row.ModuleID == moduleID {
			return row
		}
	}
	return nil
}

func copySelection(row *models.IssueModuleSelection) *models.IssueModuleSelection {
	cp := *row
	return &cp
}

func (r *fakeSelectionRepo) matches(row *models.IssueModuleSelection, f models.IssueModuleSelectionFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.IssueID != nil && row.IssueID != *f.IssueID {
		return false
	}
	if f.Family != nil && row.Family != *f.Family {
		return false
	}
	if f.ModuleID != nil && row.ModuleID != *f.ModuleID {
		return false
	}
	if f.Unused != nil && *f.Unused == row.IsUsed() {
		return false
	}
	return true
}

func (r *fakeSelectionRepo) ByID(_ context.Context, id uint) (*models.IssueModuleSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			return copySelection(row), nil
		}
	}
	return nil, nil
}

func (r *fakeSelectionRepo) ByFilter(_ context.Context, f models.IssueModuleSelectionFilter, _ string, _, _ int) ([]*models.IssueModuleSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.IssueModuleSelection
	for _, row := range r.rows {
		if r.matches(row, f) {
			out = append(out, copySelection(row))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.IssueModuleSelection) int {
		return int(a.ModuleID) - int(b.ModuleID)
	})
	return out, nil
}

func (r *fakeSelectionRepo) Save(_ context.Context, row *models.IssueModuleSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	row.ID = r.nextID
	r.rows = append(r.rows, copySelection(row))
	return nil
}

func (r *fakeSelectionRepo) SaveBatch(ctx context.Context, rows []*models.IssueModuleSelection) error {
	for _, row := range rows {
		if err := r.Save(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSelectionRepo) Count(ctx context.Context, f models.IssueModuleSelectionFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), err
}

func (r *fakeSelectionRepo) Exists(ctx context.Context, f models.IssueModuleSelectionFilter) (bool, error) {
	c, err := r.Count(ctx, f)
	return c > 0, err
}

func (r *fakeSelectionRepo) ByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	return r.ByFilter(ctx, models.IssueModuleSelectionFilter{IssueID: &issueID}, "", 0, 0)
}

func (r *fakeSelectionRepo) ByIssueModule(_ context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*models.IssueModuleSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row := r.find(issueID, family, moduleID); row != nil {
		return copySelection(row), nil
	}
	return nil, nil
}

func (r *fakeSelectionRepo) ListUnusedForUpdate(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily) ([]*models.IssueModuleSelection, error) {
	unused := true
	return r.ByFilter(ctx, models.IssueModuleSelectionFilter{IssueID: &issueID, Family: &family, Unused: &unused}, "", 0, 0)
}

func (r *fakeSelectionRepo) CreateIfAbsent(ctx context.Context, row *models.IssueModuleSelection) (bool, error) {
	r.mu.Lock()
	exists := r.find(row.IssueID, row.Family, row.ModuleID) != nil
	r.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, r.Save(ctx, row)
}

func (r *fakeSelectionRepo) UpsertPick(ctx context.Context, row *models.IssueModuleSelection) (bool, error) {
	r.mu.Lock()
	existing := r.find(row.IssueID, row.Family, row.ModuleID)
	if existing != nil {
		defer r.mu.Unlock()
		if existing.IsUsed() {
			return false, nil
		}
		existing.SelectedItemID = row.SelectedItemID
		existing.SelectionMode = row.SelectionMode
		existing.IsManual = row.IsManual
		existing.Reason = row.Reason
		existing.SelectedAt = row.SelectedAt
		return true, nil
	}
	r.mu.Unlock()
	return true, r.Save(ctx, row)
}

func (r *fakeSelectionRepo) MarkUsed(_ context.Context, id uint, usedAt time.Time, snapshot *models.ContentSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			if row.IsUsed() {
				return false, nil
			}
			row.UsedAt = &usedAt
			row.ContentSnapshot = snapshot
			return true, nil
		}
	}
	return false, nil
}

// fakeTransactor runs fn inline
type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// seqRand returns the given values in turn, modulo n
type seqRand struct {
	values []int
	i      int
}

func (r *seqRand) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.i%len(r.values)]
	r.i++
	return v % n
}

type fakeAuditLogs struct {
	rows []*models.AuditLog
	err  error
}

func (r *fakeAuditLogs) ByID(_ context.Context, id uint) (*models.AuditLog, error) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, nil
}

func (r *fakeAuditLogs) ByFilter(_ context.Context, f models.AuditLogFilter, _ string, _, _ int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, row := range r.rows {
		if f.Action != nil && row.Action != *f.Action {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeAuditLogs) Save(_ context.Context, row *models.AuditLog) error {
	if r.err != nil {
		return r.err
	}
	row.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, row)
	return nil
}

func (r *fakeAuditLogs) SaveBatch(ctx context.Context, rows []*models.AuditLog) error {
	for _, row := range rows {
		if err := r.Save(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAuditLogs) Count(ctx context.Context, f models.AuditLogFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeAuditLogs) Exists(ctx context.Context, f models.AuditLogFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r *fakeAuditLogs) ListByIssue(_ context.Context, issueID uuid.UUID, _, _ int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, row := range r.rows {
		if row.IssueID != nil && *row.IssueID == issueID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeAuditLogs) actions() []string {
	out := make([]string, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row.Action)
	}
	return out
}
