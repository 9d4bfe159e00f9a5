package businessflow

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/amirphl/issue-composer/blocks"
	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/renderer"
	"github.com/amirphl/issue-composer/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssueCompositionFlow renders the sections of an issue in display order
type IssueCompositionFlow interface {
	RenderAllModules(ctx context.Context, issueID uuid.UUID, mode renderer.Mode) ([]renderer.Result, error)
	GenerateCombinedHTML(ctx context.Context, issueID uuid.UUID, mode renderer.Mode) (string, error)
}

type IssueCompositionFlowImpl struct {
	sources         map[models.ModuleFamily]FamilySource
	issueRepo       repository.IssueRepository
	selectionRepo   repository.IssueModuleSelectionRepository
	renderers       *renderer.Set
	responseBaseURL string
	logger          *zap.Logger
}

func NewIssueCompositionFlow(
	sources []FamilySource,
	issueRepo repository.IssueRepository,
	selectionRepo repository.IssueModuleSelectionRepository,
	renderers *renderer.Set,
	responseBaseURL string,
	logger *zap.Logger,
) IssueCompositionFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	bySource := make(map[models.ModuleFamily]FamilySource, len(sources))
	for _, s := range sources {
		bySource[s.Family()] = s
	}
	return &IssueCompositionFlowImpl{
		sources:         bySource,
		issueRepo:       issueRepo,
		selectionRepo:   selectionRepo,
		renderers:       renderers,
		responseBaseURL: responseBaseURL,
		logger:          logger,
	}
}

// composedSection is one module of the issue with what it shows
type composedSection struct {
	module    models.Module
	item      models.Item
	selection *models.IssueModuleSelection
}

func sectionLess(a, b composedSection) int {
	ab, bb := a.module.Base(), b.module.Base()
	if ab.DisplayOrder != bb.DisplayOrder {
		return ab.DisplayOrder - bb.DisplayOrder
	}
	if ra, rb := a.module.Family().Rank(), b.module.Family().Rank(); ra != rb {
		return ra - rb
	}
	return int(ab.ID) - int(bb.ID)
}

type selectionKey struct {
	family   models.ModuleFamily
	moduleID uint
}

// RenderAllModules renders every section of the issue. Empty sections are omitted.
func (f *IssueCompositionFlowImpl) RenderAllModules(ctx context.Context, issueID uuid.UUID, mode renderer.Mode) (results []renderer.Result, err error) {
	if !mode.Valid() {
		return nil, ErrInvalidRenderMode
	}
	start := time.Now()
	defer func() {
		if err == nil {
			issueRenderDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
		}
	}()

	issue, err := f.issueRepo.ByUUID(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("ISSUE_LOOKUP_FAILED", "Failed to load issue", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	rows, err := f.selectionRepo.ByIssue(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selections", err)
	}

	if mode == renderer.ModeArchive {
		return f.renderArchive(issue, rows), nil
	}

	sections, err := f.liveSections(ctx, issue, rows)
	if err != nil {
		return nil, err
	}
	var rc *blocks.RenderContext
	if mode == renderer.ModeLive {
		rc = &blocks.RenderContext{
			IssueID:         issue.ID,
			IssueDate:       issue.IssueDate,
			ResponseBaseURL: f.responseBaseURL,
		}
	}
	for _, s := range sections {
		res := f.renderers.RenderModule(ctx, mode, s.module, s.item, issue.PublicationID, rc)
		if !res.Empty() {
			results = append(results, res)
		}
	}
	return results, nil
}

// liveSections resolves each active module's chosen item from its selection row
func (f *IssueCompositionFlowImpl) liveSections(ctx context.Context, issue *models.Issue, rows []*models.IssueModuleSelection) ([]composedSection, error) {
	picks := make(map[selectionKey]*models.IssueModuleSelection, len(rows))
	for _, row := range rows {
		picks[selectionKey{row.Family, row.ModuleID}] = row
	}

	var sections []composedSection
	for _, family := range models.ModuleFamilies() {
		source, ok := f.sources[family]
		if !ok {
			continue
		}
		modules, err := source.ActiveModules(ctx, issue.PublicationID)
		if err != nil {
			return nil, NewBusinessError("MODULE_LIST_FAILED", "Failed to list active modules", err)
		}
		for _, module := range modules {
			row := picks[selectionKey{family, module.Base().ID}]
			if row == nil || row.SelectedItemID == nil {
				continue
			}
			item, err := source.Item(ctx, module, issue.ID, *row.SelectedItemID)
			if err != nil {
				return nil, NewBusinessError("ITEM_LOOKUP_FAILED", "Failed to load selected item", err)
			}
			if item == nil {
				f.logger.Warn("Selected item is missing, skipping section",
					zap.String("family", family.String()),
					zap.Uint("module_id", module.Base().ID),
					zap.Uint("item_id", *row.SelectedItemID))
				continue
			}
			sections = append(sections, composedSection{module: module, item: item, selection: row})
		}
	}
	slices.SortStableFunc(sections, sectionLess)
	return sections, nil
}

// renderArchive rebuilds the issue from frozen snapshots and the styles frozen at send; live rows are never read
func (f *IssueCompositionFlowImpl) renderArchive(issue *models.Issue, rows []*models.IssueModuleSelection) []renderer.Result {
	var frozen []*models.IssueModuleSelection
	for _, row := range rows {
		if !row.IsUsed() || row.ContentSnapshot == nil {
			continue
		}
		if row.ContentSnapshot.Section == nil {
			f.logger.Warn("Archived snapshot has no section frame, skipping section",
				zap.String("family", row.Family.String()),
				zap.Uint("module_id", row.ModuleID))
			continue
		}
		frozen = append(frozen, row)
	}
	slices.SortStableFunc(frozen, archivedLess)

	styles := styleOptionsOf(issue.ArchiveStyles)
	var results []renderer.Result
	for _, row := range frozen {
		frame := row.ContentSnapshot.Section
		res := f.renderers.RenderArchive(row.Family, frame.ModuleName, frame.ShowName, row.ContentSnapshot, frame.BlockOrder, styles)
		if !res.Empty() {
			results = append(results, res)
		}
	}
	return results
}

func archivedLess(a, b *models.IssueModuleSelection) int {
	fa, fb := a.ContentSnapshot.Section, b.ContentSnapshot.Section
	if fa.DisplayOrder != fb.DisplayOrder {
		return fa.DisplayOrder - fb.DisplayOrder
	}
	if ra, rb := a.Family.Rank(), b.Family.Rank(); ra != rb {
		return ra - rb
	}
	return int(a.ModuleID) - int(b.ModuleID)
}

// GenerateCombinedHTML joins the rendered sections of the issue
func (f *IssueCompositionFlowImpl) GenerateCombinedHTML(ctx context.Context, issueID uuid.UUID, mode renderer.Mode) (string, error) {
	results, err := f.RenderAllModules(ctx, issueID, mode)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.HTML)
	}
	return strings.Join(parts, "\n"), nil
}
