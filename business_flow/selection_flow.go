package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/selection"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reasons stored on selections written by editors
const (
	ReasonManualPick      = "manual selection"
	ReasonManualNone      = "editor chose no content"
	ReasonClearedByEditor = "cleared by editor"
)

// SelectionOutcome describes the pick SelectForIssue made for one module
type SelectionOutcome struct {
	Family    models.ModuleFamily
	ModuleID  uint
	Mode      models.SelectionMode
	Result    selection.Result
	Preserved bool
	Selection *models.IssueModuleSelection
}

// UsageReport counts what one RecordUsage call did per selection row
type UsageReport struct {
	Family      models.ModuleFamily
	Recorded    int
	Empty       int
	AlreadyUsed int
	MissingItem int
}

// SelectionFlow picks, persists and freezes the content of one module family per issue
type SelectionFlow interface {
	Family() models.ModuleFamily
	GetEligiblePool(ctx context.Context, moduleID uint, publicationID uuid.UUID) ([]models.Item, error)
	SelectForIssue(ctx context.Context, issueID uuid.UUID, moduleID uint) (*SelectionOutcome, error)
	InitializeSelectionsForIssue(ctx context.Context, issueID, publicationID uuid.UUID) ([]*models.IssueModuleSelection, error)
	ManuallySelect(ctx context.Context, issueID uuid.UUID, moduleID uint, itemID *uint) (*models.IssueModuleSelection, error)
	ClearSelection(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.IssueModuleSelection, error)
	RecordUsage(ctx context.Context, issueID uuid.UUID, issueDate time.Time) (*UsageReport, error)
	GetIssueSelections(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error)
}

type SelectionFlowImpl struct {
	source        FamilySource
	issueRepo     repository.IssueRepository
	selectionRepo repository.IssueModuleSelectionRepository
	tx            repository.Transactor
	rng           selection.Rand
	logger        *zap.Logger
}

// NewSelectionFlow creates the selection flow of the source's family. A nil rng uses the global source.
func NewSelectionFlow(
	source FamilySource,
	issueRepo repository.IssueRepository,
	selectionRepo repository.IssueModuleSelectionRepository,
	tx repository.Transactor,
	rng selection.Rand,
	logger *zap.Logger,
) SelectionFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionFlowImpl{
		source:        source,
		issueRepo:     issueRepo,
		selectionRepo: selectionRepo,
		tx:            tx,
		rng:           rng,
		logger:        logger.With(zap.String("family", source.Family().String())),
	}
}

func (f *SelectionFlowImpl) Family() models.ModuleFamily {
	return f.source.Family()
}

// GetEligiblePool returns the items the module may show, pinned items first tier, shared items second
func (f *SelectionFlowImpl) GetEligiblePool(ctx context.Context, moduleID uint, publicationID uuid.UUID) ([]models.Item, error) {
	module, err := f.source.Module(ctx, moduleID)
	if err != nil {
		return nil, NewBusinessError("MODULE_LOOKUP_FAILED", "Failed to load module", err)
	}
	if module == nil || module.Base().PublicationID != publicationID {
		return nil, ErrModuleNotFound
	}
	pool, err := f.source.Pool(ctx, module, nil)
	if err != nil {
		return nil, NewBusinessError("ELIGIBLE_POOL_FAILED", "Failed to load eligible pool", err)
	}
	return pool, nil
}

func (f *SelectionFlowImpl) draftIssue(ctx context.Context, issueID uuid.UUID) (*models.Issue, error) {
	issue, err := f.issueRepo.ByUUID(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("ISSUE_LOOKUP_FAILED", "Failed to load issue", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	if issue.IsSent() {
		return nil, ErrIssueAlreadySent
	}
	return issue, nil
}

func (f *SelectionFlowImpl) issueModule(ctx context.Context, issue *models.Issue, moduleID uint) (models.Module, error) {
	module, err := f.source.Module(ctx, moduleID)
	if err != nil {
		return nil, NewBusinessError("MODULE_LOOKUP_FAILED", "Failed to load module", err)
	}
	if module == nil || module.Base().PublicationID != issue.PublicationID {
		return nil, ErrModuleNotFound
	}
	if !module.Base().IsActive {
		return nil, ErrModuleInactive
	}
	return module, nil
}

// pick runs the module's selection mode over its pool for the issue
func (f *SelectionFlowImpl) pick(ctx context.Context, module models.Module, issue *models.Issue) (selection.Result, error) {
	pool, err := f.source.Pool(ctx, module, issue)
	if err != nil {
		return selection.Result{}, err
	}
	mode := modeOf(module)
	state := selection.State{NextPosition: cursorOf(module)}
	result := selection.Select(selection.Mode(mode), candidatesOf(pool), state, f.rng)
	f.logger.Debug("Module selection computed",
		zap.Uint("module_id", module.Base().ID),
		zap.String("mode", mode.String()),
		zap.String("reason", result.Reason),
		zap.Uintp("item_id", result.ItemID))
	return result, nil
}

func outcomeLabel(result selection.Result) string {
	switch {
	case result.Selected():
		return "selected"
	case result.Reason == selection.ReasonManual:
		return "manual"
	default:
		return "none_eligible"
	}
}

// SelectForIssue runs the automatic pick for one module and stores it. Manual picks are kept.
func (f *SelectionFlowImpl) SelectForIssue(ctx context.Context, issueID uuid.UUID, moduleID uint) (*SelectionOutcome, error) {
	issue, err := f.draftIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	module, err := f.issueModule(ctx, issue, moduleID)
	if err != nil {
		return nil, err
	}
	mode := modeOf(module)
	family := f.Family()

	existing, err := f.selectionRepo.ByIssueModule(ctx, issueID, family, moduleID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selection", err)
	}
	if existing != nil && existing.IsUsed() {
		return nil, ErrSelectionLocked
	}
	if existing != nil && existing.IsManual {
		moduleSelectionsTotal.WithLabelValues(family.String(), mode.String(), "preserved").Inc()
		return &SelectionOutcome{
			Family:    family,
			ModuleID:  moduleID,
			Mode:      mode,
			Result:    selection.Result{ItemID: existing.SelectedItemID, Reason: existing.Reason},
			Preserved: true,
			Selection: existing,
		}, nil
	}

	result, err := f.pick(ctx, module, issue)
	if err != nil {
		return nil, NewBusinessError("SELECTION_FAILED", "Failed to compute selection", err)
	}
	row := &models.IssueModuleSelection{
		IssueID:        issueID,
		Family:         family,
		ModuleID:       moduleID,
		SelectedItemID: result.ItemID,
		SelectionMode:  mode,
		Reason:         result.Reason,
		SelectedAt:     utils.UTCNowPtr(),
	}
	written, err := f.selectionRepo.UpsertPick(ctx, row)
	if err != nil {
		f.logger.Error("Failed to store selection", zap.Uint("module_id", moduleID), zap.Error(err))
		return nil, NewBusinessError("SELECTION_SAVE_FAILED", "Failed to store selection", err)
	}
	if !written {
		return nil, ErrSelectionLocked
	}
	moduleSelectionsTotal.WithLabelValues(family.String(), mode.String(), outcomeLabel(result)).Inc()

	stored, err := f.selectionRepo.ByIssueModule(ctx, issueID, family, moduleID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selection", err)
	}
	return &SelectionOutcome{
		Family:    family,
		ModuleID:  moduleID,
		Mode:      mode,
		Result:    result,
		Selection: stored,
	}, nil
}

func (f *SelectionFlowImpl) familySelections(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	family := f.Family()
	return f.selectionRepo.ByFilter(ctx, models.IssueModuleSelectionFilter{
		IssueID: &issueID,
		Family:  &family,
	}, "module_id ASC", 0, 0)
}

// InitializeSelectionsForIssue creates one selection per active module. It returns the stored rows
// untouched when the issue already has selections for this family.
func (f *SelectionFlowImpl) InitializeSelectionsForIssue(ctx context.Context, issueID, publicationID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	existing, err := f.familySelections(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selections", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	issue, err := f.draftIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.PublicationID != publicationID {
		return nil, NewBusinessErrorf("ISSUE_PUBLICATION_MISMATCH", "Issue %s does not belong to publication %s", ErrIssueNotFound, issueID, publicationID)
	}

	modules, err := f.source.ActiveModules(ctx, publicationID)
	if err != nil {
		return nil, NewBusinessError("MODULE_LIST_FAILED", "Failed to list active modules", err)
	}

	family := f.Family()
	created := 0
	for _, module := range modules {
		result, err := f.pick(ctx, module, issue)
		if err != nil {
			return nil, NewBusinessError("SELECTION_FAILED", "Failed to compute selection", err)
		}
		mode := modeOf(module)
		row := &models.IssueModuleSelection{
			IssueID:        issueID,
			Family:         family,
			ModuleID:       module.Base().ID,
			SelectedItemID: result.ItemID,
			SelectionMode:  mode,
			Reason:         result.Reason,
		}
		if result.Selected() {
			row.SelectedAt = utils.UTCNowPtr()
		}
		inserted, err := f.selectionRepo.CreateIfAbsent(ctx, row)
		if err != nil {
			f.logger.Error("Failed to create selection", zap.Uint("module_id", row.ModuleID), zap.Error(err))
			return nil, NewBusinessError("SELECTION_SAVE_FAILED", "Failed to create selection", err)
		}
		if inserted {
			created++
			moduleSelectionsTotal.WithLabelValues(family.String(), mode.String(), outcomeLabel(result)).Inc()
		}
	}

	f.logger.Debug("Selections initialized",
		zap.String("issue_id", issueID.String()),
		zap.Int("modules", len(modules)),
		zap.Int("created", created))

	rows, err := f.familySelections(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selections", err)
	}
	return rows, nil
}

func (f *SelectionFlowImpl) writePick(ctx context.Context, row *models.IssueModuleSelection) (*models.IssueModuleSelection, error) {
	written, err := f.selectionRepo.UpsertPick(ctx, row)
	if err != nil {
		f.logger.Error("Failed to store selection", zap.Uint("module_id", row.ModuleID), zap.Error(err))
		return nil, NewBusinessError("SELECTION_SAVE_FAILED", "Failed to store selection", err)
	}
	if !written {
		return nil, ErrSelectionLocked
	}
	stored, err := f.selectionRepo.ByIssueModule(ctx, row.IssueID, row.Family, row.ModuleID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selection", err)
	}
	return stored, nil
}

// ManuallySelect stores the editor's pick regardless of mode. A nil itemID keeps the row with no content.
func (f *SelectionFlowImpl) ManuallySelect(ctx context.Context, issueID uuid.UUID, moduleID uint, itemID *uint) (*models.IssueModuleSelection, error) {
	issue, err := f.draftIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	module, err := f.issueModule(ctx, issue, moduleID)
	if err != nil {
		return nil, err
	}

	reason := ReasonManualNone
	if itemID != nil {
		pool, err := f.source.Pool(ctx, module, issue)
		if err != nil {
			return nil, NewBusinessError("ELIGIBLE_POOL_FAILED", "Failed to load eligible pool", err)
		}
		if _, ok := selection.Find(candidatesOf(pool), *itemID); !ok {
			item, err := f.source.Item(ctx, module, issueID, *itemID)
			if err != nil {
				return nil, NewBusinessError("ITEM_LOOKUP_FAILED", "Failed to load item", err)
			}
			if item == nil {
				return nil, ErrItemNotFound
			}
			return nil, ErrItemNotEligible
		}
		reason = ReasonManualPick
	}

	mode := modeOf(module)
	stored, err := f.writePick(ctx, &models.IssueModuleSelection{
		IssueID:        issueID,
		Family:         f.Family(),
		ModuleID:       moduleID,
		SelectedItemID: itemID,
		SelectionMode:  mode,
		IsManual:       true,
		Reason:         reason,
		SelectedAt:     utils.UTCNowPtr(),
	})
	if err != nil {
		return nil, err
	}
	moduleSelectionsTotal.WithLabelValues(f.Family().String(), mode.String(), "manual").Inc()
	return stored, nil
}

// ClearSelection drops the current pick and the manual flag so the next automatic pick applies again
func (f *SelectionFlowImpl) ClearSelection(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.IssueModuleSelection, error) {
	issue, err := f.draftIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	module, err := f.issueModule(ctx, issue, moduleID)
	if err != nil {
		return nil, err
	}
	return f.writePick(ctx, &models.IssueModuleSelection{
		IssueID:       issueID,
		Family:        f.Family(),
		ModuleID:      moduleID,
		SelectionMode: modeOf(module),
		Reason:        ReasonClearedByEditor,
	})
}

// RecordUsage freezes every unused selection of the issue and advances rotation counters.
// Rows already used are skipped, so repeated calls never count an item twice.
func (f *SelectionFlowImpl) RecordUsage(ctx context.Context, issueID uuid.UUID, issueDate time.Time) (*UsageReport, error) {
	family := f.Family()
	report := &UsageReport{Family: family}

	err := f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		used := false
		alreadyUsed, err := f.selectionRepo.Count(txCtx, models.IssueModuleSelectionFilter{
			IssueID: &issueID,
			Family:  &family,
			Unused:  &used,
		})
		if err != nil {
			return err
		}
		report.AlreadyUsed = int(alreadyUsed)

		rows, err := f.selectionRepo.ListUnusedForUpdate(txCtx, issueID, family)
		if err != nil {
			return err
		}
		for _, row := range rows {
			result, err := f.recordRow(txCtx, row, issueID, issueDate)
			if err != nil {
				return fmt.Errorf("module %d: %w", row.ModuleID, err)
			}
			switch result {
			case "recorded":
				report.Recorded++
			case "empty":
				report.Empty++
			case "missing_item":
				report.MissingItem++
			case "already_used":
				report.AlreadyUsed++
			}
			usageRecordingsTotal.WithLabelValues(family.String(), result).Inc()
		}
		return nil
	})
	if err != nil {
		f.logger.Error("Failed to record usage", zap.String("issue_id", issueID.String()), zap.Error(err))
		return nil, NewBusinessError("RECORD_USAGE_FAILED", "Failed to record usage", err)
	}

	if report.Recorded == 0 && report.AlreadyUsed > 0 {
		f.logger.Info("Duplicate usage recording absorbed",
			zap.String("issue_id", issueID.String()),
			zap.Int("already_used", report.AlreadyUsed))
	}
	return report, nil
}

func (f *SelectionFlowImpl) recordRow(ctx context.Context, row *models.IssueModuleSelection, issueID uuid.UUID, issueDate time.Time) (string, error) {
	usedAt := utils.UTCNow()
	if row.SelectedItemID == nil {
		marked, err := f.selectionRepo.MarkUsed(ctx, row.ID, usedAt, nil)
		if err != nil || !marked {
			return "already_used", err
		}
		return "empty", nil
	}

	module, err := f.source.Module(ctx, row.ModuleID)
	if err != nil {
		return "", err
	}
	item, err := f.source.Item(ctx, module, issueID, *row.SelectedItemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		f.logger.Warn("Selected item no longer exists, recording an empty selection",
			zap.Uint("module_id", row.ModuleID),
			zap.Uint("item_id", *row.SelectedItemID))
		marked, err := f.selectionRepo.MarkUsed(ctx, row.ID, usedAt, nil)
		if err != nil || !marked {
			return "already_used", err
		}
		return "missing_item", nil
	}

	snapshot := item.Snapshot(usedAt)
	if module != nil {
		snapshot.Section = models.FrameOf(module.Base())
	}
	marked, err := f.selectionRepo.MarkUsed(ctx, row.ID, usedAt, &snapshot)
	if err != nil {
		return "", err
	}
	if !marked {
		return "already_used", nil
	}
	if err := f.source.IncrementUsage(ctx, item.ItemID(), issueDate); err != nil {
		return "", err
	}

	if module != nil && modeOf(module) == models.SelectionModeSequential {
		pool, err := f.source.Pool(ctx, module, nil)
		if err != nil {
			return "", err
		}
		state := selection.Advance(selection.ModeSequential, candidatesOf(pool), item.Candidate(),
			selection.State{NextPosition: cursorOf(module)})
		if err := f.source.AdvanceCursor(ctx, row.ModuleID, state.NextPosition); err != nil {
			return "", err
		}
	}

	f.logger.Info("Usage recorded",
		zap.String("issue_id", issueID.String()),
		zap.Uint("module_id", row.ModuleID),
		zap.Uint("item_id", item.ItemID()))
	return "recorded", nil
}

// GetIssueSelections returns this family's selections for the issue ordered by module
func (f *SelectionFlowImpl) GetIssueSelections(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	rows, err := f.familySelections(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selections", err)
	}
	return rows, nil
}
