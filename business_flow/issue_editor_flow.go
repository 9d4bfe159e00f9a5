package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssueEditorFlow drives the per-family selection flows for a whole issue
type IssueEditorFlow interface {
	InitializeIssue(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error)
	ListSelections(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error)
	ManuallySelect(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint, itemID *uint) (*models.IssueModuleSelection, error)
	ClearSelection(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*models.IssueModuleSelection, error)
	// RepickSelection reruns the automatic pick of one module; manual picks are preserved
	RepickSelection(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*SelectionOutcome, error)
}

type IssueEditorFlowImpl struct {
	issueRepo repository.IssueRepository
	flows     map[models.ModuleFamily]SelectionFlow
	audit     auditTrail
	logger    *zap.Logger
}

// NewIssueEditorFlow creates the editor flow; a nil audit repository disables the audit trail
func NewIssueEditorFlow(issueRepo repository.IssueRepository, flows []SelectionFlow, auditRepo repository.AuditLogRepository, logger *zap.Logger) IssueEditorFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	byFamily := make(map[models.ModuleFamily]SelectionFlow, len(flows))
	for _, f := range flows {
		byFamily[f.Family()] = f
	}
	return &IssueEditorFlowImpl{
		issueRepo: issueRepo,
		flows:     byFamily,
		audit:     auditTrail{repo: auditRepo, logger: logger},
		logger:    logger,
	}
}

func (f *IssueEditorFlowImpl) flow(family models.ModuleFamily) (SelectionFlow, error) {
	flow, ok := f.flows[family]
	if !ok {
		return nil, ErrUnknownFamily
	}
	return flow, nil
}

// each visits the registered flows in family order
func (f *IssueEditorFlowImpl) each(fn func(SelectionFlow) error) error {
	for _, family := range models.ModuleFamilies() {
		flow, ok := f.flows[family]
		if !ok {
			continue
		}
		if err := fn(flow); err != nil {
			return err
		}
	}
	return nil
}

// InitializeIssue creates a selection row for every active module of the issue's publication
func (f *IssueEditorFlowImpl) InitializeIssue(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	issue, err := f.issueRepo.ByUUID(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("ISSUE_LOOKUP_FAILED", "Failed to load issue", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}

	var all []*models.IssueModuleSelection
	err = f.each(func(flow SelectionFlow) error {
		rows, err := flow.InitializeSelectionsForIssue(ctx, issueID, issue.PublicationID)
		if err != nil {
			return fmt.Errorf("%s: %w", flow.Family(), err)
		}
		all = append(all, rows...)
		return nil
	})
	if err != nil {
		f.audit.record(ctx, auditEntry{IssueID: issueID, Action: models.AuditActionSelectionsInitialized, Err: err})
		return nil, err
	}
	f.audit.record(ctx, auditEntry{
		IssueID:  issueID,
		Action:   models.AuditActionSelectionsInitialized,
		Metadata: map[string]any{"selections": len(all)},
	})
	f.logger.Info("Issue selections initialized",
		zap.String("issue_id", issueID.String()),
		zap.Int("selections", len(all)))
	return all, nil
}

func (f *IssueEditorFlowImpl) ListSelections(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error) {
	issue, err := f.issueRepo.ByUUID(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("ISSUE_LOOKUP_FAILED", "Failed to load issue", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	var all []*models.IssueModuleSelection
	err = f.each(func(flow SelectionFlow) error {
		rows, err := flow.GetIssueSelections(ctx, issueID)
		if err != nil {
			return err
		}
		all = append(all, rows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (f *IssueEditorFlowImpl) ManuallySelect(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint, itemID *uint) (*models.IssueModuleSelection, error) {
	flow, err := f.flow(family)
	if err != nil {
		return nil, err
	}
	row, err := flow.ManuallySelect(ctx, issueID, moduleID, itemID)
	entry := auditEntry{
		IssueID:  issueID,
		Action:   models.AuditActionManualSelection,
		Family:   family,
		ModuleID: moduleID,
		Metadata: map[string]any{"item_id": itemID},
		Err:      err,
	}
	if itemID == nil {
		entry.Description = "module left empty"
	}
	f.audit.record(ctx, entry)
	return row, err
}

func (f *IssueEditorFlowImpl) ClearSelection(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*models.IssueModuleSelection, error) {
	flow, err := f.flow(family)
	if err != nil {
		return nil, err
	}
	row, err := flow.ClearSelection(ctx, issueID, moduleID)
	f.audit.record(ctx, auditEntry{
		IssueID:  issueID,
		Action:   models.AuditActionSelectionCleared,
		Family:   family,
		ModuleID: moduleID,
		Err:      err,
	})
	return row, err
}

func (f *IssueEditorFlowImpl) RepickSelection(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*SelectionOutcome, error) {
	flow, err := f.flow(family)
	if err != nil {
		return nil, err
	}
	outcome, err := flow.SelectForIssue(ctx, issueID, moduleID)
	entry := auditEntry{
		IssueID:  issueID,
		Action:   models.AuditActionSelectionRepicked,
		Family:   family,
		ModuleID: moduleID,
		Err:      err,
	}
	if outcome != nil {
		entry.Metadata = map[string]any{
			"item_id":   outcome.Result.ItemID,
			"reason":    outcome.Result.Reason,
			"preserved": outcome.Preserved,
		}
	}
	f.audit.record(ctx, entry)
	return outcome, err
}
