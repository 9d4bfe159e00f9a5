package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/issue-composer/app/services"
	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextBoxFlow stores per-issue text for generated text boxes
type TextBoxFlow interface {
	StoreGeneratedContent(ctx context.Context, issueID uuid.UUID, moduleID uint, body string, format models.BodyFormat) (*models.TextBoxContent, error)
	GenerateForIssue(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.TextBoxContent, error)
}

type TextBoxFlowImpl struct {
	issueRepo     repository.IssueRepository
	moduleRepo    repository.ModuleRepository[models.TextBoxModule]
	contentRepo   repository.TextBoxContentRepository
	selectionRepo repository.IssueModuleSelectionRepository
	generator     services.TextGenerator
	audit         auditTrail
	logger        *zap.Logger
}

// NewTextBoxFlow creates the text box flow; a nil generator disables GenerateForIssue
func NewTextBoxFlow(
	issueRepo repository.IssueRepository,
	moduleRepo repository.ModuleRepository[models.TextBoxModule],
	contentRepo repository.TextBoxContentRepository,
	selectionRepo repository.IssueModuleSelectionRepository,
	generator services.TextGenerator,
	auditRepo repository.AuditLogRepository,
	logger *zap.Logger,
) TextBoxFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextBoxFlowImpl{
		issueRepo:     issueRepo,
		moduleRepo:    moduleRepo,
		contentRepo:   contentRepo,
		selectionRepo: selectionRepo,
		generator:     generator,
		audit:         auditTrail{repo: auditRepo, logger: logger},
		logger:        logger,
	}
}

func (f *TextBoxFlowImpl) resolve(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.Issue, *models.TextBoxModule, error) {
	issue, err := f.issueRepo.ByUUID(ctx, issueID)
	if err != nil {
		return nil, nil, NewBusinessError("ISSUE_LOOKUP_FAILED", "Failed to load issue", err)
	}
	if issue == nil {
		return nil, nil, ErrIssueNotFound
	}
	if issue.IsSent() {
		return nil, nil, ErrIssueAlreadySent
	}

	module, err := f.moduleRepo.ByID(ctx, moduleID)
	if err != nil {
		return nil, nil, NewBusinessError("MODULE_LOOKUP_FAILED", "Failed to load text box", err)
	}
	if module == nil || module.PublicationID != issue.PublicationID {
		return nil, nil, ErrModuleNotFound
	}
	if !module.IsGenerated {
		return nil, nil, ErrTextBoxNotGenerated
	}

	sel, err := f.selectionRepo.ByIssueModule(ctx, issueID, models.ModuleFamilyTextBox, moduleID)
	if err != nil {
		return nil, nil, NewBusinessError("SELECTION_LOOKUP_FAILED", "Failed to load selection", err)
	}
	if sel != nil && sel.IsUsed() {
		return nil, nil, ErrSelectionLocked
	}
	return issue, module, nil
}

// StoreGeneratedContent saves the text shown by a generated text box in one issue
func (f *TextBoxFlowImpl) StoreGeneratedContent(ctx context.Context, issueID uuid.UUID, moduleID uint, body string, format models.BodyFormat) (*models.TextBoxContent, error) {
	if _, _, err := f.resolve(ctx, issueID, moduleID); err != nil {
		return nil, err
	}
	content, err := f.store(ctx, issueID, moduleID, body, format)
	f.recordContent(ctx, models.AuditActionTextBoxStored, issueID, moduleID, content, err)
	return content, err
}

func (f *TextBoxFlowImpl) recordContent(ctx context.Context, action string, issueID uuid.UUID, moduleID uint, content *models.TextBoxContent, err error) {
	entry := auditEntry{
		IssueID:  issueID,
		Action:   action,
		Family:   models.ModuleFamilyTextBox,
		ModuleID: moduleID,
		Err:      err,
	}
	if content != nil {
		entry.Metadata = map[string]any{
			"body_format": content.BodyFormat,
			"length":      len(content.Body),
		}
	}
	f.audit.record(ctx, entry)
}

func (f *TextBoxFlowImpl) store(ctx context.Context, issueID uuid.UUID, moduleID uint, body string, format models.BodyFormat) (*models.TextBoxContent, error) {
	if format == "" {
		format = models.BodyFormatMarkdown
	}
	content := &models.TextBoxContent{
		IssueID:         issueID,
		TextBoxModuleID: moduleID,
		Body:            strings.TrimSpace(body),
		BodyFormat:      format,
		GeneratedAt:     utils.UTCNow(),
	}
	if err := f.contentRepo.Upsert(ctx, content); err != nil {
		f.logger.Error("Failed to store text box content",
			zap.String("issue_id", issueID.String()),
			zap.Uint("module_id", moduleID),
			zap.Error(err))
		return nil, NewBusinessError("TEXT_BOX_SAVE_FAILED", "Failed to store text box content", err)
	}
	return content, nil
}

// GenerateForIssue asks the text generator for the module's prompt and stores the answer
func (f *TextBoxFlowImpl) GenerateForIssue(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.TextBoxContent, error) {
	if f.generator == nil {
		return nil, ErrTextGeneratorMissing
	}
	issue, module, err := f.resolve(ctx, issueID, moduleID)
	if err != nil {
		return nil, err
	}

	body, err := f.generator.Generate(ctx, services.TextRequest{
		Prompt:        module.GenerationPrompt,
		PublicationID: issue.PublicationID,
		IssueDate:     issue.IssueDate,
	})
	if err != nil {
		f.recordContent(ctx, models.AuditActionTextBoxGenerated, issueID, moduleID, nil, err)
		return nil, NewBusinessError("TEXT_GENERATION_FAILED", "Failed to generate text box content", err)
	}

	f.logger.Info("Text box content generated",
		zap.String("issue_id", issueID.String()),
		zap.Uint("module_id", moduleID),
		zap.Int("length", len(body)))
	content, err := f.store(ctx, issueID, moduleID, body, models.BodyFormatMarkdown)
	f.recordContent(ctx, models.AuditActionTextBoxGenerated, issueID, moduleID, content, err)
	return content, err
}
