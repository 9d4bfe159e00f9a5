package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/issue-composer/app/dto"
	businessflow "github.com/amirphl/issue-composer/business_flow"
	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/renderer"
	"github.com/amirphl/issue-composer/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssueHandlerInterface defines the contract for editor and send endpoints
type IssueHandlerInterface interface {
	InitializeSelections(c fiber.Ctx) error
	ListSelections(c fiber.Ctx) error
	ManuallySelect(c fiber.Ctx) error
	ClearSelection(c fiber.Ctx) error
	RepickSelection(c fiber.Ctx) error
	Send(c fiber.Ctx) error
	RenderHTML(c fiber.Ctx) error
	StoreTextBoxContent(c fiber.Ctx) error
	GenerateTextBoxContent(c fiber.Ctx) error
}

// IssueHandler handles issue composition HTTP requests
type IssueHandler struct {
	editor      businessflow.IssueEditorFlow
	composition businessflow.IssueCompositionFlow
	send        businessflow.IssueSendFlow
	textBoxes   businessflow.TextBoxFlow
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(
	editor businessflow.IssueEditorFlow,
	composition businessflow.IssueCompositionFlow,
	send businessflow.IssueSendFlow,
	textBoxes businessflow.TextBoxFlow,
	logger *zap.Logger,
) *IssueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueHandler{
		editor:      editor,
		composition: composition,
		send:        send,
		textBoxes:   textBoxes,
		validator:   validator.New(),
		logger:      logger,
	}
}

func (h *IssueHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *IssueHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *IssueHandler) validationError(c fiber.Ctx, err error) error {
	var details []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details = append(details, getValidationErrorMessage(fe))
		}
	} else {
		details = append(details, err.Error())
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
}

// flowError maps business errors to HTTP responses
func (h *IssueHandler) flowError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case businessflow.IsIssueNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Issue not found", "ISSUE_NOT_FOUND", nil)
	case businessflow.IsModuleNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Module not found", "MODULE_NOT_FOUND", nil)
	case businessflow.IsModuleInactive(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Module is inactive", "MODULE_INACTIVE", nil)
	case businessflow.IsItemNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Item not found", "ITEM_NOT_FOUND", nil)
	case businessflow.IsItemNotEligible(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Item is not eligible for this module", "ITEM_NOT_ELIGIBLE", nil)
	case businessflow.IsUnknownFamily(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown module family", "UNKNOWN_FAMILY", nil)
	case businessflow.IsIssueAlreadySent(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Issue has already been sent", "ISSUE_ALREADY_SENT", nil)
	case businessflow.IsSelectionLocked(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Selection is locked after usage was recorded", "SELECTION_LOCKED", nil)
	case businessflow.IsSendInProgress(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Issue send already in progress", "SEND_IN_PROGRESS", nil)
	case businessflow.IsInvalidRenderMode(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid render mode", "INVALID_RENDER_MODE", nil)
	case businessflow.IsTextBoxNotGenerated(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Text box does not use generated content", "TEXT_BOX_NOT_GENERATED", nil)
	case errors.Is(err, businessflow.ErrCacheNotAvailable):
		h.logger.Error("Issue request failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Cache is not available", "CACHE_NOT_AVAILABLE", nil)
	case errors.Is(err, businessflow.ErrTextGeneratorMissing):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Text generation is not configured", "TEXT_GENERATOR_MISSING", nil)
	}

	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		h.logger.Error("Issue request failed", zap.String("code", be.Code), zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, be.Message, be.Code, nil)
	}
	h.logger.Error("Issue request failed", zap.Error(err))
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Request failed", fallback, nil)
}

func (h *IssueHandler) issueID(c fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("issueID"))
}

func (h *IssueHandler) selectionPath(c fiber.Ctx) (uuid.UUID, models.ModuleFamily, uint, error) {
	moduleID, _ := strconv.ParseUint(c.Params("moduleID"), 10, 64)
	params := dto.SelectionPathParams{
		IssueID:  c.Params("issueID"),
		Family:   c.Params("family"),
		ModuleID: uint(moduleID),
	}
	if err := h.validator.Struct(&params); err != nil {
		return uuid.Nil, "", 0, err
	}
	issueID, err := uuid.Parse(params.IssueID)
	if err != nil {
		return uuid.Nil, "", 0, err
	}
	return issueID, models.ModuleFamily(params.Family), params.ModuleID, nil
}

func toSelectionResponses(rows []*models.IssueModuleSelection) []dto.SelectionResponse {
	out := make([]dto.SelectionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSelectionResponse(row))
	}
	return out
}

func toSelectionResponse(row *models.IssueModuleSelection) dto.SelectionResponse {
	return dto.SelectionResponse{
		ID:             row.ID,
		Family:         row.Family.String(),
		ModuleID:       row.ModuleID,
		SelectedItemID: row.SelectedItemID,
		SelectionMode:  row.SelectionMode.String(),
		IsManual:       row.IsManual,
		Reason:         row.Reason,
		State:          string(row.State()),
		SelectedAt:     row.SelectedAt,
		UsedAt:         row.UsedAt,
	}
}

// InitializeSelections creates the selections of every active module of an issue
// @Router /api/v1/issues/{issueID}/selections/initialize [post]
func (h *IssueHandler) InitializeSelections(c fiber.Ctx) error {
	issueID, err := h.issueID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid issue id", "INVALID_ISSUE_ID", nil)
	}
	rows, err := h.editor.InitializeIssue(h.createRequestContext(c, "/api/v1/issues/selections/initialize"), issueID)
	if err != nil {
		return h.flowError(c, err, "INITIALIZE_SELECTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Selections initialized", dto.IssueSelectionsResponse{
		IssueID:    issueID.String(),
		Selections: toSelectionResponses(rows),
	})
}

// ListSelections returns the current selections of an issue
// @Router /api/v1/issues/{issueID}/selections [get]
func (h *IssueHandler) ListSelections(c fiber.Ctx) error {
	issueID, err := h.issueID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid issue id", "INVALID_ISSUE_ID", nil)
	}
	rows, err := h.editor.ListSelections(h.createRequestContext(c, "/api/v1/issues/selections"), issueID)
	if err != nil {
		return h.flowError(c, err, "LIST_SELECTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Selections retrieved", dto.IssueSelectionsResponse{
		IssueID:    issueID.String(),
		Selections: toSelectionResponses(rows),
	})
}

// ManuallySelect stores an editor pick for one module
// @Router /api/v1/issues/{issueID}/selections/{family}/{moduleID} [put]
func (h *IssueHandler) ManuallySelect(c fiber.Ctx) error {
	issueID, family, moduleID, err := h.selectionPath(c)
	if err != nil {
		return h.validationError(c, err)
	}
	var req dto.ManualSelectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationError(c, err)
	}

	row, err := h.editor.ManuallySelect(h.createRequestContext(c, "/api/v1/issues/selections"), issueID, family, moduleID, req.ItemID)
	if err != nil {
		return h.flowError(c, err, "MANUAL_SELECTION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Selection updated", toSelectionResponse(row))
}

// ClearSelection drops an editor pick so automatic selection resumes
// @Router /api/v1/issues/{issueID}/selections/{family}/{moduleID} [delete]
func (h *IssueHandler) ClearSelection(c fiber.Ctx) error {
	issueID, family, moduleID, err := h.selectionPath(c)
	if err != nil {
		return h.validationError(c, err)
	}
	row, err := h.editor.ClearSelection(h.createRequestContext(c, "/api/v1/issues/selections"), issueID, family, moduleID)
	if err != nil {
		return h.flowError(c, err, "CLEAR_SELECTION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Selection cleared", toSelectionResponse(row))
}

// RepickSelection reruns the automatic pick of one module; a manual pick is kept
// @Router /api/v1/issues/{issueID}/selections/{family}/{moduleID}/repick [post]
func (h *IssueHandler) RepickSelection(c fiber.Ctx) error {
	issueID, family, moduleID, err := h.selectionPath(c)
	if err != nil {
		return h.validationError(c, err)
	}
	outcome, err := h.editor.RepickSelection(h.createRequestContext(c, "/api/v1/issues/selections/repick"), issueID, family, moduleID)
	if err != nil {
		return h.flowError(c, err, "REPICK_SELECTION_FAILED")
	}
	message := "Selection repicked"
	if outcome.Preserved {
		message = "Manual selection kept"
	}
	return h.SuccessResponse(c, fiber.StatusOK, message, dto.RepickSelectionResponse{
		Selection: toSelectionResponse(outcome.Selection),
		Reason:    outcome.Result.Reason,
		Preserved: outcome.Preserved,
	})
}

// Send records usage for every module and marks the issue as sent
// @Router /api/v1/issues/{issueID}/send [post]
func (h *IssueHandler) Send(c fiber.Ctx) error {
	issueID, err := h.issueID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid issue id", "INVALID_ISSUE_ID", nil)
	}
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/issues/send", 60*time.Second)
	report, err := h.send.MarkSent(ctx, issueID)
	if err != nil {
		return h.flowError(c, err, "SEND_FAILED")
	}

	resp := dto.SendIssueResponse{
		IssueID:     report.IssueID.String(),
		AlreadySent: report.AlreadySent,
		ArchiveURL:  report.ArchiveURL,
		Usage:       make([]dto.UsageReportResponse, 0, len(report.Usage)),
	}
	for _, u := range report.Usage {
		resp.Usage = append(resp.Usage, dto.UsageReportResponse{
			Family:      u.Family.String(),
			Recorded:    u.Recorded,
			Empty:       u.Empty,
			AlreadyUsed: u.AlreadyUsed,
			MissingItem: u.MissingItem,
		})
	}
	message := "Issue sent"
	if report.AlreadySent {
		message = "Issue was already sent"
	}
	return h.SuccessResponse(c, fiber.StatusOK, message, resp)
}

// RenderHTML returns the combined markup of an issue; mode defaults to preview
// @Router /api/v1/issues/{issueID}/html [get]
func (h *IssueHandler) RenderHTML(c fiber.Ctx) error {
	issueID, err := h.issueID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid issue id", "INVALID_ISSUE_ID", nil)
	}
	var q dto.IssueHTMLQuery
	if err := c.Bind().Query(&q); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&q); err != nil {
		return h.validationError(c, err)
	}
	mode := renderer.ModePreview
	if q.Mode != "" {
		mode = renderer.Mode(q.Mode)
	}

	results, err := h.composition.RenderAllModules(h.createRequestContext(c, "/api/v1/issues/html"), issueID, mode)
	if err != nil {
		return h.flowError(c, err, "RENDER_FAILED")
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.HTML)
	}
	html := strings.Join(parts, "\n")

	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Issue rendered", dto.IssueHTMLResponse{
		IssueID:  issueID.String(),
		Mode:     string(mode),
		Sections: len(results),
		HTML:     html,
	})
}

func (h *IssueHandler) textBoxPath(c fiber.Ctx) (uuid.UUID, uint, error) {
	issueID, err := h.issueID(c)
	if err != nil {
		return uuid.Nil, 0, err
	}
	moduleID, err := strconv.ParseUint(c.Params("moduleID"), 10, 64)
	if err != nil || moduleID == 0 {
		return uuid.Nil, 0, errors.New("invalid module id")
	}
	return issueID, uint(moduleID), nil
}

func toTextBoxContentResponse(content *models.TextBoxContent) dto.TextBoxContentResponse {
	return dto.TextBoxContentResponse{
		IssueID:     content.IssueID.String(),
		ModuleID:    content.TextBoxModuleID,
		Body:        content.Body,
		BodyFormat:  string(content.BodyFormat),
		GeneratedAt: content.GeneratedAt,
	}
}

// StoreTextBoxContent stores issue-level text for a generated text box
// @Router /api/v1/issues/{issueID}/text-boxes/{moduleID}/content [put]
func (h *IssueHandler) StoreTextBoxContent(c fiber.Ctx) error {
	issueID, moduleID, err := h.textBoxPath(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid path parameters", "INVALID_REQUEST", err.Error())
	}
	var req dto.StoreTextBoxContentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationError(c, err)
	}

	content, err := h.textBoxes.StoreGeneratedContent(h.createRequestContext(c, "/api/v1/issues/text-boxes/content"),
		issueID, moduleID, req.Body, models.BodyFormat(req.BodyFormat))
	if err != nil {
		return h.flowError(c, err, "TEXT_BOX_SAVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Text box content stored", toTextBoxContentResponse(content))
}

// GenerateTextBoxContent runs the text generator for a generated text box
// @Router /api/v1/issues/{issueID}/text-boxes/{moduleID}/generate [post]
func (h *IssueHandler) GenerateTextBoxContent(c fiber.Ctx) error {
	issueID, moduleID, err := h.textBoxPath(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid path parameters", "INVALID_REQUEST", err.Error())
	}
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/issues/text-boxes/generate", 90*time.Second)
	content, err := h.textBoxes.GenerateForIssue(ctx, issueID, moduleID)
	if err != nil {
		return h.flowError(c, err, "TEXT_GENERATION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Text box content generated", toTextBoxContentResponse(content))
}

func (h *IssueHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, utils.DefaultRequestTimeout)
}

func (h *IssueHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	return requestContext(c, endpoint, timeout)
}
