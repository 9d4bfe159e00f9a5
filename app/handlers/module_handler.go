package handlers

import (
	"errors"
	"strconv"

	"github.com/amirphl/issue-composer/app/dto"
	businessflow "github.com/amirphl/issue-composer/business_flow"
	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ModuleHandlerInterface defines the contract for module configuration endpoints
type ModuleHandlerInterface interface {
	UpdateConfig(c fiber.Ctx) error
}

// ModuleHandler handles module configuration HTTP requests
type ModuleHandler struct {
	flow      businessflow.ModuleConfigFlow
	validator *validator.Validate
	logger    *zap.Logger
}

func NewModuleHandler(flow businessflow.ModuleConfigFlow, logger *zap.Logger) *ModuleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleHandler{flow: flow, validator: validator.New(), logger: logger}
}

func (h *ModuleHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ModuleHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func toModuleResponse(m models.Module) dto.ModuleResponse {
	base := m.Base()
	return dto.ModuleResponse{
		ID:           base.ID,
		Family:       m.Family().String(),
		Name:         base.Name,
		ShowName:     base.ShowName,
		DisplayOrder: base.DisplayOrder,
		IsActive:     base.IsActive,
		BlockOrder:   append([]string{}, base.BlockOrder...),
	}
}

// UpdateConfig changes the name, visibility, order or block order of a module
// @Router /api/v1/modules/{family}/{moduleID} [patch]
func (h *ModuleHandler) UpdateConfig(c fiber.Ctx) error {
	moduleID, _ := strconv.ParseUint(c.Params("moduleID"), 10, 64)
	params := dto.ModulePathParams{Family: c.Params("family"), ModuleID: uint(moduleID)}
	if err := h.validator.Struct(&params); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid path parameters", "INVALID_REQUEST", err.Error())
	}
	var req dto.UpdateModuleConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	family := models.ModuleFamily(params.Family)
	ctx := requestContext(c, "/api/v1/modules", utils.DefaultRequestTimeout)
	module, err := h.flow.UpdateModuleConfig(ctx, family, params.ModuleID, models.ModuleConfigUpdate{
		Name:         req.Name,
		ShowName:     req.ShowName,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
		BlockOrder:   req.BlockOrder,
	})
	switch {
	case err == nil:
		return h.SuccessResponse(c, fiber.StatusOK, "Module updated", toModuleResponse(module))
	case businessflow.IsInvalidBlockOrder(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), "INVALID_BLOCK_ORDER", nil)
	case businessflow.IsModuleNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Module not found", "MODULE_NOT_FOUND", nil)
	case businessflow.IsUnknownFamily(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown module family", "UNKNOWN_FAMILY", nil)
	}

	var be *businessflow.BusinessError
	if errors.As(err, &be) && be.Err == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
	}
	h.logger.Error("Module update failed",
		zap.String("family", family.String()),
		zap.Uint("module_id", params.ModuleID),
		zap.Error(err))
	if be != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, be.Message, be.Code, nil)
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Request failed", "MODULE_UPDATE_FAILED", nil)
}
