package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"go.uber.org/zap"
)

// ModuleConfigFlow edits the presentation of module instances
type ModuleConfigFlow interface {
	UpdateModuleConfig(ctx context.Context, family models.ModuleFamily, moduleID uint, update models.ModuleConfigUpdate) (models.Module, error)
}

type ModuleConfigFlowImpl struct {
	sources map[models.ModuleFamily]FamilySource
	audit   auditTrail
	logger  *zap.Logger
}

func NewModuleConfigFlow(sources []FamilySource, auditRepo repository.AuditLogRepository, logger *zap.Logger) ModuleConfigFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	bySource := make(map[models.ModuleFamily]FamilySource, len(sources))
	for _, s := range sources {
		bySource[s.Family()] = s
	}
	return &ModuleConfigFlowImpl{
		sources: bySource,
		audit:   auditTrail{repo: auditRepo, logger: logger},
		logger:  logger,
	}
}

// UpdateModuleConfig validates and stores the set fields, then returns the module as stored.
// Issues already sent keep the presentation frozen in their snapshots.
func (f *ModuleConfigFlowImpl) UpdateModuleConfig(ctx context.Context, family models.ModuleFamily, moduleID uint, update models.ModuleConfigUpdate) (models.Module, error) {
	module, err := f.updateModuleConfig(ctx, family, moduleID, update)
	if IsUnknownFamily(err) || IsModuleNotFound(err) {
		return nil, err
	}
	entry := auditEntry{
		Action:   models.AuditActionModuleConfigured,
		Family:   family,
		ModuleID: moduleID,
		Metadata: update.Columns(),
		Err:      err,
	}
	f.audit.record(ctx, entry)
	return module, err
}

func (f *ModuleConfigFlowImpl) updateModuleConfig(ctx context.Context, family models.ModuleFamily, moduleID uint, update models.ModuleConfigUpdate) (models.Module, error) {
	source, ok := f.sources[family]
	if !ok {
		return nil, ErrUnknownFamily
	}
	module, err := source.Module(ctx, moduleID)
	if err != nil {
		return nil, NewBusinessError("MODULE_LOOKUP_FAILED", "Failed to load module", err)
	}
	if module == nil {
		return nil, ErrModuleNotFound
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, NewBusinessError("INVALID_MODULE_NAME", "Module name must not be empty", nil)
		}
		update.Name = &name
	}
	if update.BlockOrder != nil {
		if err := models.ValidateBlockOrder(family, update.BlockOrder); err != nil {
			return nil, NewBusinessError("INVALID_BLOCK_ORDER", err.Error(), fmt.Errorf("%w: %v", ErrInvalidBlockOrder, err))
		}
	}
	if update.Empty() {
		return module, nil
	}

	found, err := source.UpdateConfig(ctx, moduleID, update)
	if err != nil {
		f.logger.Error("Failed to update module config",
			zap.String("family", family.String()),
			zap.Uint("module_id", moduleID),
			zap.Error(err))
		return nil, NewBusinessError("MODULE_UPDATE_FAILED", "Failed to update module", err)
	}
	if !found {
		return nil, ErrModuleNotFound
	}

	stored, err := source.Module(ctx, moduleID)
	if err != nil {
		return nil, NewBusinessError("MODULE_LOOKUP_FAILED", "Failed to load module", err)
	}
	if stored == nil {
		return nil, ErrModuleNotFound
	}
	f.logger.Info("Module config updated",
		zap.String("family", family.String()),
		zap.Uint("module_id", moduleID))
	return stored, nil
}
