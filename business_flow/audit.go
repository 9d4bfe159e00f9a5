package businessflow

import (
	"context"
	"encoding/json"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// auditEntry describes one audited action
type auditEntry struct {
	IssueID     uuid.UUID
	Action      string
	Family      models.ModuleFamily
	ModuleID    uint
	Description string
	Metadata    map[string]any
	Err         error
}

// auditTrail writes audit rows for editor and send actions. A nil repository disables it.
type auditTrail struct {
	repo   repository.AuditLogRepository
	logger *zap.Logger
}

func contextString(ctx context.Context, key any) *string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return &v
	}
	return nil
}

// record never fails the audited action; write errors are logged
func (a auditTrail) record(ctx context.Context, e auditEntry) {
	if a.repo == nil {
		return
	}

	row := &models.AuditLog{
		Action:    e.Action,
		Success:   utils.ToPtr(e.Err == nil),
		RequestID: contextString(ctx, utils.RequestIDKey),
		IPAddress: contextString(ctx, utils.IPAddressKey),
		UserAgent: contextString(ctx, utils.UserAgentKey),
	}
	if e.IssueID != uuid.Nil {
		row.IssueID = utils.ToPtr(e.IssueID)
	}
	if e.Family != "" {
		row.Family = utils.ToPtr(e.Family)
	}
	if e.ModuleID != 0 {
		row.ModuleID = utils.ToPtr(e.ModuleID)
	}
	if e.Description != "" {
		row.Description = utils.ToPtr(e.Description)
	}
	if e.Err != nil {
		row.ErrorMessage = utils.ToPtr(e.Err.Error())
	}
	if len(e.Metadata) > 0 {
		if bs, err := json.Marshal(e.Metadata); err == nil {
			row.Metadata = bs
		}
	}

	if err := a.repo.Save(ctx, row); err != nil {
		a.logger.Warn("Failed to write audit log",
			zap.String("action", e.Action),
			zap.String("issue_id", e.IssueID.String()),
			zap.Error(err))
	}
}
