package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records one editor or send action against an issue
type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	IssueID      *uuid.UUID      `gorm:"type:uuid;index:idx_audit_log_issue_id" json:"issue_id,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_log_action" json:"action"`
	Family       *ModuleFamily   `gorm:"size:16" json:"family,omitempty"`
	ModuleID     *uint           `json:"module_id,omitempty"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_log_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_audit_log_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSelectionsInitialized = "selections_initialized"
	AuditActionManualSelection       = "manual_selection"
	AuditActionSelectionCleared      = "selection_cleared"
	AuditActionSelectionRepicked     = "selection_repicked"
	AuditActionModuleConfigured      = "module_configured"
	AuditActionIssueSent             = "issue_sent"
	AuditActionTextBoxStored         = "text_box_stored"
	AuditActionTextBoxGenerated      = "text_box_generated"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	IssueID       *uuid.UUID
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
