package repository

import (
	"context"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ModuleRepository defines operations shared by every module instance table
type ModuleRepository[M any] interface {
	Repository[M, models.ModuleFilter]
	Update(ctx context.Context, module *M) error
	// UpdateConfig writes the set presentation fields; false means no such module
	UpdateConfig(ctx context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error)
	// ListActive returns the publication's active modules by display order
	ListActive(ctx context.Context, publicationID uuid.UUID) ([]*M, error)
}

// RotatingModuleRepository adds the sequential cursor of poll and prompt modules
type RotatingModuleRepository[M any] interface {
	ModuleRepository[M]
	UpdateNextPosition(ctx context.Context, moduleID uint, nextPosition int) error
}

// ItemRepository defines operations for a family's content pool
type ItemRepository[I any] interface {
	Repository[I, models.ItemFilter]
	Update(ctx context.Context, item *I) error
	// EligiblePool returns the active items pinned to moduleID, or, when none are pinned,
	// every active unpinned item of the publication
	EligiblePool(ctx context.Context, publicationID uuid.UUID, moduleID uint) ([]*I, error)
	// IncrementUsage adds one to times_used and stamps last_used_date
	IncrementUsage(ctx context.Context, itemID uint, usedOn time.Time) error
}

// IssueRepository defines operations for issues
type IssueRepository interface {
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Issue, error)
	ByFilter(ctx context.Context, filter models.IssueFilter, orderBy string, limit, offset int) ([]*models.Issue, error)
	Save(ctx context.Context, issue *models.Issue) error
	// MarkSent flips a draft issue to sent; false means it was already sent
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time, archiveURL *string) (bool, error)
	// FreezeArchiveStyles stores styles only if none were stored yet; false means an earlier value stays
	FreezeArchiveStyles(ctx context.Context, id uuid.UUID, styles models.ArchiveStyles) (bool, error)
}

// IssueModuleSelectionRepository defines operations for per-issue module selections
type IssueModuleSelectionRepository interface {
	Repository[models.IssueModuleSelection, models.IssueModuleSelectionFilter]
	ByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.IssueModuleSelection, error)
	ByIssueModule(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily, moduleID uint) (*models.IssueModuleSelection, error)
	// ListUnusedForUpdate locks the issue's unused selections of one family
	ListUnusedForUpdate(ctx context.Context, issueID uuid.UUID, family models.ModuleFamily) ([]*models.IssueModuleSelection, error)
	// CreateIfAbsent inserts the selection unless a row for the same issue and module exists
	CreateIfAbsent(ctx context.Context, selection *models.IssueModuleSelection) (bool, error)
	// UpsertPick writes the pick fields of an unused selection; false means the row is already used
	UpsertPick(ctx context.Context, selection *models.IssueModuleSelection) (bool, error)
	// MarkUsed stamps used_at and the snapshot once; false means it was already used
	MarkUsed(ctx context.Context, id uint, usedAt time.Time, snapshot *models.ContentSnapshot) (bool, error)
}

// TextBoxContentRepository defines operations for per-issue text box content
type TextBoxContentRepository interface {
	ByIssueModule(ctx context.Context, issueID uuid.UUID, moduleID uint) (*models.TextBoxContent, error)
	ByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.TextBoxContent, error)
	Upsert(ctx context.Context, content *models.TextBoxContent) error
}

// PublicationStyleRepository defines operations for publication styles
type PublicationStyleRepository interface {
	ByPublicationID(ctx context.Context, publicationID uuid.UUID) (*models.PublicationStyle, error)
	Upsert(ctx context.Context, style *models.PublicationStyle) error
}

// ShortLinkRepository defines operations for short links
type ShortLinkRepository interface {
	Repository[models.ShortLink, models.ShortLinkFilter]
	ByUID(ctx context.Context, uid string) (*models.ShortLink, error)
	IncrementClicks(ctx context.Context, id uint) error
}

// ShortLinkClickRepository defines operations for short link clicks
type ShortLinkClickRepository interface {
	Repository[models.ShortLinkClick, models.ShortLinkClickFilter]
}

// AuditLogRepository stores the editor audit trail
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByIssue(ctx context.Context, issueID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}
