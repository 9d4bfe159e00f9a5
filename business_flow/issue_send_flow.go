package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/issue-composer/blocks"
	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/renderer"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ArchiveStorage keeps the frozen html of a sent issue and returns its public URL
type ArchiveStorage interface {
	Store(ctx context.Context, issue *models.Issue, html string) (string, error)
}

// SendReport summarises one MarkSent call
type SendReport struct {
	IssueID     uuid.UUID
	AlreadySent bool
	Usage       []*UsageReport
	ArchiveURL  *string
}

// IssueSendFlow records usage for every module of an issue when it goes out
type IssueSendFlow interface {
	MarkSent(ctx context.Context, issueID uuid.UUID) (*SendReport, error)
}

// SendFlowOptions configures the send flow; nil collaborators disable their step
type SendFlowOptions struct {
	Redis      *redis.Client
	LockPrefix string
	LockTTL    time.Duration
	Archive    ArchiveStorage
	Audit      repository.AuditLogRepository
	// Styles are frozen onto the issue with its usage; nil freezes the renderer defaults
	Styles renderer.StyleProvider
}

type IssueSendFlowImpl struct {
	issueRepo   repository.IssueRepository
	selections  []SelectionFlow
	composition IssueCompositionFlow
	tx          repository.Transactor
	rc          *redis.Client
	lockPrefix  string
	lockTTL     time.Duration
	archive     ArchiveStorage
	styles      renderer.StyleProvider
	audit       auditTrail
	logger      *zap.Logger
}

func NewIssueSendFlow(
	issueRepo repository.IssueRepository,
	selections []SelectionFlow,
	composition IssueCompositionFlow,
	tx repository.Transactor,
	opts SendFlowOptions,
	logger *zap.Logger,
) IssueSendFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = utils.IssueSendLockTTL
	}
	return &IssueSendFlowImpl{
		issueRepo:   issueRepo,
		selections:  selections,
		composition: composition,
		tx:          tx,
		rc:          opts.Redis,
		lockPrefix:  opts.LockPrefix,
		lockTTL:     ttl,
		archive:     opts.Archive,
		styles:      opts.Styles,
		audit:       auditTrail{repo: opts.Audit, logger: logger},
		logger:      logger,
	}
}

func (f *IssueSendFlowImpl) lockKey(issueID uuid.UUID) string {
	return f.lockPrefix + utils.IssueSendLockPrefix + issueID.String()
}

// acquire takes the per-issue send lock; redis when configured, in-process otherwise
func (f *IssueSendFlowImpl) acquire(ctx context.Context, issueID uuid.UUID) (func(), error) {
	if f.rc == nil {
		unlock, ok := tryLockIssueSend(issueID)
		if !ok {
			return nil, ErrSendInProgress
		}
		return unlock, nil
	}

	key := f.lockKey(issueID)
	ok, err := f.rc.SetNX(ctx, key, "1", f.lockTTL).Result()
	if err != nil {
		return nil, NewBusinessError("SEND_LOCK_FAILED", "Failed to acquire send lock", fmt.Errorf("%w: %v", ErrCacheNotAvailable, err))
	}
	if !ok {
		return nil, ErrSendInProgress
	}
	return func() {
		_ = f.rc.Del(context.Background(), key).Err()
	}, nil
}

func (f *IssueSendFlowImpl) loadIssue(ctx context.Context, issueID uuid.UUID) (*models.Issue, error) {
	issue, err := f.issueRepo.ByUUID(ctx, issueID)
	if err != nil {
		return nil, NewBusinessError("ISSUE_LOOKUP_FAILED", "Failed to load issue", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	return issue, nil
}

// MarkSent records usage for every family, stores the archive and flips the issue to sent.
// Re-delivery for a sent issue reports AlreadySent and changes nothing.
func (f *IssueSendFlowImpl) MarkSent(ctx context.Context, issueID uuid.UUID) (*SendReport, error) {
	report, err := f.markSent(ctx, issueID)
	if IsIssueNotFound(err) || IsSendInProgress(err) || (err == nil && report.AlreadySent) {
		return report, err
	}

	entry := auditEntry{IssueID: issueID, Action: models.AuditActionIssueSent, Err: err}
	if report != nil {
		entry.Metadata = map[string]any{
			"archive_url": report.ArchiveURL,
			"families":    len(report.Usage),
		}
	}
	f.audit.record(ctx, entry)
	return report, err
}

func (f *IssueSendFlowImpl) markSent(ctx context.Context, issueID uuid.UUID) (*SendReport, error) {
	report := &SendReport{IssueID: issueID}

	issue, err := f.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.IsSent() {
		report.AlreadySent = true
		report.ArchiveURL = issue.ArchiveURL
		return report, nil
	}

	unlock, err := f.acquire(ctx, issueID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// another worker may have finished while we waited for the lock
	issue, err = f.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.IsSent() {
		report.AlreadySent = true
		report.ArchiveURL = issue.ArchiveURL
		return report, nil
	}

	err = f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		report.Usage = report.Usage[:0]
		for _, flow := range f.selections {
			usage, err := flow.RecordUsage(txCtx, issueID, issue.IssueDate)
			if err != nil {
				return fmt.Errorf("%s: %w", flow.Family(), err)
			}
			report.Usage = append(report.Usage, usage)
		}
		return f.freezeStyles(txCtx, issue)
	})
	if err != nil {
		return nil, NewBusinessError("SEND_USAGE_FAILED", "Failed to record usage for issue", err)
	}

	if f.archive != nil {
		html, err := f.composition.GenerateCombinedHTML(ctx, issueID, renderer.ModeArchive)
		if err != nil {
			return nil, NewBusinessError("ARCHIVE_RENDER_FAILED", "Failed to render archive", err)
		}
		url, err := f.archive.Store(ctx, issue, html)
		if err != nil {
			f.logger.Error("Archive upload failed", zap.String("issue_id", issueID.String()), zap.Error(err))
			return nil, NewBusinessError("ARCHIVE_UPLOAD_FAILED", "Failed to store archive", err)
		}
		report.ArchiveURL = &url
	}

	marked, err := f.issueRepo.MarkSent(ctx, issueID, utils.UTCNow(), report.ArchiveURL)
	if err != nil {
		return nil, NewBusinessError("MARK_SENT_FAILED", "Failed to mark issue as sent", err)
	}
	report.AlreadySent = !marked

	f.logger.Info("Issue sent",
		zap.String("issue_id", issueID.String()),
		zap.Bool("already_sent", report.AlreadySent),
		zap.Stringp("archive_url", report.ArchiveURL))
	return report, nil
}

// freezeStyles captures the publication styles the archive will render with.
// A retried send keeps the styles captured by the first attempt.
func (f *IssueSendFlowImpl) freezeStyles(ctx context.Context, issue *models.Issue) error {
	var styles blocks.StyleOptions
	if f.styles != nil {
		var err error
		styles, err = f.styles.StylesFor(ctx, issue.PublicationID)
		if err != nil {
			return fmt.Errorf("styles: %w", err)
		}
	}
	if _, err := f.issueRepo.FreezeArchiveStyles(ctx, issue.ID, archiveStylesOf(styles)); err != nil {
		return fmt.Errorf("styles: %w", err)
	}
	return nil
}

func archiveStylesOf(s blocks.StyleOptions) models.ArchiveStyles {
	return models.ArchiveStyles{
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		HeadingFont:    s.HeadingFont,
		BodyFont:       s.BodyFont,
	}
}

func styleOptionsOf(s *models.ArchiveStyles) blocks.StyleOptions {
	if s == nil {
		return blocks.StyleOptions{}
	}
	return blocks.StyleOptions{
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		HeadingFont:    s.HeadingFont,
		BodyFont:       s.BodyFont,
	}
}
