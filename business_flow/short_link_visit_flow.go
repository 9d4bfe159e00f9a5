package businessflow

import (
	"context"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"go.uber.org/zap"
)

// ShortLinkVisitFlow resolves a tracked link from an issue and records the click.
// Public flow, no authentication required.
type ShortLinkVisitFlow interface {
	Visit(ctx context.Context, uid string, userAgent *string, ip *string) (string, error)
}

type ShortLinkVisitFlowImpl struct {
	links  repository.ShortLinkRepository
	clicks repository.ShortLinkClickRepository
	tx     repository.Transactor
	logger *zap.Logger
}

func NewShortLinkVisitFlow(
	links repository.ShortLinkRepository,
	clicks repository.ShortLinkClickRepository,
	tx repository.Transactor,
	logger *zap.Logger,
) ShortLinkVisitFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortLinkVisitFlowImpl{links: links, clicks: clicks, tx: tx, logger: logger}
}

// Visit returns the long link for uid. A failed click write is logged and the redirect still happens.
func (f *ShortLinkVisitFlowImpl) Visit(ctx context.Context, uid string, userAgent *string, ip *string) (string, error) {
	row, err := f.links.ByUID(ctx, uid)
	if err != nil {
		return "", NewBusinessError("SHORT_LINK_LOOKUP_FAILED", "Failed to lookup short link", err)
	}
	if row == nil {
		return "", ErrShortLinkNotFound
	}

	err = f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		click := &models.ShortLinkClick{
			ShortLinkID: row.ID,
			UID:         row.UID,
			UserAgent:   userAgent,
			IP:          ip,
		}
		if err := f.clicks.Save(txCtx, click); err != nil {
			return err
		}
		return f.links.IncrementClicks(txCtx, row.ID)
	})
	if err != nil {
		shortLinkClicksTotal.WithLabelValues("failed").Inc()
		f.logger.Warn("Failed to track short link click",
			zap.String("uid", uid),
			zap.Uint("short_link_id", row.ID),
			zap.Error(err))
	} else {
		shortLinkClicksTotal.WithLabelValues("tracked").Inc()
	}
	return row.LongLink, nil
}
