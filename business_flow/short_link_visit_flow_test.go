package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/issue-composer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeShortLinks struct {
	rows []*models.ShortLink
	err  error
}

func (r *fakeShortLinks) ByID(_ context.Context, id uint) (*models.ShortLink, error) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, nil
}

func (r *fakeShortLinks) ByFilter(_ context.Context, f models.ShortLinkFilter, _ string, _, _ int) ([]*models.ShortLink, error) {
	var out []*models.ShortLink
	for _, row := range r.rows {
		if f.UID != nil && row.UID != *f.UID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeShortLinks) Save(_ context.Context, row *models.ShortLink) error {
	row.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, row)
	return nil
}

func (r *fakeShortLinks) SaveBatch(ctx context.Context, rows []*models.ShortLink) error {
	for _, row := range rows {
		_ = r.Save(ctx, row)
	}
	return nil
}

func (r *fakeShortLinks) Count(ctx context.Context, f models.ShortLinkFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, f, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeShortLinks) Exists(ctx context.Context, f models.ShortLinkFilter) (bool, error) {
	c, _ := r.Count(ctx, f)
	return c > 0, nil
}

func (r *fakeShortLinks) ByUID(ctx context.Context, uid string) (*models.ShortLink, error) {
	rows, _ := r.ByFilter(ctx, models.ShortLinkFilter{UID: &uid}, "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeShortLinks) IncrementClicks(_ context.Context, id uint) error {
	if r.err != nil {
		return r.err
	}
	for _, row := range r.rows {
		if row.ID == id {
			row.Clicks++
		}
	}
	return nil
}

type fakeShortLinkClicks struct {
	rows []*models.ShortLinkClick
}

func (r *fakeShortLinkClicks) ByID(context.Context, uint) (*models.ShortLinkClick, error) {
	return nil, nil
}

func (r *fakeShortLinkClicks) ByFilter(context.Context, models.ShortLinkClickFilter, string, int, int) ([]*models.ShortLinkClick, error) {
	return r.rows, nil
}

func (r *fakeShortLinkClicks) Save(_ context.Context, row *models.ShortLinkClick) error {
	r.rows = append(r.rows, row)
	return nil
}

func (r *fakeShortLinkClicks) SaveBatch(_ context.Context, rows []*models.ShortLinkClick) error {
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeShortLinkClicks) Count(context.Context, models.ShortLinkClickFilter) (int64, error) {
	return int64(len(r.rows)), nil
}

func (r *fakeShortLinkClicks) Exists(context.Context, models.ShortLinkClickFilter) (bool, error) {
	return len(r.rows) > 0, nil
}

func TestShortLinkVisitTracksClick(t *testing.T) {
	links := &fakeShortLinks{rows: []*models.ShortLink{
		{ID: 1, UID: "abc123", LongLink: "https://sponsor.example.com/?utm_source=newsletter"},
	}}
	clicks := &fakeShortLinkClicks{}
	flow := NewShortLinkVisitFlow(links, clicks, &fakeTransactor{}, zap.NewNop())

	ua, ip := "Mozilla/5.0", "203.0.113.7"
	target, err := flow.Visit(context.Background(), "abc123", &ua, &ip)
	require.NoError(t, err)
	assert.Equal(t, "https://sponsor.example.com/?utm_source=newsletter", target)
	assert.Equal(t, int64(1), links.rows[0].Clicks)
	require.Len(t, clicks.rows, 1)
	assert.Equal(t, uint(1), clicks.rows[0].ShortLinkID)
	assert.Equal(t, &ip, clicks.rows[0].IP)
}

func TestShortLinkVisitUnknownUID(t *testing.T) {
	flow := NewShortLinkVisitFlow(&fakeShortLinks{}, &fakeShortLinkClicks{}, &fakeTransactor{}, zap.NewNop())
	_, err := flow.Visit(context.Background(), "missing", nil, nil)
	assert.ErrorIs(t, err, ErrShortLinkNotFound)
}

func TestShortLinkVisitRedirectsWhenTrackingFails(t *testing.T) {
	links := &fakeShortLinks{
		rows: []*models.ShortLink{{ID: 1, UID: "abc123", LongLink: "https://example.com/"}},
		err:  errors.New("deadlock detected"),
	}
	flow := NewShortLinkVisitFlow(links, &fakeShortLinkClicks{}, &fakeTransactor{}, zap.NewNop())
	target, err := flow.Visit(context.Background(), "abc123", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", target)
}
