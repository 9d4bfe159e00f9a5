package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeedbackModules struct {
	modules map[uint]*models.FeedbackModule
}

func (r *fakeFeedbackModules) ByID(_ context.Context, id uint) (*models.FeedbackModule, error) {
	m, ok := r.modules[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeFeedbackModules) ByFilter(context.Context, models.ModuleFilter, string, int, int) ([]*models.FeedbackModule, error) {
	return nil, nil
}

func (r *fakeFeedbackModules) Save(_ context.Context, m *models.FeedbackModule) error {
	r.modules[m.ID] = m
	return nil
}

func (r *fakeFeedbackModules) SaveBatch(ctx context.Context, ms []*models.FeedbackModule) error {
	for _, m := range ms {
		_ = r.Save(ctx, m)
	}
	return nil
}

func (r *fakeFeedbackModules) Count(context.Context, models.ModuleFilter) (int64, error) {
	return int64(len(r.modules)), nil
}

func (r *fakeFeedbackModules) Exists(context.Context, models.ModuleFilter) (bool, error) {
	return len(r.modules) > 0, nil
}

func (r *fakeFeedbackModules) Update(ctx context.Context, m *models.FeedbackModule) error {
	return r.Save(ctx, m)
}

func (r *fakeFeedbackModules) UpdateConfig(_ context.Context, moduleID uint, update models.ModuleConfigUpdate) (bool, error) {
	m, ok := r.modules[moduleID]
	if !ok {
		return false, nil
	}
	applyConfig(&m.ModuleBase, update)
	return true, nil
}

func (r *fakeFeedbackModules) ListActive(_ context.Context, publicationID uuid.UUID) ([]*models.FeedbackModule, error) {
	var out []*models.FeedbackModule
	for _, m := range r.modules {
		if m.IsActive && m.PublicationID == publicationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newFeedbackModule(id uint, question string) *models.FeedbackModule {
	return &models.FeedbackModule{
		ModuleBase: models.ModuleBase{
			ID:            id,
			PublicationID: testPublication,
			Name:          "Feedback",
			IsActive:      true,
			BlockOrder:    models.DefaultBlockOrder(models.ModuleFamilyFeedback),
		},
		Question: question,
		VoteOptions: []models.FeedbackVoteOption{
			{ID: 1, FeedbackModuleID: id, Label: "Great", IsActive: true},
		},
	}
}

func TestFeedbackSourceResolvesItself(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFeedbackModules{modules: map[uint]*models.FeedbackModule{
		3: newFeedbackModule(3, "How was this issue?"),
		4: newFeedbackModule(4, "   "),
	}}
	source := NewFeedbackSource(repo)

	module, err := source.Module(ctx, 3)
	require.NoError(t, err)
	pool, err := source.Pool(ctx, module, nil)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, uint(3), pool[0].ItemID())

	blank, err := source.Module(ctx, 4)
	require.NoError(t, err)
	pool, err = source.Pool(ctx, blank, nil)
	require.NoError(t, err)
	assert.Empty(t, pool, "a module without a question offers nothing")

	item, err := source.Item(ctx, module, uuid.New(), 3)
	require.NoError(t, err)
	assert.Same(t, module, item)

	item, err = source.Item(ctx, nil, uuid.New(), 3)
	require.NoError(t, err)
	require.NotNil(t, item)
	snap := item.Snapshot(time.Time{})
	assert.Equal(t, "How was this issue?", snap.Question)
	assert.Equal(t, []models.SnapshotOption{{ID: 1, Label: "Great"}}, snap.Options)

	missing, err := source.Item(ctx, nil, uuid.New(), 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, err := source.UpdateConfig(ctx, 3, models.ModuleConfigUpdate{Name: utils.ToPtr("Tell us")})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Tell us", repo.modules[3].Name)
}
