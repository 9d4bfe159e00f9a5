package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	businessflow "github.com/amirphl/issue-composer/business_flow"
	"github.com/amirphl/issue-composer/models"
	"github.com/gofiber/fiber/v3"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubModuleConfig struct {
	err       error
	gotFamily models.ModuleFamily
	gotModule uint
	gotUpdate models.ModuleConfigUpdate
}

func (s *stubModuleConfig) UpdateModuleConfig(_ context.Context, family models.ModuleFamily, moduleID uint, update models.ModuleConfigUpdate) (models.Module, error) {
	s.gotFamily, s.gotModule, s.gotUpdate = family, moduleID, update
	if s.err != nil {
		return nil, s.err
	}
	m := &models.PollModule{ModuleBase: models.ModuleBase{
		ID:         moduleID,
		Name:       "Weekly poll",
		ShowName:   true,
		IsActive:   true,
		BlockOrder: pq.StringArray(update.BlockOrder),
	}}
	return m, nil
}

func newModuleHarness() (*handlerHarness, *stubModuleConfig) {
	h := &handlerHarness{app: fiber.New()}
	flow := &stubModuleConfig{}
	handler := NewModuleHandler(flow, zap.NewNop())
	h.app.Patch("/modules/:family/:moduleID", handler.UpdateConfig)
	return h, flow
}

func TestUpdateModuleConfig(t *testing.T) {
	h, flow := newModuleHarness()

	status, resp, _ := h.do(t, http.MethodPatch, "/modules/poll/4", `{"block_order":["question","options"],"show_name":false}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, models.ModuleFamilyPoll, flow.gotFamily)
	assert.Equal(t, uint(4), flow.gotModule)
	assert.Equal(t, []string{"question", "options"}, flow.gotUpdate.BlockOrder)
	require.NotNil(t, flow.gotUpdate.ShowName)
	assert.False(t, *flow.gotUpdate.ShowName)
	assert.Nil(t, flow.gotUpdate.Name)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "poll", data["family"])
	assert.Equal(t, []any{"question", "options"}, data["block_order"])
}

func TestUpdateModuleConfigErrors(t *testing.T) {
	invalid := businessflow.NewBusinessError("INVALID_BLOCK_ORDER", `unknown block type "headline"`,
		fmt.Errorf("%w: unknown block type", businessflow.ErrInvalidBlockOrder))
	cases := []struct {
		name   string
		target string
		body   string
		err    error
		status int
		code   string
	}{
		{"bad family", "/modules/banner/4", `{}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad id", "/modules/poll/0", `{}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"negative order", "/modules/poll/4", `{"display_order":-1}`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"block order", "/modules/poll/4", `{"block_order":["headline"]}`, invalid, http.StatusUnprocessableEntity, "INVALID_BLOCK_ORDER"},
		{"missing", "/modules/poll/4", `{}`, businessflow.ErrModuleNotFound, http.StatusNotFound, "MODULE_NOT_FOUND"},
		{"empty name", "/modules/poll/4", `{"name":" "}`, businessflow.NewBusinessError("INVALID_MODULE_NAME", "Module name must not be empty", nil), http.StatusBadRequest, "INVALID_MODULE_NAME"},
		{"storage", "/modules/poll/4", `{}`, businessflow.NewBusinessError("MODULE_UPDATE_FAILED", "Failed to update module", assert.AnError), http.StatusInternalServerError, "MODULE_UPDATE_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, flow := newModuleHarness()
			flow.err = tc.err
			status, resp, _ := h.do(t, http.MethodPatch, tc.target, tc.body)
			assert.Equal(t, tc.status, status)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.code, errorCode(t, resp))
		})
	}
}
