package handlers

import (
	"context"

	businessflow "github.com/amirphl/issue-composer/business_flow"
	"github.com/amirphl/issue-composer/utils"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ShortLinkHandlerInterface defines contract for public short link visit
type ShortLinkHandlerInterface interface {
	Visit(c fiber.Ctx) error
}

type ShortLinkHandler struct {
	flow   businessflow.ShortLinkVisitFlow
	logger *zap.Logger
}

func NewShortLinkHandler(flow businessflow.ShortLinkVisitFlow, logger *zap.Logger) ShortLinkHandlerInterface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortLinkHandler{flow: flow, logger: logger}
}

// Visit resolves short link and redirects
// @Summary Visit Short Link
// @Tags ShortLinks
// @Param uid path string true "Short link UID"
// @Success 302 {string} string "Redirect"
// @Failure 404 {object} any
// @Router /s/{uid} [get]
func (h *ShortLinkHandler) Visit(c fiber.Ctx) error {
	uid := c.Params("uid")
	if uid == "" || len(uid) > 64 {
		return c.Status(fiber.StatusBadRequest).SendString("invalid short link")
	}
	ua := c.Get("User-Agent")
	ip := c.IP()

	link, err := h.flow.Visit(h.createRequestContext(c, "/s/"+uid), uid, &ua, &ip)
	if err != nil {
		if businessflow.IsShortLinkNotFound(err) {
			return c.Status(fiber.StatusNotFound).SendString("not found")
		}
		h.logger.Error("Visit short link failed", zap.String("uid", uid), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}
	return c.Redirect().Status(fiber.StatusFound).To(link)
}

func (h *ShortLinkHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return requestContext(c, endpoint, utils.DefaultRequestTimeout)
}
