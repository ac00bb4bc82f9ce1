package public

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/pkg/response"
)

// Handler handles the public catalog endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a public handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Menu handles GET /public/menu?tenantId=.
func (h *Handler) Menu(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Query("tenantId"), 10, 64)
	if err != nil || tenantID <= 0 {
		response.BadRequest(c, "tenantId is required")
		return
	}
	menu, err := h.repo.Menu(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, menu)
}

// Config handles GET /public/config?slug=.
func (h *Handler) Config(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Query("slug")))
	if slug == "" {
		response.BadRequest(c, "slug is required")
		return
	}
	cfg, err := h.repo.ConfigBySlug(c.Request.Context(), slug)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, cfg)
}
