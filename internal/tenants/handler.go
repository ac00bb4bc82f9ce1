package tenants

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/pagination"
	"github.com/comanda-app/backend/pkg/response"
)

// Handler handles tenant provisioning endpoints (operator key).
type Handler struct {
	repo    *Repository
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a tenants handler.
func NewHandler(repo *Repository, service *Service, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, service: service, logger: logger}
}

// CreateTenantRequest is the body for POST /tenants.
type CreateTenantRequest struct {
	Name            string `json:"name" binding:"required"`
	Slug            string `json:"slug" binding:"omitempty,slug"`
	PlanActiveUntil string `json:"planActiveUntil" binding:"omitempty,datetime=2006-01-02"`
	AdminEmail      string `json:"adminEmail" binding:"omitempty,email"`
	AdminPassword   string `json:"adminPassword" binding:"omitempty,min=6"`
}

// UpdateTenantRequest is the body for PUT /tenants/:id.
type UpdateTenantRequest struct {
	Name            string `json:"name" binding:"required"`
	Slug            string `json:"slug" binding:"required,slug"`
	PlanActiveUntil string `json:"planActiveUntil" binding:"required,datetime=2006-01-02"`
}

// CredentialsRequest is the body for PUT /tenants/:id/credentials.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

// ListResponse is the body of GET /tenants.
type ListResponse struct {
	Tenants []models.Tenant      `json:"tenants"`
	Page    *pagination.PageInfo `json:"page"`
}

// List handles GET /tenants.
func (h *Handler) List(c *gin.Context) {
	p := pagination.ParsePageParams(c)
	list, total, err := h.repo.List(c.Request.Context(), p.Limit(), p.Offset())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, ListResponse{Tenants: list, Page: pagination.NewPageInfo(p.Page, p.PageSize, total)})
}

// Create handles POST /tenants.
func (h *Handler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.service.Provision(c.Request.Context(), ProvisionInput{
		Name:            req.Name,
		Slug:            req.Slug,
		PlanActiveUntil: req.PlanActiveUntil,
		OwnerEmail:      req.AdminEmail,
		OwnerPassword:   req.AdminPassword,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("tenant created", zap.Int64("tenant_id", out.TenantID), zap.String("slug", out.Slug))
	response.Created(c, out)
}

// Update handles PUT /tenants/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t := &models.Tenant{
		ID:              id,
		Name:            strings.TrimSpace(req.Name),
		Slug:            req.Slug,
		PlanActiveUntil: req.PlanActiveUntil,
	}
	if err := h.repo.Update(c.Request.Context(), t); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, t)
}

// UpdateCredentials handles PUT /tenants/:id/credentials.
func (h *Handler) UpdateCredentials(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.service.RotateCredentials(c.Request.Context(), id, req.Email, req.Password); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// Delete handles DELETE /tenants/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("tenant deleted", zap.Int64("tenant_id", id))
	response.OK(c, gin.H{"status": "ok"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid tenant id")
		return 0, false
	}
	return id, true
}
