package menu

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/middleware"
	"github.com/comanda-app/backend/pkg/response"
)

// Handler handles the authenticated menu endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a menu handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CategoryRequest is the body for POST /menu/categories.
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// DishRequest is the body for POST /menu/dishes and PUT /menu/dishes/:id.
type DishRequest struct {
	Name            string   `json:"name" binding:"required,max=200"`
	Description     string   `json:"description"`
	Price           *float64 `json:"price" binding:"required,gte=0"`
	PrepTimeMinutes int      `json:"prepTimeMinutes" binding:"gte=0"`
	CategoryID      int64    `json:"categoryId" binding:"required,gt=0"`
	ImageURL        string   `json:"imageUrl"`
}

func (r DishRequest) input() DishInput {
	return DishInput{
		Name:            r.Name,
		Description:     r.Description,
		Price:           *r.Price,
		PrepTimeMinutes: r.PrepTimeMinutes,
		CategoryID:      r.CategoryID,
		ImageURL:        r.ImageURL,
	}
}

// ModifierRequest is the body for POST /menu/modifiers.
type ModifierRequest struct {
	Name       string  `json:"name" binding:"required,max=100"`
	ExtraPrice float64 `json:"extraPrice" binding:"gte=0"`
	DishID     int64   `json:"dishId" binding:"required,gt=0"`
}

// ListCategories handles GET /menu/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.repo.ListCategories(c.Request.Context(), middleware.MustTenantID(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// CreateCategory handles POST /menu/categories.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cat, err := h.repo.CreateCategory(c.Request.Context(), middleware.MustTenantID(c), req.Name)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, cat)
}

// DeleteCategory handles DELETE /menu/categories/:id.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteCategory(c.Request.Context(), middleware.MustTenantID(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// ListDishes handles GET /menu/dishes.
func (h *Handler) ListDishes(c *gin.Context) {
	list, err := h.repo.ListDishes(c.Request.Context(), middleware.MustTenantID(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// CreateDish handles POST /menu/dishes.
func (h *Handler) CreateDish(c *gin.Context) {
	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	dish, err := h.repo.CreateDish(c.Request.Context(), middleware.MustTenantID(c), req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, dish)
}

// UpdateDish handles PUT /menu/dishes/:id.
func (h *Handler) UpdateDish(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	dish, err := h.repo.UpdateDish(c.Request.Context(), middleware.MustTenantID(c), id, req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, dish)
}

// DeleteDish handles DELETE /menu/dishes/:id.
func (h *Handler) DeleteDish(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteDish(c.Request.Context(), middleware.MustTenantID(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// CreateModifier handles POST /menu/modifiers.
func (h *Handler) CreateModifier(c *gin.Context) {
	var req ModifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	mod, err := h.repo.CreateModifier(c.Request.Context(), middleware.MustTenantID(c), ModifierInput{
		Name:       req.Name,
		ExtraPrice: req.ExtraPrice,
		DishID:     req.DishID,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, mod)
}

// DeleteModifier handles DELETE /menu/modifiers/:id.
func (h *Handler) DeleteModifier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteModifier(c.Request.Context(), middleware.MustTenantID(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
