package orders

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/middleware"
	"github.com/comanda-app/backend/pkg/response"
)

// Handler handles order endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an orders handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// LineModifierRequest is a modifier on an order item.
type LineModifierRequest struct {
	ModifierID int64  `json:"modifierId" binding:"required,gt=0"`
	Note       string `json:"note" binding:"max=200"`
}

// LineRequest is one item of POST /orders.
type LineRequest struct {
	DishID    int64                 `json:"dishId"`
	Quantity  int                   `json:"quantity"`
	Price     float64               `json:"price"`
	Modifiers []LineModifierRequest `json:"modifiers" binding:"dive"`
}

// PlaceOrderRequest is the body for POST /orders.
type PlaceOrderRequest struct {
	TableID  int64         `json:"tableId"`
	TenantID int64         `json:"tenantId"`
	Items    []LineRequest `json:"items" binding:"dive"`
	Total    float64       `json:"total"`
}

func (r PlaceOrderRequest) input() PlaceOrderInput {
	in := PlaceOrderInput{TableID: r.TableID, TenantID: r.TenantID, Total: r.Total}
	for _, it := range r.Items {
		line := LineInput{DishID: it.DishID, Quantity: it.Quantity, Price: it.Price}
		for _, m := range it.Modifiers {
			line.Modifiers = append(line.Modifiers, LineModifierInput{ModifierID: m.ModifierID, Note: m.Note})
		}
		in.Items = append(in.Items, line)
	}
	return in
}

// Place handles POST /orders. Public: table-side devices are not logged in.
func (h *Handler) Place(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id, err := h.service.PlaceOrder(c.Request.Context(), req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{"orderId": id})
}

// Pending handles GET /orders/pending. The tenant comes from the token; a
// tenantId query naming another tenant is rejected.
func (h *Handler) Pending(c *gin.Context) {
	tenantID := middleware.MustTenantID(c)
	if q := c.Query("tenantId"); q != "" {
		if id, err := strconv.ParseInt(q, 10, 64); err != nil || id != tenantID {
			response.Forbidden(c, "tenantId does not match your restaurant")
			return
		}
	}
	list, err := h.service.ListPending(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Complete handles POST /orders/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid order id")
		return
	}
	if err := h.service.CompleteOrder(c.Request.Context(), middleware.MustTenantID(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// Bill handles GET /orders/bill?tableId=&tenantId=.
func (h *Handler) Bill(c *gin.Context) {
	tableID, err1 := strconv.ParseInt(c.Query("tableId"), 10, 64)
	tenantID, err2 := strconv.ParseInt(c.Query("tenantId"), 10, 64)
	if err1 != nil || err2 != nil {
		response.BadRequest(c, "tableId and tenantId are required")
		return
	}
	bill, err := h.service.GetTableBill(c.Request.Context(), tableID, tenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, bill)
}
