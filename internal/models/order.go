package models

import "time"

// OrderState is the lifecycle state of an order.
type OrderState string

const (
	OrderReceived OrderState = "received"
	// OrderCooking is a valid stored state; nothing currently moves an order into it.
	OrderCooking   OrderState = "cooking"
	OrderCompleted OrderState = "completed"
)

// Active reports whether the order still counts toward a table's ready timer.
func (s OrderState) Active() bool {
	return s == OrderReceived || s == OrderCooking
}

// Order is an order header with its lines.
type Order struct {
	ID               int64        `json:"id"`
	State            OrderState   `json:"state"`
	CreatedAt        time.Time    `json:"createdAt"`
	EstimatedReadyAt time.Time    `json:"estimatedReadyAt"`
	TableID          int64        `json:"tableId"`
	TenantID         int64        `json:"tenantId"`
	Total            float64      `json:"total"`
	Items            []*OrderLine `json:"items"`
}

// OrderLine is one dish on an order.
type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	DishID    int64           `json:"dishId"`
	DishName  string          `json:"dishName"`
	Price     float64         `json:"price"`
	Quantity  int             `json:"quantity"`
	Modifiers []*LineModifier `json:"modifiers,omitempty"`
}

// LineModifier is a modifier chosen for an order line.
type LineModifier struct {
	ID          int64  `json:"id"`
	OrderLineID int64  `json:"orderLineId"`
	ModifierID  int64  `json:"modifierId"`
	Name        string `json:"name"`
	Note        string `json:"note,omitempty"`
}

// TableBill is the running bill of one table.
type TableBill struct {
	TableID          int64        `json:"tableId"`
	Total            float64      `json:"total"`
	Items            []*OrderLine `json:"items"`
	EstimatedReadyAt *time.Time   `json:"estimatedReadyAt,omitempty"`
}
