// Package orders places table orders, feeds the kitchen channel and
// aggregates per-table bills.
package orders

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/internal/realtime"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database"
)

// MinPrepMinutes is the floor for an order's estimated preparation time.
const MinPrepMinutes = 15

// States shown on the kitchen display and counted on a table's bill.
var openStates = []models.OrderState{models.OrderReceived, models.OrderCooking, models.OrderCompleted}

// Notifier publishes events to realtime channels.
type Notifier interface {
	Publish(ctx context.Context, channel, event string, payload interface{}) error
}

// LineModifierInput is a modifier chosen for one line.
type LineModifierInput struct {
	ModifierID int64
	Note       string
}

// LineInput is one requested dish. Quantity 0 means 1. Price is the unit
// price shown to the customer; 0 means the catalog price.
type LineInput struct {
	DishID    int64
	Quantity  int
	Price     float64
	Modifiers []LineModifierInput
}

// PlaceOrderInput is a table-side checkout. Total 0 means compute it from
// the lines.
type PlaceOrderInput struct {
	TableID  int64
	TenantID int64
	Items    []LineInput
	Total    float64
}

// Service runs the order lifecycle.
type Service struct {
	db       database.Gateway
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an order service. notifier may be nil.
func NewService(db database.Gateway, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{db: db, notifier: notifier, logger: logger, now: time.Now}
}

func validate(in *PlaceOrderInput) error {
	if in.TableID <= 0 || in.TenantID <= 0 {
		return apperr.BadRequest("tableId and tenantId are required")
	}
	if len(in.Items) == 0 {
		return apperr.BadRequest("order has no items")
	}
	if in.Total < 0 {
		return apperr.BadRequest("total must not be negative")
	}
	for i := range in.Items {
		it := &in.Items[i]
		switch {
		case it.DishID <= 0:
			return apperr.BadRequest("every item needs a dishId")
		case it.Quantity < 0:
			return apperr.BadRequest("quantity must not be negative")
		case it.Price < 0:
			return apperr.BadRequest("price must not be negative")
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
	}
	return nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PlaceOrder validates and stores an order with its lines in one
// transaction, then publishes it on the tenant's kitchen channel.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (int64, error) {
	if err := validate(&in); err != nil {
		return 0, err
	}

	var orderID int64
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		repo := NewRepository(q)

		owner, err := repo.TableTenant(ctx, in.TableID)
		if errors.Is(err, database.ErrNoRows) || (err == nil && owner != in.TenantID) {
			return apperr.BadRequest("table does not belong to this restaurant")
		}
		if err != nil {
			return err
		}

		dishIDs := make([]int64, 0, len(in.Items))
		var modIDs []int64
		for _, it := range in.Items {
			dishIDs = append(dishIDs, it.DishID)
			for _, m := range it.Modifiers {
				modIDs = append(modIDs, m.ModifierID)
			}
		}
		dishes, err := repo.Dishes(ctx, in.TenantID, distinct(dishIDs))
		if err != nil {
			return err
		}
		modDish, err := repo.ModifierDishes(ctx, distinct(modIDs))
		if err != nil {
			return err
		}

		maxPrep := MinPrepMinutes
		var computed float64
		for _, it := range in.Items {
			info, ok := dishes[it.DishID]
			if !ok {
				return apperr.BadRequest("dish is not on this restaurant's menu")
			}
			for _, m := range it.Modifiers {
				if modDish[m.ModifierID] != it.DishID {
					return apperr.BadRequest("modifier does not belong to its dish")
				}
			}
			if info.PrepTime > maxPrep {
				maxPrep = info.PrepTime
			}
			price := it.Price
			if price == 0 {
				price = info.Price
			}
			computed += price * float64(it.Quantity)
		}

		now := s.now().UTC().Truncate(time.Second)
		order := &models.Order{
			State:            models.OrderReceived,
			CreatedAt:        now,
			EstimatedReadyAt: now.Add(time.Duration(maxPrep) * time.Minute),
			TableID:          in.TableID,
			TenantID:         in.TenantID,
			Total:            in.Total,
		}
		if order.Total == 0 {
			order.Total = computed
		}

		if orderID, err = repo.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, it := range in.Items {
			lineID, err := repo.InsertLine(ctx, orderID, it.DishID, it.Quantity)
			if err != nil {
				return err
			}
			for _, m := range it.Modifiers {
				if err := repo.InsertLineModifier(ctx, lineID, m.ModifierID, m.Note); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return 0, err
		}
		return 0, apperr.Internal("place order", err)
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", orderID),
		zap.Int64("tenant_id", in.TenantID),
		zap.Int64("table_id", in.TableID),
	)
	s.publishCreated(ctx, in.TenantID, orderID)
	return orderID, nil
}

func (s *Service) publishCreated(ctx context.Context, tenantID, orderID int64) {
	if s.notifier == nil {
		return
	}
	order, err := NewRepository(s.db).Get(ctx, orderID)
	if err != nil {
		s.logger.Warn("reload order for broadcast", zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	s.publish(ctx, tenantID, realtime.EventOrderCreated, order)
}

func (s *Service) publish(ctx context.Context, tenantID int64, event string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, realtime.TenantChannel(tenantID), event, payload); err != nil {
		s.logger.Warn("publish kitchen event", zap.String("event", event), zap.Int64("tenant_id", tenantID), zap.Error(err))
	}
}

// ListPending returns the tenant's kitchen orders in insertion order.
// Completed orders stay listed.
func (s *Service) ListPending(ctx context.Context, tenantID int64) ([]*models.Order, error) {
	list, err := NewRepository(s.db).ListByTenant(ctx, tenantID, openStates...)
	if err != nil {
		return nil, apperr.Internal("list pending orders", err)
	}
	return list, nil
}

// CompleteOrder marks an order completed. Completing twice is harmless and
// an unknown id (or one of another tenant) is ignored without an event.
func (s *Service) CompleteOrder(ctx context.Context, tenantID, orderID int64) error {
	found, err := NewRepository(s.db).Complete(ctx, tenantID, orderID)
	if err != nil {
		return apperr.Internal("complete order", err)
	}
	if !found {
		s.logger.Debug("complete on unknown order", zap.Int64("order_id", orderID), zap.Int64("tenant_id", tenantID))
		return nil
	}
	s.publish(ctx, tenantID, realtime.EventOrderCompleted, orderID)
	return nil
}

// GetTableBill sums the stored totals of a table's orders and lists their
// lines. The timer is the latest ETA among orders still being prepared.
func (s *Service) GetTableBill(ctx context.Context, tableID, tenantID int64) (*models.TableBill, error) {
	if tableID <= 0 || tenantID <= 0 {
		return nil, apperr.BadRequest("tableId and tenantId are required")
	}
	list, err := NewRepository(s.db).ListByTable(ctx, tableID, tenantID, openStates...)
	if err != nil {
		return nil, apperr.Internal("load table orders", err)
	}
	bill := &models.TableBill{TableID: tableID, Items: make([]*models.OrderLine, 0)}
	for _, o := range list {
		bill.Total += o.Total
		bill.Items = append(bill.Items, o.Items...)
		if !o.State.Active() {
			continue
		}
		if bill.EstimatedReadyAt == nil || o.EstimatedReadyAt.After(*bill.EstimatedReadyAt) {
			eta := o.EstimatedReadyAt
			bill.EstimatedReadyAt = &eta
		}
	}
	return bill, nil
}
