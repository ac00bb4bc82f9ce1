package orders

import (
	"context"
	"strings"
	"time"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/database"
)

// dishInfo is the catalog data an order line needs.
type dishInfo struct {
	Price    float64
	PrepTime int
}

// Repository handles order persistence. It runs against the gateway or a
// transaction, whichever Querier it is built on.
type Repository struct {
	q database.Querier
}

// NewRepository creates an orders repository.
func NewRepository(q database.Querier) *Repository {
	return &Repository{q: q}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// TableTenant returns the tenant that owns a table.
func (r *Repository) TableTenant(ctx context.Context, tableID int64) (int64, error) {
	var tenantID int64
	err := r.q.FetchOne(ctx, `SELECT tenant_id FROM dining_tables WHERE id = ?`, tableID).Scan(&tenantID)
	return tenantID, err
}

// Dishes returns price and prep time of the given dishes that belong to
// tenantID. Dishes of other tenants are absent from the result.
func (r *Repository) Dishes(ctx context.Context, tenantID int64, ids []int64) (map[int64]dishInfo, error) {
	out := make(map[int64]dishInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `SELECT d.id, d.price, d.prep_time_minutes
		FROM dishes d JOIN categories c ON c.id = d.category_id
		WHERE c.tenant_id = ? AND d.id IN (` + placeholders(len(ids)) + `)`
	err := r.q.FetchAll(ctx, query, func(row database.Row) error {
		var (
			id   int64
			info dishInfo
		)
		if err := row.Scan(&id, &info.Price, &info.PrepTime); err != nil {
			return err
		}
		out[id] = info
		return nil
	}, args...)
	return out, err
}

// ModifierDishes maps each given modifier id to the dish it belongs to.
func (r *Repository) ModifierDishes(ctx context.Context, ids []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	err := r.q.FetchAll(ctx, `SELECT id, dish_id FROM modifiers WHERE id IN (`+placeholders(len(ids))+`)`,
		func(row database.Row) error {
			var id, dishID int64
			if err := row.Scan(&id, &dishID); err != nil {
				return err
			}
			out[id] = dishID
			return nil
		}, args...)
	return out, err
}

// InsertOrder writes an order header and returns its id.
func (r *Repository) InsertOrder(ctx context.Context, o *models.Order) (int64, error) {
	res, err := r.q.Execute(ctx, `INSERT INTO orders (state, created_at, estimated_ready_at, table_id, tenant_id, total)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(o.State), o.CreatedAt.Unix(), o.EstimatedReadyAt.Unix(), o.TableID, o.TenantID, o.Total)
	if err != nil {
		return 0, err
	}
	return res.InsertedID, nil
}

// InsertLine writes an order line and returns its id.
func (r *Repository) InsertLine(ctx context.Context, orderID, dishID int64, quantity int) (int64, error) {
	res, err := r.q.Execute(ctx, `INSERT INTO order_lines (order_id, dish_id, quantity) VALUES (?, ?, ?)`,
		orderID, dishID, quantity)
	if err != nil {
		return 0, err
	}
	return res.InsertedID, nil
}

// InsertLineModifier attaches a modifier to an order line.
func (r *Repository) InsertLineModifier(ctx context.Context, lineID, modifierID int64, note string) error {
	_, err := r.q.Execute(ctx, `INSERT INTO line_modifiers (order_line_id, modifier_id, note) VALUES (?, ?, ?)`,
		lineID, modifierID, note)
	return err
}

const orderColumns = `SELECT id, state, created_at, estimated_ready_at, table_id, tenant_id, total FROM orders`

func scanOrder(row database.Row) (*models.Order, error) {
	var (
		o              models.Order
		state          string
		created, ready int64
	)
	if err := row.Scan(&o.ID, &state, &created, &ready, &o.TableID, &o.TenantID, &o.Total); err != nil {
		return nil, err
	}
	o.State = models.OrderState(state)
	o.CreatedAt = time.Unix(created, 0).UTC()
	o.EstimatedReadyAt = time.Unix(ready, 0).UTC()
	o.Items = make([]*models.OrderLine, 0)
	return &o, nil
}

// Get returns one order with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.q.FetchOne(ctx, orderColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByTenant returns the tenant's orders in the given states ordered by
// id, each with its lines.
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64, states ...models.OrderState) ([]*models.Order, error) {
	args := []any{tenantID}
	for _, s := range states {
		args = append(args, string(s))
	}
	return r.list(ctx, orderColumns+` WHERE tenant_id = ? AND state IN (`+placeholders(len(states))+`) ORDER BY id`, args...)
}

// ListByTable returns a table's orders in the given states ordered by id,
// each with its lines.
func (r *Repository) ListByTable(ctx context.Context, tableID, tenantID int64, states ...models.OrderState) ([]*models.Order, error) {
	args := []any{tableID, tenantID}
	for _, s := range states {
		args = append(args, string(s))
	}
	return r.list(ctx, orderColumns+` WHERE table_id = ? AND tenant_id = ? AND state IN (`+placeholders(len(states))+`) ORDER BY id`, args...)
}

// list reads headers first and then lines per header; the scan callback
// must not query.
func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	out := make([]*models.Order, 0)
	err := r.q.FetchAll(ctx, query, func(row database.Row) error {
		o, err := scanOrder(row)
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	for _, o := range out {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) loadLines(ctx context.Context, o *models.Order) error {
	byID := make(map[int64]*models.OrderLine)
	err := r.q.FetchAll(ctx, `SELECT ol.id, ol.order_id, ol.dish_id, d.name, d.price, ol.quantity
		FROM order_lines ol JOIN dishes d ON d.id = ol.dish_id
		WHERE ol.order_id = ?
		ORDER BY ol.id`, func(row database.Row) error {
		l := &models.OrderLine{}
		if err := row.Scan(&l.ID, &l.OrderID, &l.DishID, &l.DishName, &l.Price, &l.Quantity); err != nil {
			return err
		}
		o.Items = append(o.Items, l)
		byID[l.ID] = l
		return nil
	}, o.ID)
	if err != nil || len(byID) == 0 {
		return err
	}
	return r.q.FetchAll(ctx, `SELECT lm.id, lm.order_line_id, lm.modifier_id, m.name, COALESCE(lm.note, '')
		FROM line_modifiers lm
		JOIN order_lines ol ON ol.id = lm.order_line_id
		JOIN modifiers m ON m.id = lm.modifier_id
		WHERE ol.order_id = ?
		ORDER BY lm.id`, func(row database.Row) error {
		m := &models.LineModifier{}
		if err := row.Scan(&m.ID, &m.OrderLineID, &m.ModifierID, &m.Name, &m.Note); err != nil {
			return err
		}
		if l, ok := byID[m.OrderLineID]; ok {
			l.Modifiers = append(l.Modifiers, m)
		}
		return nil
	}, o.ID)
}

// Complete marks an order of the tenant completed and reports whether it
// exists.
func (r *Repository) Complete(ctx context.Context, tenantID, id int64) (bool, error) {
	res, err := r.q.Execute(ctx, `UPDATE orders SET state = ? WHERE id = ? AND tenant_id = ?`,
		string(models.OrderCompleted), id, tenantID)
	if err != nil {
		return false, err
	}
	return res.Affected > 0, nil
}
