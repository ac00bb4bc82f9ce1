// Package menu manages a tenant's categories, dishes and modifiers. Every
// operation is scoped to the acting tenant; rows owned by another tenant, or
// missing rows, are reported as Forbidden so callers learn nothing about them.
package menu

import (
	"context"
	"errors"
	"strings"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database"
)

// DefaultPrepTimeMinutes is used when a dish is created without a prep time.
const DefaultPrepTimeMinutes = 15

// DishInput holds the editable fields of a dish.
type DishInput struct {
	Name            string
	Description     string
	Price           float64
	PrepTimeMinutes int
	CategoryID      int64
	ImageURL        string
}

// ModifierInput holds the fields of a new modifier.
type ModifierInput struct {
	Name       string
	ExtraPrice float64
	DishID     int64
}

const (
	categoryOwnerQuery = `SELECT tenant_id FROM categories WHERE id = ?`
	dishOwnerQuery     = `SELECT c.tenant_id FROM dishes d JOIN categories c ON c.id = d.category_id WHERE d.id = ?`
	modifierOwnerQuery = `SELECT c.tenant_id FROM modifiers m
		JOIN dishes d ON d.id = m.dish_id
		JOIN categories c ON c.id = d.category_id
		WHERE m.id = ?`
)

// Repository handles menu persistence.
type Repository struct {
	db database.Gateway
}

// NewRepository creates a menu repository.
func NewRepository(db database.Gateway) *Repository {
	return &Repository{db: db}
}

// checkOwner resolves the owning tenant of a row with query and fails with
// Forbidden unless it is tenantID.
func checkOwner(ctx context.Context, q database.Querier, query string, id, tenantID int64, what string) error {
	var owner int64
	err := q.FetchOne(ctx, query, id).Scan(&owner)
	if errors.Is(err, database.ErrNoRows) || (err == nil && owner != tenantID) {
		return apperr.Forbidden(what + " does not belong to your restaurant")
	}
	if err != nil {
		return apperr.Internal("check "+what+" owner", err)
	}
	return nil
}

// ListCategories returns the tenant's categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context, tenantID int64) ([]models.Category, error) {
	list := make([]models.Category, 0)
	err := r.db.FetchAll(ctx, `SELECT id, name, tenant_id FROM categories WHERE tenant_id = ? ORDER BY name`,
		func(row database.Row) error {
			var c models.Category
			if err := row.Scan(&c.ID, &c.Name, &c.TenantID); err != nil {
				return err
			}
			list = append(list, c)
			return nil
		}, tenantID)
	if err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	return list, nil
}

// CreateCategory adds a category. Names are unique per tenant.
func (r *Repository) CreateCategory(ctx context.Context, tenantID int64, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("category name is required")
	}
	res, err := r.db.Execute(ctx, `INSERT INTO categories (name, tenant_id) VALUES (?, ?)`, name, tenantID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a category with this name already exists")
		}
		return nil, apperr.Internal("create category", err)
	}
	return &models.Category{ID: res.InsertedID, Name: name, TenantID: tenantID}, nil
}

// DeleteCategory removes an empty category. Categories that still hold
// dishes are not deleted.
func (r *Repository) DeleteCategory(ctx context.Context, tenantID, id int64) error {
	if err := checkOwner(ctx, r.db, categoryOwnerQuery, id, tenantID, "category"); err != nil {
		return err
	}
	var dishes int64
	if err := r.db.FetchOne(ctx, `SELECT COUNT(*) FROM dishes WHERE category_id = ?`, id).Scan(&dishes); err != nil {
		return apperr.Internal("count dishes", err)
	}
	if dishes > 0 {
		return apperr.Conflict("category still has dishes")
	}
	if _, err := r.db.Execute(ctx, `DELETE FROM categories WHERE id = ? AND tenant_id = ?`, id, tenantID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("category is still referenced")
		}
		return apperr.Internal("delete category", err)
	}
	return nil
}

// ListDishes returns the tenant's dishes with their modifiers, ordered by
// category then name.
func (r *Repository) ListDishes(ctx context.Context, tenantID int64) ([]*models.Dish, error) {
	dishes := make([]*models.Dish, 0)
	byID := make(map[int64]*models.Dish)
	err := r.db.FetchAll(ctx, `SELECT d.id, d.name, COALESCE(d.description, ''), d.price, d.prep_time_minutes,
			COALESCE(d.image_url, ''), d.category_id
		FROM dishes d JOIN categories c ON c.id = d.category_id
		WHERE c.tenant_id = ?
		ORDER BY c.name, d.name`, func(row database.Row) error {
		d := &models.Dish{}
		if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.PrepTimeMinutes, &d.ImageURL, &d.CategoryID); err != nil {
			return err
		}
		dishes = append(dishes, d)
		byID[d.ID] = d
		return nil
	}, tenantID)
	if err != nil {
		return nil, apperr.Internal("list dishes", err)
	}

	err = r.db.FetchAll(ctx, `SELECT m.id, m.name, m.extra_price, m.dish_id
		FROM modifiers m
		JOIN dishes d ON d.id = m.dish_id
		JOIN categories c ON c.id = d.category_id
		WHERE c.tenant_id = ?
		ORDER BY m.id`, func(row database.Row) error {
		m := &models.Modifier{}
		if err := row.Scan(&m.ID, &m.Name, &m.ExtraPrice, &m.DishID); err != nil {
			return err
		}
		if d, ok := byID[m.DishID]; ok {
			d.Modifiers = append(d.Modifiers, m)
		}
		return nil
	}, tenantID)
	if err != nil {
		return nil, apperr.Internal("list modifiers", err)
	}
	return dishes, nil
}

func validateDish(in *DishInput) error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return apperr.BadRequest("dish name is required")
	case in.CategoryID <= 0:
		return apperr.BadRequest("categoryId is required")
	case in.Price < 0:
		return apperr.BadRequest("price must not be negative")
	case in.PrepTimeMinutes < 0:
		return apperr.BadRequest("prepTimeMinutes must not be negative")
	}
	if in.PrepTimeMinutes == 0 {
		in.PrepTimeMinutes = DefaultPrepTimeMinutes
	}
	return nil
}

// CreateDish adds a dish to one of the tenant's categories.
func (r *Repository) CreateDish(ctx context.Context, tenantID int64, in DishInput) (*models.Dish, error) {
	if err := validateDish(&in); err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, r.db, categoryOwnerQuery, in.CategoryID, tenantID, "category"); err != nil {
		return nil, err
	}
	res, err := r.db.Execute(ctx, `INSERT INTO dishes (name, description, price, prep_time_minutes, image_url, category_id)
		VALUES (?, ?, ?, ?, ?, ?)`, in.Name, in.Description, in.Price, in.PrepTimeMinutes, in.ImageURL, in.CategoryID)
	if err != nil {
		return nil, apperr.Internal("create dish", err)
	}
	return &models.Dish{
		ID:              res.InsertedID,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		PrepTimeMinutes: in.PrepTimeMinutes,
		ImageURL:        in.ImageURL,
		CategoryID:      in.CategoryID,
	}, nil
}

// UpdateDish replaces a dish's fields. Both the dish and its target category
// must belong to the tenant.
func (r *Repository) UpdateDish(ctx context.Context, tenantID, id int64, in DishInput) (*models.Dish, error) {
	if err := validateDish(&in); err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, r.db, dishOwnerQuery, id, tenantID, "dish"); err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, r.db, categoryOwnerQuery, in.CategoryID, tenantID, "category"); err != nil {
		return nil, err
	}
	_, err := r.db.Execute(ctx, `UPDATE dishes SET name = ?, description = ?, price = ?, prep_time_minutes = ?,
		image_url = ?, category_id = ? WHERE id = ?`,
		in.Name, in.Description, in.Price, in.PrepTimeMinutes, in.ImageURL, in.CategoryID, id)
	if err != nil {
		return nil, apperr.Internal("update dish", err)
	}
	return &models.Dish{
		ID:              id,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		PrepTimeMinutes: in.PrepTimeMinutes,
		ImageURL:        in.ImageURL,
		CategoryID:      in.CategoryID,
	}, nil
}

// DeleteDish removes a dish and its modifiers. Dishes that appear on orders
// are kept.
func (r *Repository) DeleteDish(ctx context.Context, tenantID, id int64) error {
	if err := checkOwner(ctx, r.db, dishOwnerQuery, id, tenantID, "dish"); err != nil {
		return err
	}
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		if _, err := q.Execute(ctx, `DELETE FROM modifiers WHERE dish_id = ?`, id); err != nil {
			return err
		}
		_, err := q.Execute(ctx, `DELETE FROM dishes WHERE id = ?`, id)
		return err
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("dish is referenced by orders")
		}
		return apperr.Internal("delete dish", err)
	}
	return nil
}

// CreateModifier adds a modifier to one of the tenant's dishes.
func (r *Repository) CreateModifier(ctx context.Context, tenantID int64, in ModifierInput) (*models.Modifier, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return nil, apperr.BadRequest("modifier name is required")
	case in.DishID <= 0:
		return nil, apperr.BadRequest("dishId is required")
	case in.ExtraPrice < 0:
		return nil, apperr.BadRequest("extraPrice must not be negative")
	}
	if err := checkOwner(ctx, r.db, dishOwnerQuery, in.DishID, tenantID, "dish"); err != nil {
		return nil, err
	}
	res, err := r.db.Execute(ctx, `INSERT INTO modifiers (name, extra_price, dish_id) VALUES (?, ?, ?)`,
		in.Name, in.ExtraPrice, in.DishID)
	if err != nil {
		return nil, apperr.Internal("create modifier", err)
	}
	return &models.Modifier{ID: res.InsertedID, Name: in.Name, ExtraPrice: in.ExtraPrice, DishID: in.DishID}, nil
}

// DeleteModifier removes a modifier that no order line uses.
func (r *Repository) DeleteModifier(ctx context.Context, tenantID, id int64) error {
	if err := checkOwner(ctx, r.db, modifierOwnerQuery, id, tenantID, "modifier"); err != nil {
		return err
	}
	if _, err := r.db.Execute(ctx, `DELETE FROM modifiers WHERE id = ?`, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("modifier is referenced by orders")
		}
		return apperr.Internal("delete modifier", err)
	}
	return nil
}
