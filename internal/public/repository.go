// Package public serves the unauthenticated menu and tenant lookup used by
// table-side devices.
package public

import (
	"context"
	"errors"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database"
)

// Repository reads the public catalog.
type Repository struct {
	db database.Querier
}

// NewRepository creates a public catalog repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// Menu returns the tenant's categories with their dishes and each dish's
// modifiers. It runs one query per level and regroups in memory.
// Returns NotFound when the tenant has no categories.
func (r *Repository) Menu(ctx context.Context, tenantID int64) ([]*models.Category, error) {
	categories := make([]*models.Category, 0)
	byCategory := make(map[int64]*models.Category)
	err := r.db.FetchAll(ctx, `SELECT id, name, tenant_id FROM categories WHERE tenant_id = ? ORDER BY name`,
		func(row database.Row) error {
			c := &models.Category{Dishes: make([]*models.Dish, 0)}
			if err := row.Scan(&c.ID, &c.Name, &c.TenantID); err != nil {
				return err
			}
			categories = append(categories, c)
			byCategory[c.ID] = c
			return nil
		}, tenantID)
	if err != nil {
		return nil, apperr.Internal("menu categories", err)
	}
	if len(categories) == 0 {
		return nil, apperr.NotFound("menu not found or empty")
	}

	byDish := make(map[int64]*models.Dish)
	err = r.db.FetchAll(ctx, `SELECT d.id, d.name, COALESCE(d.description, ''), d.price, d.prep_time_minutes,
			COALESCE(d.image_url, ''), d.category_id
		FROM dishes d JOIN categories c ON c.id = d.category_id
		WHERE c.tenant_id = ?
		ORDER BY d.name`, func(row database.Row) error {
		d := &models.Dish{Modifiers: make([]*models.Modifier, 0)}
		if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.PrepTimeMinutes, &d.ImageURL, &d.CategoryID); err != nil {
			return err
		}
		byDish[d.ID] = d
		if c, ok := byCategory[d.CategoryID]; ok {
			c.Dishes = append(c.Dishes, d)
		}
		return nil
	}, tenantID)
	if err != nil {
		return nil, apperr.Internal("menu dishes", err)
	}

	err = r.db.FetchAll(ctx, `SELECT m.id, m.name, m.extra_price, m.dish_id
		FROM modifiers m
		JOIN dishes d ON d.id = m.dish_id
		JOIN categories c ON c.id = d.category_id
		WHERE c.tenant_id = ?
		ORDER BY m.name`, func(row database.Row) error {
		m := &models.Modifier{}
		if err := row.Scan(&m.ID, &m.Name, &m.ExtraPrice, &m.DishID); err != nil {
			return err
		}
		if d, ok := byDish[m.DishID]; ok {
			d.Modifiers = append(d.Modifiers, m)
		}
		return nil
	}, tenantID)
	if err != nil {
		return nil, apperr.Internal("menu modifiers", err)
	}
	return categories, nil
}

// ConfigBySlug resolves a tenant slug to its public config.
func (r *Repository) ConfigBySlug(ctx context.Context, slug string) (*models.TenantConfig, error) {
	var cfg models.TenantConfig
	err := r.db.FetchOne(ctx, `SELECT id, name, slug FROM tenants WHERE slug = ?`, slug).
		Scan(&cfg.ID, &cfg.Name, &cfg.Slug)
	if errors.Is(err, database.ErrNoRows) {
		return nil, apperr.NotFound("restaurant not found")
	}
	if err != nil {
		return nil, apperr.Internal("tenant config", err)
	}
	return &cfg, nil
}
