package tables

import (
	"context"
	"errors"
	"strings"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database"
)

// Repository handles dining table persistence.
type Repository struct {
	db database.Querier
}

// NewRepository creates a tables repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// List returns the tenant's tables ordered by label.
func (r *Repository) List(ctx context.Context, tenantID int64) ([]models.Table, error) {
	list := make([]models.Table, 0)
	err := r.db.FetchAll(ctx, `SELECT id, label, tenant_id FROM dining_tables WHERE tenant_id = ? ORDER BY label`,
		func(row database.Row) error {
			var t models.Table
			if err := row.Scan(&t.ID, &t.Label, &t.TenantID); err != nil {
				return err
			}
			list = append(list, t)
			return nil
		}, tenantID)
	if err != nil {
		return nil, apperr.Internal("list tables", err)
	}
	return list, nil
}

// Create adds a table. Labels are unique per tenant.
func (r *Repository) Create(ctx context.Context, tenantID int64, label string) (*models.Table, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperr.BadRequest("table label is required")
	}
	res, err := r.db.Execute(ctx, `INSERT INTO dining_tables (label, tenant_id) VALUES (?, ?)`, label, tenantID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a table with this label already exists")
		}
		return nil, apperr.Internal("create table", err)
	}
	return &models.Table{ID: res.InsertedID, Label: label, TenantID: tenantID}, nil
}

// Delete removes one of the tenant's tables. Tables with orders are kept.
func (r *Repository) Delete(ctx context.Context, tenantID, id int64) error {
	var owner int64
	err := r.db.FetchOne(ctx, `SELECT tenant_id FROM dining_tables WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, database.ErrNoRows) || (err == nil && owner != tenantID) {
		return apperr.Forbidden("table does not belong to your restaurant")
	}
	if err != nil {
		return apperr.Internal("check table owner", err)
	}
	if _, err := r.db.Execute(ctx, `DELETE FROM dining_tables WHERE id = ? AND tenant_id = ?`, id, tenantID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("table has orders")
		}
		return apperr.Internal("delete table", err)
	}
	return nil
}
