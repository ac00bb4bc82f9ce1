// Package dbtest provides an in-memory SQLite gateway and seed helpers for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/pkg/database"
)

// New returns a migrated in-memory SQLite gateway closed at test cleanup.
func New(t *testing.T) database.Gateway {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.ApplySchema(ctx))
	return db
}

func insert(t *testing.T, db database.Querier, query string, args ...any) int64 {
	t.Helper()
	res, err := db.Execute(context.Background(), query, args...)
	require.NoError(t, err)
	return res.InsertedID
}

// Tenant inserts a tenant named name with slug slug.
func Tenant(t *testing.T, db database.Querier, name, slug string) int64 {
	t.Helper()
	return insert(t, db, `INSERT INTO tenants (name, slug) VALUES (?, ?)`, name, slug)
}

// Category inserts a category for tenantID.
func Category(t *testing.T, db database.Querier, tenantID int64, name string) int64 {
	t.Helper()
	return insert(t, db, `INSERT INTO categories (name, tenant_id) VALUES (?, ?)`, name, tenantID)
}

// Dish inserts a dish in categoryID.
func Dish(t *testing.T, db database.Querier, categoryID int64, name string, price float64, prepMinutes int) int64 {
	t.Helper()
	return insert(t, db, `INSERT INTO dishes (name, description, price, prep_time_minutes, category_id)
		VALUES (?, '', ?, ?, ?)`, name, price, prepMinutes, categoryID)
}

// Modifier inserts a modifier on dishID.
func Modifier(t *testing.T, db database.Querier, dishID int64, name string, extra float64) int64 {
	t.Helper()
	return insert(t, db, `INSERT INTO modifiers (name, extra_price, dish_id) VALUES (?, ?, ?)`, name, extra, dishID)
}

// Table inserts a dining table for tenantID.
func Table(t *testing.T, db database.Querier, tenantID int64, label string) int64 {
	t.Helper()
	return insert(t, db, `INSERT INTO dining_tables (label, tenant_id) VALUES (?, ?)`, label, tenantID)
}

// Count returns SELECT COUNT(*) FROM table.
func Count(t *testing.T, db database.Querier, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.FetchOne(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
