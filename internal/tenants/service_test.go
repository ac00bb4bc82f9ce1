package tenants_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/comanda-app/backend/internal/auth"
	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/internal/tenants"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database"
	"github.com/comanda-app/backend/pkg/database/dbtest"
	"github.com/comanda-app/backend/pkg/utils"
)

func newService(t *testing.T) (*tenants.Service, database.Gateway) {
	t.Helper()
	utils.HashCost = bcrypt.MinCost
	db := dbtest.New(t)
	return tenants.NewService(tenants.NewRepository(db)), db
}

func TestProvisionCreatesTenantCategoryAndOwner(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p, err := svc.Provision(ctx, tenants.ProvisionInput{Name: "La Cantina!", OwnerEmail: "Owner@Cantina.mx", OwnerPassword: "tacos123"})
	require.NoError(t, err)
	assert.Equal(t, "la-cantina", p.Slug)
	assert.Equal(t, "owner@cantina.mx", p.Credentials.Email)
	assert.Equal(t, "tacos123", p.Credentials.Password)

	var category string
	require.NoError(t, db.FetchOne(ctx, `SELECT name FROM categories WHERE tenant_id = ?`, p.TenantID).Scan(&category))
	assert.Equal(t, tenants.DefaultCategory, category)

	var plan string
	require.NoError(t, db.FetchOne(ctx, `SELECT plan_active_until FROM tenants WHERE id = ?`, p.TenantID).Scan(&plan))
	assert.Equal(t, tenants.DefaultPlanActiveUntil, plan)

	u, err := auth.NewRepository(db).GetByEmail(ctx, "owner@cantina.mx")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, u.Role)
	require.NotNil(t, u.TenantID)
	assert.Equal(t, p.TenantID, *u.TenantID)
	assert.Equal(t, "la-cantina", u.Slug)
	assert.True(t, utils.CheckPassword("tacos123", u.Password))
}

func TestProvisionDefaultsCredentials(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Provision(context.Background(), tenants.ProvisionInput{Name: "Taqueria", Slug: "taqueria"})
	require.NoError(t, err)
	assert.Equal(t, "admin@taqueria.com", p.Credentials.Email)
	assert.Len(t, p.Credentials.Password, 12)
}

func TestProvisionRejects(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, err := svc.Provision(ctx, tenants.ProvisionInput{Name: "  "})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.Provision(ctx, tenants.ProvisionInput{Name: "Bad", Slug: "no spaces"})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.Provision(ctx, tenants.ProvisionInput{Name: "Demo"})
	require.NoError(t, err)
	_, err = svc.Provision(ctx, tenants.ProvisionInput{Name: "Demo"})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	assert.Equal(t, 1, dbtest.Count(t, db, "tenants"))
	assert.Equal(t, 1, dbtest.Count(t, db, "categories"))
	assert.Equal(t, 1, dbtest.Count(t, db, "users"))
}

func TestRotateCredentials(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p, err := svc.Provision(ctx, tenants.ProvisionInput{Name: "Demo", OwnerPassword: "first-pass"})
	require.NoError(t, err)

	err = svc.RotateCredentials(ctx, p.TenantID, "", "")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	require.NoError(t, svc.RotateCredentials(ctx, p.TenantID, "", "second-pass"))
	u, err := auth.NewRepository(db).GetByEmail(ctx, p.Credentials.Email)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("second-pass", u.Password))

	require.NoError(t, svc.RotateCredentials(ctx, p.TenantID, "New@Demo.com", ""))
	u, err = auth.NewRepository(db).GetByEmail(ctx, "new@demo.com")
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("second-pass", u.Password))

	err = svc.RotateCredentials(ctx, 999, "x@y.z", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteRemovesEverything(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p, err := svc.Provision(ctx, tenants.ProvisionInput{Name: "Demo"})
	require.NoError(t, err)
	keep, err := svc.Provision(ctx, tenants.ProvisionInput{Name: "Keep"})
	require.NoError(t, err)

	cat := dbtest.Category(t, db, p.TenantID, "Drinks")
	dish := dbtest.Dish(t, db, cat, "Soda", 20, 2)
	mod := dbtest.Modifier(t, db, dish, "Ice", 0)
	table := dbtest.Table(t, db, p.TenantID, "T1")
	res, err := db.Execute(ctx, `INSERT INTO orders (state, created_at, estimated_ready_at, table_id, tenant_id, total)
		VALUES ('received', 0, 0, ?, ?, 20)`, table, p.TenantID)
	require.NoError(t, err)
	line, err := db.Execute(ctx, `INSERT INTO order_lines (order_id, dish_id, quantity) VALUES (?, ?, 1)`, res.InsertedID, dish)
	require.NoError(t, err)
	_, err = db.Execute(ctx, `INSERT INTO line_modifiers (order_line_id, modifier_id, note) VALUES (?, ?, '')`, line.InsertedID, mod)
	require.NoError(t, err)

	require.NoError(t, tenants.NewRepository(db).Delete(ctx, p.TenantID))

	for _, table := range []string{"orders", "order_lines", "line_modifiers", "modifiers", "dishes", "dining_tables"} {
		assert.Zero(t, dbtest.Count(t, db, table), table)
	}
	assert.Equal(t, 1, dbtest.Count(t, db, "tenants"))
	assert.Equal(t, 1, dbtest.Count(t, db, "categories"))
	assert.Equal(t, 1, dbtest.Count(t, db, "users"))

	list, total, err := tenants.NewRepository(db).List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, keep.TenantID, list[0].ID)
}

func TestUpdateUnknownTenant(t *testing.T) {
	_, db := newService(t)
	err := tenants.NewRepository(db).Update(context.Background(), &models.Tenant{ID: 42, Name: "X", Slug: "x-x", PlanActiveUntil: "2030-01-01"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
