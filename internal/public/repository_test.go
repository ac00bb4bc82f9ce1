package public

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database/dbtest"
)

func TestMenuIsNested(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	tenant := dbtest.Tenant(t, db, "Demo", "demo")
	drinks := dbtest.Category(t, db, tenant, "Drinks")
	mains := dbtest.Category(t, db, tenant, "Mains")
	dbtest.Category(t, db, tenant, "Specials")
	soda := dbtest.Dish(t, db, drinks, "Soda", 25, 2)
	dbtest.Dish(t, db, mains, "Burger", 80, 20)
	dbtest.Modifier(t, db, soda, "Lemon", 0)
	dbtest.Modifier(t, db, soda, "Ice", 0)

	other := dbtest.Tenant(t, db, "Other", "other")
	dbtest.Dish(t, db, dbtest.Category(t, db, other, "Drinks"), "Cola", 20, 2)

	menu, err := repo.Menu(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, menu, 3)

	assert.Equal(t, "Drinks", menu[0].Name)
	require.Len(t, menu[0].Dishes, 1)
	assert.Equal(t, "Soda", menu[0].Dishes[0].Name)
	require.Len(t, menu[0].Dishes[0].Modifiers, 2)
	assert.Equal(t, "Ice", menu[0].Dishes[0].Modifiers[0].Name)

	assert.Equal(t, "Burger", menu[1].Dishes[0].Name)
	assert.Empty(t, menu[1].Dishes[0].Modifiers)
	assert.NotNil(t, menu[2].Dishes)
	assert.Empty(t, menu[2].Dishes)
}

func TestMenuEmptyIsNotFound(t *testing.T) {
	db := dbtest.New(t)
	_, err := NewRepository(db).Menu(context.Background(), dbtest.Tenant(t, db, "Empty", "empty"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestConfigBySlug(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	id := dbtest.Tenant(t, db, "Demo", "demo")

	cfg, err := repo.ConfigBySlug(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, id, cfg.ID)
	assert.Equal(t, "Demo", cfg.Name)

	_, err = repo.ConfigBySlug(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
