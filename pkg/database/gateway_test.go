package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := NewSQLite(ctx, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.ApplySchema(ctx))
	return db
}

func TestRebind(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                                 "SELECT 1",
		"SELECT * FROM t WHERE a = ? AND b = ?":    "SELECT * FROM t WHERE a = $1 AND b = $2",
		"UPDATE t SET s = ? WHERE id = ?":          "UPDATE t SET s = $1 WHERE id = $2",
		"INSERT INTO t (a, b, c) VALUES (?, ?, ?)": "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)",
	}
	for in, want := range cases {
		assert.Equal(t, want, rebind(in), in)
	}
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://localhost:5432/db"))
	assert.True(t, IsPostgresDSN("postgresql://u:p@h/db"))
	assert.False(t, IsPostgresDSN("restaurant.sqlite"))
	assert.False(t, IsPostgresDSN(":memory:"))
}

func TestSQLiteExecuteReportsInsertedID(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	res, err := db.Execute(ctx, `INSERT INTO tenants (name, slug) VALUES (?, ?) RETURNING id`, "Demo", "demo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
	assert.NotZero(t, res.InsertedID)

	var name string
	require.NoError(t, db.FetchOne(ctx, `SELECT name FROM tenants WHERE id = ?`, res.InsertedID).Scan(&name))
	assert.Equal(t, "Demo", name)
}

func TestFetchOneEmpty(t *testing.T) {
	db := newTestSQLite(t)
	var id int64
	err := db.FetchOne(context.Background(), `SELECT id FROM tenants WHERE slug = ?`, "nope").Scan(&id)
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestUniqueViolationIsClassified(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	_, err := db.Execute(ctx, `INSERT INTO tenants (name, slug) VALUES (?, ?)`, "Demo", "demo")
	require.NoError(t, err)
	_, err = db.Execute(ctx, `INSERT INTO tenants (name, slug) VALUES (?, ?)`, "Demo", "other")
	require.Error(t, err)

	var se *StoreError
	assert.True(t, errors.As(err, &se))
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := newTestSQLite(t)
	_, err := db.Execute(context.Background(), `INSERT INTO categories (name, tenant_id) VALUES (?, ?)`, "Drinks", 999)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(q Querier) error {
		if _, err := q.Execute(ctx, `INSERT INTO tenants (name, slug) VALUES (?, ?)`, "Demo", "demo"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.FetchOne(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&n))
	assert.Zero(t, n)
}

func TestWithTxCommits(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q Querier) error {
		_, err := q.Execute(ctx, `INSERT INTO tenants (name, slug) VALUES (?, ?)`, "Demo", "demo")
		return err
	})
	require.NoError(t, err)

	var names []string
	err = db.FetchAll(ctx, `SELECT name FROM tenants ORDER BY id`, func(r Row) error {
		var s string
		if err := r.Scan(&s); err != nil {
			return err
		}
		names = append(names, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo"}, names)
}

func TestApplySchemaIsIdempotent(t *testing.T) {
	db := newTestSQLite(t)
	require.NoError(t, db.ApplySchema(context.Background()))
	require.NoError(t, db.ApplySchema(context.Background()))
}
