// Package database is the persistence gateway: one query contract over a
// PostgreSQL (pgx) or SQLite backend. Call sites always write `?` placeholders;
// each backend translates them and synthesizes inserted ids as its engine needs.
package database

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// ErrNoRows is returned by Row.Scan from FetchOne when the query matched nothing.
var ErrNoRows = errors.New("database: no rows in result set")

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Result reports the outcome of Execute.
type Result struct {
	InsertedID int64
	Affected   int64
}

// Querier is the query surface shared by the gateway and a transaction.
type Querier interface {
	// FetchAll runs query and calls scan once per row. scan must not issue
	// queries of its own: the SQLite backend holds a single connection.
	FetchAll(ctx context.Context, query string, scan func(Row) error, args ...any) error
	// FetchOne runs query; Scan on the returned row yields ErrNoRows when empty.
	FetchOne(ctx context.Context, query string, args ...any) Row
	// Execute runs an INSERT/UPDATE/DELETE. For INSERT the new id is reported.
	Execute(ctx context.Context, query string, args ...any) (Result, error)
}

// Gateway is a Querier bound to a connection pool.
type Gateway interface {
	Querier
	// ApplySchema creates missing tables and columns. Safe to run repeatedly.
	ApplySchema(ctx context.Context) error
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back on error or panic.
	WithTx(ctx context.Context, fn func(q Querier) error) error
	Backend() string
	Close()
}

// Open connects to the backend selected by dsn: postgres:// or postgresql://
// URLs use PostgreSQL, anything else is treated as a SQLite path.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (Gateway, error) {
	if IsPostgresDSN(dsn) {
		return NewPostgres(ctx, dsn, logger)
	}
	return NewSQLite(ctx, dsn, logger)
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func isInsert(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= 6 && strings.EqualFold(q[:6], "INSERT")
}
