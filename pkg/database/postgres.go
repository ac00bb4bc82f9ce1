package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var returningRe = regexp.MustCompile(`(?i)\bRETURNING\b`)

// pgxQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres is the PostgreSQL backend built on a pgx connection pool.
type Postgres struct {
	pgQueries
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres creates a pgx connection pool for PostgreSQL.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", zap.String("backend", BackendPostgres))
	return &Postgres{pgQueries: pgQueries{q: pool}, pool: pool, logger: logger}, nil
}

// Backend returns BackendPostgres.
func (p *Postgres) Backend() string { return BackendPostgres }

// Close closes the pool.
func (p *Postgres) Close() { p.pool.Close() }

// ApplySchema runs the PostgreSQL DDL and additive column migrations.
func (p *Postgres) ApplySchema(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := p.pool.Exec(ctx, string(ddl)); err != nil {
		return storeErr("apply schema", err)
	}
	for _, m := range columnMigrations {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", m.table, m.column, m.pgType)
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return storeErr("migrate "+m.table+"."+m.column, err)
		}
	}
	return nil
}

// WithTx runs fn inside a pgx transaction.
func (p *Postgres) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(pgQueries{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// pgQueries implements Querier over a pool or a transaction.
type pgQueries struct {
	q pgxQuerier
}

func (p pgQueries) FetchAll(ctx context.Context, query string, scan func(Row) error, args ...any) error {
	rows, err := p.q.Query(ctx, rebind(query), args...)
	if err != nil {
		return storeErr("fetch all", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return storeErr("scan", err)
		}
	}
	return storeErr("fetch all", rows.Err())
}

func (p pgQueries) FetchOne(ctx context.Context, query string, args ...any) Row {
	return pgRow{row: p.q.QueryRow(ctx, rebind(query), args...)}
}

func (p pgQueries) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	sql := rebind(query)
	if isInsert(sql) {
		if !returningRe.MatchString(sql) {
			sql += " RETURNING id"
		}
		var id int64
		err := p.q.QueryRow(ctx, sql, args...).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING
			return Result{}, nil
		}
		if err != nil {
			return Result{}, storeErr("execute", err)
		}
		return Result{InsertedID: id, Affected: 1}, nil
	}
	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return Result{}, storeErr("execute", err)
	}
	return Result{Affected: tag.RowsAffected()}, nil
}

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	return storeErr("fetch one", err)
}

// rebind rewrites `?` placeholders as $1..$n. Queries never carry a literal
// question mark.
func rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}
