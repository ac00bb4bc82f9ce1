package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var returningIDRe = regexp.MustCompile(`(?i)\s+RETURNING\s+id\s*;?\s*$`)

// sqlQuerier is satisfied by *sql.DB and *sql.Tx.
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLite is the SQLite backend built on database/sql.
type SQLite struct {
	sqlQueries
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens the SQLite database at path (":memory:" for a private
// in-memory database) with foreign keys enforced.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	logger.Info("database connected", zap.String("backend", BackendSQLite), zap.String("path", path))
	return &SQLite{sqlQueries: sqlQueries{q: db}, db: db, logger: logger}, nil
}

// Backend returns BackendSQLite.
func (s *SQLite) Backend() string { return BackendSQLite }

// Close closes the database.
func (s *SQLite) Close() { _ = s.db.Close() }

// ApplySchema runs the SQLite DDL and adds any missing columns.
func (s *SQLite) ApplySchema(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema/sqlite.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
		return storeErr("apply schema", err)
	}
	for _, m := range columnMigrations {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, m.table, m.column).Scan(&n)
		if err != nil {
			return storeErr("inspect "+m.table, err)
		}
		if n > 0 {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.sqliteType)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storeErr("migrate "+m.table+"."+m.column, err)
		}
		s.logger.Info("column added", zap.String("table", m.table), zap.String("column", m.column))
	}
	return nil
}

// WithTx runs fn inside a database/sql transaction.
func (s *SQLite) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(sqlQueries{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// sqlQueries implements Querier over a *sql.DB or *sql.Tx.
type sqlQueries struct {
	q sqlQuerier
}

func (s sqlQueries) FetchAll(ctx context.Context, query string, scan func(Row) error, args ...any) error {
	rows, err := s.q.QueryContext(ctx, query, args...)
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

func (s sqlQueries) FetchOne(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: s.q.QueryRowContext(ctx, query, args...)}
}

func (s sqlQueries) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	query = returningIDRe.ReplaceAllString(query, "")
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, storeErr("execute", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, storeErr("rows affected", err)
	}
	out := Result{Affected: affected}
	if isInsert(query) && affected > 0 {
		if out.InsertedID, err = res.LastInsertId(); err != nil {
			return Result{}, storeErr("last insert id", err)
		}
	}
	return out, nil
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return storeErr("fetch one", err)
}
