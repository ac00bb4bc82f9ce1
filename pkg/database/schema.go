package database

import "embed"

//go:embed schema/*.sql
var schemaFS embed.FS

// columnMigration adds a column to databases created before it existed.
type columnMigration struct {
	table      string
	column     string
	pgType     string
	sqliteType string
}

var columnMigrations = []columnMigration{
	{table: "tenants", column: "slug", pgType: "TEXT", sqliteType: "TEXT"},
	{table: "tenants", column: "plan_active_until", pgType: "TEXT NOT NULL DEFAULT '1970-01-01'", sqliteType: "TEXT NOT NULL DEFAULT '1970-01-01'"},
	{table: "dishes", column: "image_url", pgType: "TEXT", sqliteType: "TEXT"},
	{table: "dishes", column: "prep_time_minutes", pgType: "INTEGER NOT NULL DEFAULT 15", sqliteType: "INTEGER NOT NULL DEFAULT 15"},
	{table: "orders", column: "estimated_ready_at", pgType: "BIGINT NOT NULL DEFAULT 0", sqliteType: "INTEGER NOT NULL DEFAULT 0"},
}
