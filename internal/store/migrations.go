package store

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"github.com/procwise/flowschema/pkg/schema"
)

//go:embed migrations/001_initial_schema.sql
var initialSchemaSQL string

type schemaVersion struct {
	version int
	name    string
	script  string
}

// schemaVersions lists every migration in order. Append new entries with the
// next version number; never edit or reorder released ones.
var schemaVersions = []schemaVersion{
	{1, "initial_schema", initialSchemaSQL},
}

// runMigrations brings the database up to the newest schema version. Applied
// versions are recorded in schema_version, so reruns are no-ops.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "create schema_version: %v", err)
	}

	var current int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_version`,
	).Scan(&current); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "read schema_version: %v", err)
	}

	for _, sv := range schemaVersions {
		if sv.version <= current {
			continue
		}
		if err := applyVersion(ctx, db, sv); err != nil {
			return err
		}
	}
	return nil
}

// applyVersion runs one migration script in a transaction and records it in
// schema_version within the same transaction.
func applyVersion(ctx context.Context, db *sql.DB, sv schemaVersion) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "begin migration %d: %v", sv.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range sqlStatements(sv.script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return schema.NewErrorf(schema.ErrCodeStore, "migration %d (%s): %v", sv.version, sv.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, name) VALUES (?, ?)`, sv.version, sv.name,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "record migration %d: %v", sv.version, err)
	}
	if err := tx.Commit(); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "commit migration %d: %v", sv.version, err)
	}
	return nil
}

// sqlStatements splits a migration script into executable statements with a
// line scan. Scripts use line comments only and no string literal in the
// schema contains a semicolon, so a trailing ';' always ends a statement.
func sqlStatements(script string) []string {
	var stmts []string
	var buf strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		buf.WriteString(line)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(buf.String())
			stmts = append(stmts, strings.TrimSuffix(stmt, ";"))
			buf.Reset()
			continue
		}
		buf.WriteString("\n")
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
