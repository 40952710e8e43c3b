package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/procwise/flowschema/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// --- Runs ---

func (s *LibSQLStore) CreateRun(ctx context.Context, run *Run) error {
	run.StartedAt = timeOrNow(run.StartedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at, record_count, failed_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.StartedAt, run.RecordCount, run.FailedCount,
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "create run %q: %v", run.ID, err)
	}
	return nil
}

func (s *LibSQLStore) FinishRun(ctx context.Context, id string, recordCount, failedCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET completed_at = CURRENT_TIMESTAMP, record_count = ?, failed_count = ? WHERE id = ?`,
		recordCount, failedCount, id,
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "finish run %q: %v", id, err)
	}
	return checkRowsAffected(res, "run", id)
}

func (s *LibSQLStore) GetRun(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	var completed sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, completed_at, record_count, failed_count FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Source, &r.StartedAt, &completed, &r.RecordCount, &r.FailedCount)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("run", id)
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "get run %q: %v", id, err)
	}
	if completed.Valid {
		r.CompletedAt = &completed.Time
	}
	return r, nil
}

func (s *LibSQLStore) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, completed_at, record_count, failed_count FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "list runs: %v", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.Source, &r.StartedAt, &completed, &r.RecordCount, &r.FailedCount); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeStore, "scan run: %v", err)
		}
		if completed.Valid {
			r.CompletedAt = &completed.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- Extractions ---

func (s *LibSQLStore) SaveExtraction(ctx context.Context, ext *Extraction) error {
	ext.CreatedAt = timeOrNow(ext.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (run_id, file_index, document, action_count, gateway_count, state_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, file_index) DO UPDATE SET
		   document=excluded.document, action_count=excluded.action_count,
		   gateway_count=excluded.gateway_count, state_count=excluded.state_count`,
		ext.RunID, ext.FileIndex, string(ext.Document), ext.ActionCount, ext.GatewayCount, ext.StateCount, ext.CreatedAt,
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "save extraction %q/%d: %v", ext.RunID, ext.FileIndex, err)
	}
	return nil
}

func (s *LibSQLStore) GetExtraction(ctx context.Context, runID string, fileIndex int) (*Extraction, error) {
	e := &Extraction{}
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, file_index, document, action_count, gateway_count, state_count, created_at
		 FROM extractions WHERE run_id = ? AND file_index = ?`, runID, fileIndex,
	).Scan(&e.RunID, &e.FileIndex, &doc, &e.ActionCount, &e.GatewayCount, &e.StateCount, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("extraction", fmt.Sprintf("%s/%d", runID, fileIndex))
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "get extraction %q/%d: %v", runID, fileIndex, err)
	}
	e.Document = []byte(doc)
	return e, nil
}

func (s *LibSQLStore) ListExtractions(ctx context.Context, runID string) ([]*Extraction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, file_index, document, action_count, gateway_count, state_count, created_at
		 FROM extractions WHERE run_id = ? ORDER BY file_index`, runID,
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore, "list extractions: %v", err)
	}
	defer rows.Close()

	var exts []*Extraction
	for rows.Next() {
		e := &Extraction{}
		var doc string
		if err := rows.Scan(&e.RunID, &e.FileIndex, &doc, &e.ActionCount, &e.GatewayCount, &e.StateCount, &e.CreatedAt); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeStore, "scan extraction: %v", err)
		}
		e.Document = []byte(doc)
		exts = append(exts, e)
	}
	return exts, rows.Err()
}

// --- helpers ---

func storeNotFound(resource, id string) *schema.SchemaError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
