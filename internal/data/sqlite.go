package data

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "nordvpn-uninstall/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS steps (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  INTEGER NOT NULL REFERENCES runs(id),
	name    TEXT NOT NULL,
	outcome TEXT NOT NULL,
	detail  TEXT NOT NULL DEFAULT ''
);`

// SQLiteRepository persists run history in a SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLiteRepository opens (and creates if needed) the journal database at path.
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, dbError("data.open", "failed to create journal directory", err, apperrors.Metadata{
			"path": path,
		})
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dbError("data.open", "failed to open journal database", err, apperrors.Metadata{
			"path": path,
		})
	}

	return NewSQLiteRepository(db), nil
}

// NewSQLiteRepository wires a SQLite-backed implementation of Repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Bootstrap creates the journal schema.
func (r *SQLiteRepository) Bootstrap(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return dbError("data.bootstrap", "failed to create journal schema", err, nil)
	}
	return nil
}

// RecordRun stores a run and its step outcomes in a single transaction.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run RunRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("data.recordRun", "failed to begin journal transaction", err, nil)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO runs (started_at, finished_at) VALUES (?, ?)",
		run.StartedAt.Format(time.RFC3339Nano),
		run.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return dbError("data.recordRun", "failed to insert run", err, nil)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return dbError("data.recordRun", "failed to resolve run id", err, nil)
	}

	for _, step := range run.Steps {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO steps (run_id, name, outcome, detail) VALUES (?, ?, ?, ?)",
			runID, step.Name, step.Outcome, step.Detail,
		); err != nil {
			return dbError("data.recordRun", "failed to insert step outcome", err, apperrors.Metadata{
				"step": step.Name,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError("data.recordRun", "failed to commit journal transaction", err, nil)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

var _ Repository = (*SQLiteRepository)(nil)

func dbError(operation, message string, err error, metadata apperrors.Metadata) *apperrors.AppError {
	return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, message, err).
		WithModule("data").
		WithOperation(operation).
		WithFields(metadata)
}
