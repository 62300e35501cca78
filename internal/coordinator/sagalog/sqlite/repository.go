// Package sqlite stores the workflow log in a SQLite file.
//
// WAL mode is enabled on Open so readers of the log never block the
// payment workflow writing to it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ioproxxy/mosolarweb/internal/coordinator/sagalog"

	// Pure-Go driver, registered as "sqlite". No CGO needed.
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by GetLatest for an unknown saga id.
var ErrNotFound = errors.New("sqlite: saga not found")

// The table is append-only; the newest row per saga_id is its state.
const schema = `
CREATE TABLE IF NOT EXISTS saga_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    saga_id         TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    current_step    TEXT        NOT NULL DEFAULT '',
    -- written on STARTED only
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_logs_saga_id ON saga_logs(saga_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_saga_logs_trace_id ON saga_logs(trace_id);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

type Repository struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/workflow.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, entry *sagalog.Entry) error {
	const q = `
		INSERT INTO saga_logs
			(saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.SagaID,
		string(entry.Status),
		entry.CurrentStep,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save saga log for %q: %w", entry.SagaID, err)
	}
	return nil
}

const selectColumns = `
		SELECT saga_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   saga_logs`

// GetLatest returns the newest entry of a saga.
func (r *Repository) GetLatest(ctx context.Context, sagaID string) (*sagalog.Entry, error) {
	const q = selectColumns + `
		WHERE  saga_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, q, sagaID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, sagaID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", sagaID, err)
	}
	return entry, nil
}

// History returns every entry of a saga, oldest first.
func (r *Repository) History(ctx context.Context, sagaID string) ([]sagalog.Entry, error) {
	const q = selectColumns + `
		WHERE  saga_id = ?
		ORDER  BY updated_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, sagaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", sagaID, err)
	}
	defer rows.Close()

	var out []sagalog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: history for %q: %w", sagaID, err)
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

// SagasByPrefix lists distinct saga ids starting with prefix, newest first.
func (r *Repository) SagasByPrefix(ctx context.Context, prefix string) ([]string, error) {
	const q = `
		SELECT saga_id FROM saga_logs
		WHERE  saga_id LIKE ? ESCAPE '\'
		GROUP  BY saga_id
		ORDER  BY MAX(id) DESC`

	rows, err := r.db.QueryContext(ctx, q, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sagas %q: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*sagalog.Entry, error) {
	var entry sagalog.Entry
	var updatedAt string
	err := s.Scan(
		&entry.SagaID,
		&entry.Status,
		&entry.CurrentStep,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// nullableString stores NULL instead of an empty payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
