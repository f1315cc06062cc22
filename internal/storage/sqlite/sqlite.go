// Package sqlite stores records in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FranksOps/leadscout/internal/storage"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS executives (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	email TEXT,
	linkedin TEXT,
	confidence REAL NOT NULL,
	source_url TEXT,
	source_title TEXT,
	extraction_method TEXT,
	industry TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS executives_company ON executives (company COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS executives_run ON executives (run_id);
`

const columns = `id, run_id, name, title, company, email, linkedin, confidence, source_url, source_title, extraction_method, industry, created_at`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, r *storage.Record) error {
	e := r.Executive
	query := `INSERT INTO executives (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := b.db.ExecContext(ctx, query,
		r.ID,
		r.RunID,
		e.Name,
		e.Title,
		e.Company,
		e.Email,
		e.LinkedIn,
		e.Confidence,
		e.SourceURL,
		e.SourceTitle,
		e.Method,
		e.Industry,
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT ` + columns + ` FROM executives WHERE 1=1`
	args := []any{}

	if filter.Company != "" {
		query += ` AND company = ? COLLATE NOCASE`
		args = append(args, filter.Company)
	}
	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UnixNano())
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		var email, linkedin, sourceURL, sourceTitle, method, industry sql.NullString
		var createdAt int64

		err := rows.Scan(
			&r.ID, &r.RunID, &r.Executive.Name, &r.Executive.Title, &r.Executive.Company,
			&email, &linkedin, &r.Executive.Confidence, &sourceURL, &sourceTitle,
			&method, &industry, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		r.Executive.Email = email.String
		r.Executive.LinkedIn = linkedin.String
		r.Executive.SourceURL = sourceURL.String
		r.Executive.SourceTitle = sourceTitle.String
		r.Executive.Method = method.String
		r.Executive.Industry = industry.String
		r.CreatedAt = time.Unix(0, createdAt).UTC()

		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
