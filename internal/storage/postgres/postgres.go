// Package postgres stores records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/leadscout/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS executives (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	linkedin TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	source_title TEXT NOT NULL DEFAULT '',
	extraction_method TEXT NOT NULL DEFAULT '',
	industry TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS executives_company ON executives (lower(company));
CREATE INDEX IF NOT EXISTS executives_run ON executives (run_id);
`

const columns = `id, run_id, name, title, company, email, linkedin, confidence, source_url, source_title, extraction_method, industry, created_at`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, r *storage.Record) error {
	e := r.Executive
	query := `INSERT INTO executives (` + columns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := b.pool.Exec(ctx, query,
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
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT ` + columns + ` FROM executives WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Company != "" {
		query += fmt.Sprintf(` AND lower(company) = lower($%d)`, paramCount)
		args = append(args, filter.Company)
		paramCount++
	}
	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, paramCount)
		args = append(args, filter.RunID)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		e := &r.Executive
		err := rows.Scan(
			&r.ID, &r.RunID, &e.Name, &e.Title, &e.Company, &e.Email, &e.LinkedIn,
			&e.Confidence, &e.SourceURL, &e.SourceTitle, &e.Method, &e.Industry, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
