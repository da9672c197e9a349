package docstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);`

// Postgres stores documents as JSONB rows keyed by (collection, id).
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the documents table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// GetDocument returns nil without an error when the document does not exist.
func (p *Postgres) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	const stmt = `SELECT fields FROM documents WHERE collection = $1 AND id = $2;`

	var raw []byte
	err := p.db.QueryRow(ctx, stmt, collection, id).Scan(&raw)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}

	d := &Document{ID: id}
	if err := json.Unmarshal(raw, &d.Fields); err != nil {
		return nil, fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err)
	}

	return d, nil
}

func (p *Postgres) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	const stmt = `
INSERT INTO documents (collection, id, fields, updated_at) VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields, updated_at = now();`

	raw, err := encode(fields)
	if err != nil {
		return err
	}

	if _, err := p.db.Exec(ctx, stmt, collection, id, raw); err != nil {
		return fmt.Errorf("docstore: set %s/%s: %w", collection, id, err)
	}

	return nil
}

// UpdateDocument merges fields into an existing document.
func (p *Postgres) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	const stmt = `
UPDATE documents SET fields = fields || $3::jsonb, updated_at = now()
WHERE collection = $1 AND id = $2;`

	raw, err := encode(fields)
	if err != nil {
		return err
	}

	tag, err := p.db.Exec(ctx, stmt, collection, id, raw)
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}

	return nil
}

// QueryDocuments matches filters with JSONB containment and orders by a top-level field.
func (p *Postgres) QueryDocuments(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter, err := encode(q.Filters)
	if err != nil {
		return nil, err
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}

	stmt := fmt.Sprintf(`
SELECT id, fields FROM documents
WHERE collection = $1 AND fields @> $2::jsonb
ORDER BY fields -> $3::text %s, id
LIMIT $4;`, dir)

	rows, err := p.db.Query(ctx, stmt, collection, filter, q.OrderBy, limit)
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", collection, err)
	}

	docs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Document, error) {
		var (
			d   Document
			raw []byte
		)
		if err := r.Scan(&d.ID, &raw); err != nil {
			return Document{}, err
		}
		if err := json.Unmarshal(raw, &d.Fields); err != nil {
			return Document{}, err
		}
		return d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", collection, err)
	}

	return docs, nil
}

func encode(fields map[string]any) (string, error) {
	if fields == nil {
		return "{}", nil
	}

	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("docstore: encode fields: %w", err)
	}

	return string(b), nil
}
