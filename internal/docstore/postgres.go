package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/riyahid/travel-go/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores every collection in the single documents table
// (see migrations/00001_create_documents.sql), one JSONB body per row.
type Postgres struct {
	db db
	sb sq.StatementBuilderType
}

var _ Store = (*Postgres)(nil)

// NewPostgres constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgres(db db) *Postgres {
	return &Postgres{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (s *Postgres) NewID(_ context.Context, _ string) (string, error) {
	return uuid.NewString(), nil
}

// Query builds a SELECT with one predicate per filter. String comparisons use
// the C collation so ISO dates order lexically; numeric filters cast to
// numeric.
func (s *Postgres) Query(ctx context.Context, q Query) ([]Document, error) {
	b := s.sb.Select("id", "data").From("documents").Where(sq.Eq{"collection": q.Collection})

	for _, f := range q.Filters {
		pred, args, err := filterSQL(f)
		if err != nil {
			return nil, fmt.Errorf("docstore.Postgres.Query: %w", err)
		}
		b = b.Where(pred, args...)
	}
	for _, o := range q.OrderBy {
		if !validField(o.Field) {
			return nil, fmt.Errorf("docstore.Postgres.Query: invalid order field %q", o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		b = b.OrderBy(fmt.Sprintf("data->'%s' %s NULLS LAST", o.Field, dir))
	}
	b = b.OrderBy("id ASC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("docstore.Postgres.Query: build: %w", err)
	}

	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore.Postgres.Query: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore.Postgres.Query: scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore.Postgres.Query: rows: %w", err)
	}
	return docs, nil
}

func (s *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	const q = `
		SELECT id, data
		FROM documents
		WHERE collection = @collection AND id = @id`

	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"collection": collection, "id": id})
	d, err := scanDocument(row)
	if err != nil {
		return Document{}, fmt.Errorf("docstore.Postgres.Get: %w", err)
	}
	return d, nil
}

func (s *Postgres) Insert(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	const q = `
		INSERT INTO documents (collection, id, data)
		VALUES (@collection, @id, @data::jsonb)
		RETURNING id`

	if id == "" {
		id = uuid.NewString()
	}
	body, err := encodeBody(data)
	if err != nil {
		return "", fmt.Errorf("docstore.Postgres.Insert: %w", err)
	}

	args := pgx.NamedArgs{
		"collection": collection,
		"id":         id,
		"data":       body,
	}
	var out string
	if err := s.db.QueryRow(ctx, q, args).Scan(&out); err != nil {
		return "", fmt.Errorf("docstore.Postgres.Insert: %w", err)
	}
	return out, nil
}

// Update relies on the jsonb || operator, which replaces top-level keys and
// keeps every key absent from the patch.
func (s *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	const q = `
		UPDATE documents
		SET data       = data || @patch::jsonb,
		    updated_at = now()
		WHERE collection = @collection AND id = @id`

	patch, err := encodeBody(fields)
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Update: %w", err)
	}

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{
		"collection": collection,
		"id":         id,
		"patch":      patch,
	})
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("docstore.Postgres.Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = @collection AND id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"collection": collection, "id": id})
	if err != nil {
		return fmt.Errorf("docstore.Postgres.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("docstore.Postgres.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// filterSQL renders one filter as a squirrel predicate over the JSONB body.
func filterSQL(f Filter) (string, []any, error) {
	if !validField(f.Field) {
		return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
	}
	if !validOp(f.Op) {
		return "", nil, fmt.Errorf("invalid filter op %q", f.Op)
	}

	switch v := f.Value.(type) {
	case nil:
		if f.Op != Eq {
			return "", nil, fmt.Errorf("filter %q: null supports only equality", f.Field)
		}
		return fmt.Sprintf("(data->'%s' IS NULL OR data->'%s' = 'null'::jsonb)", f.Field, f.Field), nil, nil
	case string:
		return fmt.Sprintf(`data->>'%s' COLLATE "C" %s ?`, f.Field, f.Op), []any{v}, nil
	case bool:
		return fmt.Sprintf("(data->>'%s')::boolean %s ?", f.Field, f.Op), []any{v}, nil
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("(data->>'%s')::numeric %s ?", f.Field, f.Op), []any{v}, nil
	}
	return "", nil, fmt.Errorf("filter %q: unsupported value type %T", f.Field, f.Value)
}

func encodeBody(data map[string]any) (string, error) {
	body := make(map[string]any, len(data))
	for k, v := range data {
		if k == "id" {
			continue
		}
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanDocument to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var (
		d   Document
		raw []byte
	)
	if err := s.Scan(&d.ID, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, domain.ErrNotFound
		}
		return Document{}, err
	}
	d.Data = map[string]any{}
	if err := json.Unmarshal(raw, &d.Data); err != nil {
		return Document{}, fmt.Errorf("decode body: %w", err)
	}
	return d, nil
}
