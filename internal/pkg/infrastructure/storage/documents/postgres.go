package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/railstats/admin-console/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("admin-console/storage/documents")

const (
	TraceAttributeCollection string = "collection"
	TraceAttributeDocumentID string = "document-id"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store that keeps every collection in a single
// jsonb table of the connected database.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var err error

	ctx, span := s.startSpan(ctx, "get-document", collection, id)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var raw []byte
	err = s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE collection=$1 AND id=$2`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = apperrors.NewNotFoundError("no document " + id + " in " + collection)
		}
		return Document{}, err
	}

	doc := Document{ID: id}
	err = json.Unmarshal(raw, &doc.Data)

	return doc, err
}

func (s *postgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if !validCollection(collection) {
		return "", apperrors.NewBadRequestError("invalid collection name " + collection)
	}

	id := uuid.NewString()

	err := s.Set(ctx, collection, id, data)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *postgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	var err error

	ctx, span := s.startSpan(ctx, "set-document", collection, id)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if !validCollection(collection) || id == "" {
		err = apperrors.NewBadRequestError("invalid document reference")
		return err
	}

	b, err := marshalData(data)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data=EXCLUDED.data`,
		collection, id, b,
	)

	return err
}

func (s *postgresStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	var err error

	ctx, span := s.startSpan(ctx, "update-document", collection, id)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	b, err := marshalData(data)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE documents SET data = data || $3::jsonb WHERE collection=$1 AND id=$2`, collection, id, b)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		err = apperrors.NewNotFoundError("no document " + id + " in " + collection)
	}

	return err
}

func (s *postgresStore) Delete(ctx context.Context, collection, id string) error {
	var err error

	ctx, span := s.startSpan(ctx, "delete-document", collection, id)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		err = apperrors.NewNotFoundError("no document " + id + " in " + collection)
	}

	return err
}

func (s *postgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	var err error

	ctx, span := s.startSpan(ctx, "query-documents", collection, q.StartAfter)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if q.StartAfter != "" {
		var exists bool
		err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE collection=$1 AND id=$2)`, collection, q.StartAfter).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if !exists {
			err = apperrors.NewBadRequestError("cursor " + q.StartAfter + " is not part of the result")
			return nil, err
		}
	}

	sql, args, err := buildQuery(collection, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Document{}

	for rows.Next() {
		var id string
		var raw []byte

		err = rows.Scan(&id, &raw)
		if err != nil {
			return nil, err
		}

		doc := Document{ID: id}
		if err = json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, err
		}

		result = append(result, doc)
	}

	err = rows.Err()

	return result, err
}

func (s *postgresStore) Count(ctx context.Context, collection string) (int, error) {
	var err error

	ctx, span := s.startSpan(ctx, "count-documents", collection, "")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var count int
	err = s.pool.QueryRow(ctx, `SELECT count(*) FROM documents WHERE collection=$1`, collection).Scan(&count)

	return count, err
}

func (s *postgresStore) startSpan(ctx context.Context, name, collection, id string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String(TraceAttributeCollection, collection),
		attribute.String(TraceAttributeDocumentID, id),
	))
}

func buildQuery(collection string, q Query) (string, []any, error) {
	args := []any{collection}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"collection=$1"}

	for _, f := range q.Where {
		b, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, apperrors.NewBadRequestError("unsupported filter value for " + f.Field)
		}
		conditions = append(conditions, fmt.Sprintf("data->%s = %s::jsonb", arg(f.Field), arg(string(b))))
	}

	direction, cmp := "ASC", ">"
	if q.Descending {
		direction, cmp = "DESC", "<"
	}

	orderBy := "id " + direction

	if q.OrderBy != "" {
		field := arg(q.OrderBy)
		conditions = append(conditions, fmt.Sprintf("data ? %s", field))
		orderBy = fmt.Sprintf("data->%s %s, id %s", field, direction, direction)

		if q.StartAfter != "" {
			cursor := arg(q.StartAfter)
			conditions = append(conditions, fmt.Sprintf(
				"(data->%s, id) %s (SELECT data->%s, id FROM documents WHERE collection=$1 AND id=%s)",
				field, cmp, field, cursor,
			))
		}
	} else if q.StartAfter != "" {
		conditions = append(conditions, fmt.Sprintf("id %s %s", cmp, arg(q.StartAfter)))
	}

	sql := "SELECT id, data FROM documents WHERE " + strings.Join(conditions, " AND ") + " ORDER BY " + orderBy

	if q.Limit > 0 {
		sql += " LIMIT " + arg(q.Limit)
	}

	return sql, args, nil
}

func marshalData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}

	b, err := json.Marshal(data)
	if err != nil {
		return "", apperrors.NewBadRequestError("document data could not be encoded as json")
	}

	return string(b), nil
}
