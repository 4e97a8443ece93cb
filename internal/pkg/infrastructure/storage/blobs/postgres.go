package blobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/railstats/admin-console/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("admin-console/storage/blobs")

const TraceAttributeBlobPath string = "blob-path"

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store that keeps blobs in a table of the
// connected database, creating the table if it does not exist.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS blobs (
			path         TEXT PRIMARY KEY,
			content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			data         BYTEA NOT NULL,
			size         BIGINT NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create blobs table: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Get(ctx context.Context, path string) ([]byte, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-blob", trace.WithAttributes(attribute.String(TraceAttributeBlobPath, path)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT data FROM blobs WHERE path=$1`, path).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = apperrors.NewNotFoundError("no blob found at " + path)
		}
		return nil, err
	}

	return data, nil
}

func (s *postgresStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	var err error

	ctx, span := tracer.Start(ctx, "put-blob", trace.WithAttributes(attribute.String(TraceAttributeBlobPath, path)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if path == "" {
		err = apperrors.NewBadRequestError("blob path must not be empty")
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO blobs (path, content_type, data, size, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (path) DO UPDATE
		SET content_type=EXCLUDED.content_type, data=EXCLUDED.data, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at`,
		path, contentType, data, len(data), time.Now().UTC(),
	)

	return err
}

func (s *postgresStore) Delete(ctx context.Context, path string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-blob", trace.WithAttributes(attribute.String(TraceAttributeBlobPath, path)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	tag, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE path=$1`, path)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		err = apperrors.NewNotFoundError("no blob found at " + path)
	}

	return err
}

func (s *postgresStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-blobs", trace.WithAttributes(attribute.String(TraceAttributeBlobPath, prefix)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	prefix = strings.Trim(prefix, "/")

	var rows pgx.Rows
	if prefix == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT path, content_type, size, updated_at FROM blobs
			WHERE strpos(path, '/') = 0
			ORDER BY path`)
	} else {
		folder := prefix + "/"
		rows, err = s.pool.Query(ctx, `
			SELECT path, content_type, size, updated_at FROM blobs
			WHERE starts_with(path, $1) AND length(path) > length($1) AND strpos(substr(path, length($1) + 1), '/') = 0
			ORDER BY path`, folder)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := []BlobInfo{}

	for rows.Next() {
		info := BlobInfo{}
		err = rows.Scan(&info.Path, &info.ContentType, &info.Size, &info.UpdatedAt)
		if err != nil {
			return nil, err
		}
		info.Name = Name(info.Path)
		infos = append(infos, info)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return infos, nil
}
