package admin

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (a *app) ListImages(ctx context.Context) ([]blobs.BlobInfo, error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-images")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	images, err := a.listWithFallback(ctx, railref.ImageFolder, railref.IsImage)

	return images, err
}

func (a *app) GetImage(ctx context.Context, name string) ([]byte, string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-image", trace.WithAttributes(attribute.String("image-name", name)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err = validateBlobName(name); err != nil {
		return nil, "", err
	}

	data, err := a.getWithFallback(ctx, railref.ImageFolder, name)
	if err != nil {
		return nil, "", err
	}

	return data, contentTypeOf(name), nil
}

func (a *app) UploadImage(ctx context.Context, name, contentType string, data []byte) (*blobs.BlobInfo, error) {
	var err error

	ctx, span := tracer.Start(ctx, "upload-image", trace.WithAttributes(attribute.String("image-name", name)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	name = strings.TrimSpace(name)
	if err = validateBlobName(name); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		err = errors.NewBadRequestError("no image data in request")
		return nil, err
	}

	if contentType == "" {
		contentType = contentTypeOf(name)
	}

	p := blobs.Join(railref.ImageFolder, name)

	err = a.blobs.Put(ctx, p, data, contentType)
	if err != nil {
		err = errors.NewSaveError(err)
		return nil, err
	}

	info := &blobs.BlobInfo{
		Name:        name,
		Path:        p,
		Size:        int64(len(data)),
		ContentType: contentType,
		UpdatedAt:   a.now().UTC(),
	}

	a.notifyCreated(ctx, events.RecordImage, name, info)

	return info, nil
}

func (a *app) DeleteImage(ctx context.Context, name string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-image", trace.WithAttributes(attribute.String("image-name", name)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err = validateBlobName(name); err != nil {
		return err
	}

	err = a.blobs.Delete(ctx, blobs.Join(railref.ImageFolder, name))
	if err != nil {
		return err
	}

	a.notifyDeleted(ctx, events.RecordImage, name)

	return nil
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
