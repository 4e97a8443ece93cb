package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/jsonform"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListRRTs returns every parseable RRT document, optionally narrowed down
// to the ones matching filter. Blobs that can not be parsed are skipped.
func (a *app) ListRRTs(ctx context.Context, filter string) ([]railref.RRT, error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-rrts")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	infos, err := a.listWithFallback(ctx, railref.RRTFolder, railref.IsRootRRTCandidate)
	if err != nil {
		return nil, err
	}

	rrts := []railref.RRT{}

	for _, info := range infos {
		data, getErr := a.blobs.Get(ctx, info.Path)
		if getErr != nil {
			log.Warn("failed to read rrt document", slog.String("path", info.Path), slog.String("err", getErr.Error()))
			continue
		}

		doc, parseErr := jsonform.Parse(data)
		if parseErr != nil {
			log.Warn("skipping unparseable rrt document", slog.String("path", info.Path), slog.String("err", parseErr.Error()))
			continue
		}

		rrt := railref.RRT{
			Name:      info.Name,
			Path:      info.Path,
			Size:      info.Size,
			UpdatedAt: info.UpdatedAt,
			Data:      &doc,
		}

		if rrt.Matches(filter) {
			rrts = append(rrts, rrt)
		}
	}

	return rrts, nil
}

func (a *app) GetRRT(ctx context.Context, name string) (jsonform.Value, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-rrt", trace.WithAttributes(attribute.String("rrt-name", name)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err = validateBlobName(name); err != nil {
		return jsonform.Value{}, err
	}

	data, err := a.getWithFallback(ctx, railref.RRTFolder, name)
	if err != nil {
		return jsonform.Value{}, err
	}

	doc, err := jsonform.Parse(data)

	return doc, err
}

func (a *app) CreateRRT(ctx context.Context, form railref.RRTForm) (*railref.RRT, error) {
	var err error

	ctx, span := tracer.Start(ctx, "create-rrt")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	now := a.now()

	doc, err := form.Document(now)
	if err != nil {
		return nil, err
	}

	name := railref.RRTFileName(strings.TrimSpace(form.Name))
	if err = validateBlobName(name); err != nil {
		return nil, err
	}

	path := blobs.Join(railref.RRTFolder, name)
	data := jsonform.MarshalIndent(doc)

	err = a.blobs.Put(ctx, path, data, "application/json")
	if err != nil {
		err = errors.NewSaveError(err)
		return nil, err
	}

	rrt := &railref.RRT{
		Name:      name,
		Path:      path,
		Size:      int64(len(data)),
		UpdatedAt: now.UTC(),
		Data:      &doc,
	}

	a.notifyCreated(ctx, events.RecordRRT, name, rrt)

	return rrt, nil
}

func (a *app) DeleteRRT(ctx context.Context, name string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-rrt", trace.WithAttributes(attribute.String("rrt-name", name)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err = validateBlobName(name); err != nil {
		return err
	}

	err = a.blobs.Delete(ctx, blobs.Join(railref.RRTFolder, name))
	if err != nil {
		return err
	}

	a.notifyDeleted(ctx, events.RecordRRT, name)

	return nil
}

// listWithFallback lists a folder and, when that fails, the accepted
// blobs at the root of the store.
func (a *app) listWithFallback(ctx context.Context, folder string, accept func(name string) bool) ([]blobs.BlobInfo, error) {
	infos, err := a.blobs.List(ctx, folder)
	if err == nil {
		return infos, nil
	}

	logging.GetFromContext(ctx).Warn("failed to list folder, trying root", slog.String("folder", folder), slog.String("err", err.Error()))

	root, rootErr := a.blobs.List(ctx, "")
	if rootErr != nil {
		return nil, errors.NewFetchError(folder, rootErr)
	}

	accepted := []blobs.BlobInfo{}
	for _, info := range root {
		if accept(info.Name) {
			accepted = append(accepted, info)
		}
	}

	return accepted, nil
}

func (a *app) getWithFallback(ctx context.Context, folder, name string) ([]byte, error) {
	data, err := a.blobs.Get(ctx, blobs.Join(folder, name))
	if err == nil {
		return data, nil
	}

	data, rootErr := a.blobs.Get(ctx, name)
	if rootErr == nil {
		return data, nil
	}

	if errors.Is(rootErr, errors.ErrNotFound) {
		return nil, rootErr
	}

	return nil, errors.NewFetchError(name, rootErr)
}

func validateBlobName(name string) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return errors.NewBadRequestError("invalid file name " + name)
	}
	return nil
}
