package api

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/admin"
	"github.com/railstats/admin-console/pkg/errors"
)

func NewListImagesHandler(app admin.ImageLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-images")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		images, err := app.ListImages(ctx)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, images)
	})
}

func NewRetrieveImageHandler(app admin.ImageLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-image")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		name, err := pathParam(r, "name")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		data, contentType, err := app.GetImage(ctx, name)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})
}

// NewUploadImageHandler accepts either a multipart form with a "file" part or
// the raw image as body, named by the "name" query parameter
func NewUploadImageHandler(app admin.ImageLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "upload-image")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		name, contentType, data, err := readUpload(r)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		info, err := app.UploadImage(ctx, name, contentType, data)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("image uploaded", "name", info.Name, "size", info.Size)

		w.Header().Add("Location", "/api/v1/images/"+url.PathEscape(info.Name))
		writeJSON(w, http.StatusCreated, info)
	})
}

func readUpload(r *http.Request) (string, string, []byte, error) {
	name := r.URL.Query().Get("name")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", "", nil, errors.NewBadRequestError("unable to read image: " + err.Error())
		}
		return name, declaredType(r.Header.Get("Content-Type")), data, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, errors.NewBadRequestError("multipart upload without a file part")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", nil, errors.NewBadRequestError("unable to read image: " + err.Error())
	}

	if formName := r.FormValue("name"); strings.TrimSpace(formName) != "" {
		name = formName
	} else if name == "" {
		name = header.Filename
	}

	return name, declaredType(header.Header.Get("Content-Type")), data, nil
}

// declaredType drops content types that say nothing about the image so that
// the type is inferred from the file extension instead
func declaredType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "application/octet-stream" {
		return ""
	}
	return contentType
}

func NewDeleteImageHandler(app admin.ImageLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "delete-image")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		name, err := pathParam(r, "name")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		if err = app.DeleteImage(ctx, name); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("image deleted", "name", name)
		w.WriteHeader(http.StatusNoContent)
	})
}
