package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/railstats/admin-console/internal/pkg/application/admin"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/jsonform"
	"github.com/railstats/admin-console/pkg/railref"
)

func NewListRRTsHandler(app admin.RRTLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-rrts")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		rrts, err := app.ListRRTs(ctx, r.URL.Query().Get("q"))
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, rrts)
	})
}

// NewRetrieveRRTHandler responds with the stored document itself rather than
// a wrapper around it
func NewRetrieveRRTHandler(app admin.RRTLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-rrt")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		name, err := pathParam(r, "name")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		doc, err := app.GetRRT(ctx, name)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonform.MarshalIndent(doc))
	})
}

func NewCreateRRTHandler(app admin.RRTLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "create-rrt")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		form := railref.RRTForm{}
		if err = decodeBody(r, &form); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		rrt, err := app.CreateRRT(ctx, form)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("rrt created", "name", rrt.Name)

		w.Header().Add("Location", "/api/v1/rrts/"+url.PathEscape(rrt.Name))
		writeJSON(w, http.StatusCreated, rrt)
	})
}

func NewDeleteRRTHandler(app admin.RRTLibrary) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "delete-rrt")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		name, err := pathParam(r, "name")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		if err = app.DeleteRRT(ctx, name); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("rrt deleted", "name", name)
		w.WriteHeader(http.StatusNoContent)
	})
}

func NewOpenSessionHandler(app admin.SessionManager) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "open-session")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		name, err := pathParam(r, "name")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		session, err := app.OpenSession(ctx, name)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		w.Header().Add("Location", "/api/v1/sessions/"+session.ID)
		writeJSON(w, http.StatusCreated, session)
	})
}

func NewRetrieveSessionHandler(app admin.SessionManager) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-session")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		session, err := app.GetSession(ctx, chi.URLParam(r, "sessionId"))
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, session)
	})
}

type fieldEdit struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

func NewEditFieldHandler(app admin.SessionManager) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "edit-field")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		edit := fieldEdit{}
		if err = decodeBody(r, &edit); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		field, err := app.EditField(ctx, chi.URLParam(r, "sessionId"), edit.Path, edit.Text)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, field)
	})
}

// NewReplaceDocumentHandler replaces the whole document of a session with the
// raw JSON text of the request body
func NewReplaceDocumentHandler(app admin.SessionManager) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "replace-document")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		defer r.Body.Close()
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
		if err != nil {
			err = errors.NewBadRequestError("unable to read request body")
			reportError(w, log, err, traceID)
			return
		}

		session, err := app.ReplaceDocument(ctx, chi.URLParam(r, "sessionId"), raw)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, session)
	})
}

func NewSaveSessionHandler(app admin.SessionManager) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "save-session")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		session, err := app.SaveSession(ctx, chi.URLParam(r, "sessionId"))
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, session)
	})
}

func NewCloseSessionHandler(app admin.SessionManager) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "close-session")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		if err = app.CloseSession(ctx, chi.URLParam(r, "sessionId")); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
