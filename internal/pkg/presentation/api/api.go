package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"github.com/railstats/admin-console/internal/pkg/application/admin"
	"github.com/railstats/admin-console/internal/pkg/presentation/api/auth"
	"github.com/railstats/admin-console/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("admin-console/api")

const TraceAttributeAdminUser string = "admin-user"

const maxUploadSize int64 = 10 << 20

func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, tokens map[string]string, app admin.AdminConsole) error {
	authenticator, err := auth.NewAuthenticator(ctx, policies, tokens)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Logger(logging.GetFromContext(ctx)), Authenticate(authenticator))

		r.Get("/dashboard", NewDashboardHandler(app))
		r.Get("/search", NewSearchHandler(app))

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", NewListStationsHandler(app))
			r.Post("/", NewAddStationHandler(app))
			r.Get("/{crsCode}", NewRetrieveStationHandler(app))
			r.Put("/{crsCode}", NewUpdateStationHandler(app))
			r.Delete("/{crsCode}", NewDeleteStationHandler(app))
		})

		r.Route("/operators", func(r chi.Router) {
			r.Get("/", NewListOperatorsHandler(app))
			r.Post("/", NewAddOperatorHandler(app))
			r.Get("/{operatorId}", NewRetrieveOperatorHandler(app))
			r.Put("/{operatorId}", NewUpdateOperatorHandler(app))
			r.Delete("/{operatorId}", NewDeleteOperatorHandler(app))
		})

		r.Route("/rrts", func(r chi.Router) {
			r.Get("/", NewListRRTsHandler(app))
			r.Post("/", NewCreateRRTHandler(app))
			r.Get("/{name}", NewRetrieveRRTHandler(app))
			r.Delete("/{name}", NewDeleteRRTHandler(app))
			r.Post("/{name}/sessions", NewOpenSessionHandler(app))
		})

		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Get("/", NewRetrieveSessionHandler(app))
			r.Delete("/", NewCloseSessionHandler(app))
			r.Patch("/fields", NewEditFieldHandler(app))
			r.Put("/document", NewReplaceDocumentHandler(app))
			r.Post("/save", NewSaveSessionHandler(app))
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", NewListImagesHandler(app))
			r.Post("/", NewUploadImageHandler(app))
			r.Get("/{name}", NewRetrieveImageHandler(app))
			r.Delete("/{name}", NewDeleteImageHandler(app))
		})
	})

	return nil
}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate rejects requests that the authorization policy does not allow
// and adds the name of the administrator to the request logger
func Authenticate(authenticator auth.Enticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logging.GetFromContext(ctx)

			user, err := authenticator.CheckAccess(ctx, r)
			if err != nil {
				log.Warn("access denied", slog.String("path", r.URL.Path), slog.String("err", err.Error()))
				errors.ReportUnauthorizedRequest(w, "a valid administrator token is required", traceIDFrom(ctx))
				return
			}

			if labeler, found := otelhttp.LabelerFromContext(ctx); found {
				labeler.Add(attribute.String(TraceAttributeAdminUser, user))
			}

			ctx = logging.NewContextWithLogger(ctx, log, "user", user)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func traceIDFrom(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(body)
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(into)
	if err != nil {
		return errors.NewBadRequestError(fmt.Sprintf("unable to decode request payload: %s", err.Error()))
	}

	return nil
}

// pathParam returns the decoded value of a route parameter. chi matches
// routes against the raw path when the request carries one, and only
// those parameters are still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return value, nil
	}

	value, err := url.PathUnescape(value)
	if err != nil {
		return "", errors.NewBadRequestError("malformed " + name + " in path")
	}
	return value, nil
}

func queryLimit(r *http.Request) (int, error) {
	limit := r.URL.Query().Get("limit")
	if limit == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(limit)
	if err != nil || n < 0 {
		return 0, errors.NewBadRequestError("limit must be a positive number")
	}

	return n, nil
}

func reportError(w http.ResponseWriter, log *slog.Logger, err error, traceID string) {
	if errors.Is(err, errors.ErrInternal) || !isKnown(err) {
		log.Error("request failed", slog.String("err", err.Error()))
	} else {
		log.Debug("request rejected", slog.String("err", err.Error()))
	}

	errors.ReportError(w, err, traceID)
}

func isKnown(err error) bool {
	for _, target := range []error{
		errors.ErrBadRequest, errors.ErrFetch, errors.ErrInvalidDocument, errors.ErrNotFound,
		errors.ErrParse, errors.ErrSave, errors.ErrSaveInProgress, errors.ErrSessionClosed,
		errors.ErrUnknownField, errors.ErrUnknownSession,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
