package api

import (
	"net/http"
	"net/url"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/admin"
	"github.com/railstats/admin-console/pkg/railref"
)

func NewDashboardHandler(app admin.Dashboarder) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "dashboard")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		dashboard, err := app.Dashboard(ctx)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, dashboard)
	})
}

func NewSearchHandler(app admin.Searcher) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "search")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		scope, err := admin.ParseSearchScope(r.URL.Query().Get("type"))
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		result, err := app.Search(ctx, r.URL.Query().Get("q"), scope)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

func NewListStationsHandler(app admin.StationRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-stations")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		limit, err := queryLimit(r)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		page, err := app.ListStations(ctx, r.URL.Query().Get("startAfter"), limit)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, page)
	})
}

func NewRetrieveStationHandler(app admin.StationRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-station")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		crsCode, err := pathParam(r, "crsCode")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		station, err := app.GetStation(ctx, crsCode)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, station)
	})
}

func NewAddStationHandler(app admin.StationRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "add-station")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		in := railref.StationInput{}
		if err = decodeBody(r, &in); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		station, err := app.AddStation(ctx, in)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("station added", "crsCode", station.CrsCode)

		w.Header().Add("Location", "/api/v1/stations/"+url.PathEscape(station.CrsCode))
		writeJSON(w, http.StatusCreated, station)
	})
}

func NewUpdateStationHandler(app admin.StationRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "update-station")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		crsCode, err := pathParam(r, "crsCode")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		in := railref.StationInput{}
		if err = decodeBody(r, &in); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		station, err := app.UpdateStation(ctx, crsCode, in)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, station)
	})
}

func NewDeleteStationHandler(app admin.StationRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "delete-station")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		crsCode, err := pathParam(r, "crsCode")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		if err = app.DeleteStation(ctx, crsCode); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("station deleted", "crsCode", crsCode)
		w.WriteHeader(http.StatusNoContent)
	})
}

func NewListOperatorsHandler(app admin.OperatorRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-operators")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		limit, err := queryLimit(r)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		page, err := app.ListOperators(ctx, r.URL.Query().Get("startAfter"), limit)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, page)
	})
}

func NewRetrieveOperatorHandler(app admin.OperatorRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-operator")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		id, err := pathParam(r, "operatorId")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		operator, err := app.GetOperator(ctx, id)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, operator)
	})
}

func NewAddOperatorHandler(app admin.OperatorRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "add-operator")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		op := railref.Operator{}
		if err = decodeBody(r, &op); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		operator, err := app.AddOperator(ctx, op)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("operator added", "id", operator.ID)

		w.Header().Add("Location", "/api/v1/operators/"+url.PathEscape(operator.ID))
		writeJSON(w, http.StatusCreated, operator)
	})
}

func NewUpdateOperatorHandler(app admin.OperatorRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "update-operator")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		id, err := pathParam(r, "operatorId")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		op := railref.Operator{}
		if err = decodeBody(r, &op); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		operator, err := app.UpdateOperator(ctx, id, op)
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		writeJSON(w, http.StatusOK, operator)
	})
}

func NewDeleteOperatorHandler(app admin.OperatorRegistry) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "delete-operator")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		traceID, ctx, log := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

		id, err := pathParam(r, "operatorId")
		if err != nil {
			reportError(w, log, err, traceID)
			return
		}

		if err = app.DeleteOperator(ctx, id); err != nil {
			reportError(w, log, err, traceID)
			return
		}

		log.Info("operator deleted", "id", id)
		w.WriteHeader(http.StatusNoContent)
	})
}
