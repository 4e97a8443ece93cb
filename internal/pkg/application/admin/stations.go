package admin

import (
	"context"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (a *app) ListStations(ctx context.Context, startAfter string, limit int) (*Page[StationRecord], error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-stations")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	limit = a.cfg.pageSize(limit)

	docs, err := a.docs.Query(ctx, a.cfg.Collections.Stations, documents.Query{
		OrderBy:    "stationName",
		StartAfter: startAfter,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	stations, err := toStations(docs)
	if err != nil {
		return nil, err
	}

	page := &Page[StationRecord]{Items: stations}
	if len(stations) == limit {
		page.Next = stations[len(stations)-1].ID
	}

	return page, nil
}

func (a *app) GetStation(ctx context.Context, crsCode string) (*StationRecord, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-station", trace.WithAttributes(attribute.String("crs-code", crsCode)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	doc, err := a.findStation(ctx, crsCode)
	if err != nil {
		return nil, err
	}

	return toStation(doc)
}

func (a *app) AddStation(ctx context.Context, in railref.StationInput) (*StationRecord, error) {
	var err error

	ctx, span := tracer.Start(ctx, "add-station")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	station, err := in.ToStation()
	if err != nil {
		return nil, err
	}

	station.UploadedAt = railref.Timestamp(a.now())

	data, err := documents.Encode(station)
	if err != nil {
		return nil, err
	}

	id, err := a.docs.Add(ctx, a.cfg.Collections.Stations, data)
	if err != nil {
		return nil, err
	}

	record := &StationRecord{ID: id, Station: station}
	a.notifyCreated(ctx, events.RecordStation, id, record)

	return record, nil
}

// UpdateStation replaces the editable fields of a station. Fields left
// empty are cleared and the location is cleared when the input does not
// carry both coordinates.
func (a *app) UpdateStation(ctx context.Context, crsCode string, in railref.StationInput) (*StationRecord, error) {
	var err error

	ctx, span := tracer.Start(ctx, "update-station", trace.WithAttributes(attribute.String("crs-code", crsCode)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	doc, err := a.findStation(ctx, crsCode)
	if err != nil {
		return nil, err
	}

	station, err := in.ToStation()
	if err != nil {
		return nil, err
	}

	station.UpdatedAt = railref.Timestamp(a.now())

	err = a.docs.Update(ctx, a.cfg.Collections.Stations, doc.ID, stationFields(station))
	if err != nil {
		return nil, err
	}

	updated, err := a.docs.Get(ctx, a.cfg.Collections.Stations, doc.ID)
	if err != nil {
		return nil, err
	}

	record, err := toStation(updated)
	if err != nil {
		return nil, err
	}

	a.notifyUpdated(ctx, events.RecordStation, doc.ID, record)

	return record, nil
}

func (a *app) DeleteStation(ctx context.Context, crsCode string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-station", trace.WithAttributes(attribute.String("crs-code", crsCode)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	doc, err := a.findStation(ctx, crsCode)
	if err != nil {
		return err
	}

	err = a.docs.Delete(ctx, a.cfg.Collections.Stations, doc.ID)
	if err != nil {
		return err
	}

	a.notifyDeleted(ctx, events.RecordStation, doc.ID)

	return nil
}

func (a *app) findStation(ctx context.Context, crsCode string) (documents.Document, error) {
	crs := railref.NormalizeCRS(crsCode)
	if crs == "" {
		return documents.Document{}, errors.NewBadRequestError("a CRS code is required")
	}

	docs, err := a.docs.Query(ctx, a.cfg.Collections.Stations, documents.Query{
		Where: []documents.Filter{{Field: "crsCode", Value: crs}},
		Limit: 1,
	})
	if err != nil {
		return documents.Document{}, err
	}

	if len(docs) == 0 {
		return documents.Document{}, errors.NewNotFoundError("no station found with CRS code " + crs)
	}

	return docs[0], nil
}

// stationFields lists every editable field of a station, including the
// empty ones, so that a merge clears what the administrator removed.
// uploadedAt is not editable and is left as stored.
func stationFields(s railref.Station) map[string]any {
	passengers := map[string]any{}
	for year, count := range s.YearlyPassengers {
		passengers[year] = count
	}

	var location any
	if s.Location != nil {
		location = map[string]any{
			"latitude":  s.Location.Latitude,
			"longitude": s.Location.Longitude,
		}
	}

	return map[string]any{
		"stationName":      s.StationName,
		"stationNameAlt":   s.StationNameAlt,
		"crsCode":          s.CrsCode,
		"stnCrsId":         s.StnCrsID,
		"country":          s.Country,
		"county":           s.County,
		"tiploc":           s.Tiploc,
		"toc":              s.Toc,
		"source":           s.Source,
		"yearlyPassengers": passengers,
		"location":         location,
		"updatedAt":        s.UpdatedAt,
	}
}

func toStation(d documents.Document) (*StationRecord, error) {
	record := &StationRecord{ID: d.ID}
	if err := documents.Decode(d, &record.Station); err != nil {
		return nil, err
	}
	return record, nil
}

func toStations(docs []documents.Document) ([]StationRecord, error) {
	stations := make([]StationRecord, 0, len(docs))
	for _, d := range docs {
		s, err := toStation(d)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *s)
	}
	return stations, nil
}
