package admin

import (
	"context"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SearchScope string

const (
	SearchAll       SearchScope = "all"
	SearchStations  SearchScope = "stations"
	SearchOperators SearchScope = "operators"
)

func ParseSearchScope(s string) (SearchScope, error) {
	switch SearchScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", SearchAll:
		return SearchAll, nil
	case SearchStations:
		return SearchStations, nil
	case SearchOperators:
		return SearchOperators, nil
	}
	return "", errors.NewBadRequestError("unknown search type " + s)
}

type SearchResult struct {
	Stations  []StationRecord  `json:"stations"`
	Operators []OperatorRecord `json:"operators"`
}

func (a *app) Search(ctx context.Context, term string, scope SearchScope) (*SearchResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "search", trace.WithAttributes(attribute.String("search-scope", string(scope))))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if strings.TrimSpace(term) == "" {
		err = errors.NewBadRequestError("a search term is required")
		return nil, err
	}

	result := &SearchResult{
		Stations:  []StationRecord{},
		Operators: []OperatorRecord{},
	}

	if scope == SearchAll || scope == SearchStations {
		result.Stations, err = a.searchStations(ctx, term)
		if err != nil {
			return nil, err
		}
	}

	if scope == SearchAll || scope == SearchOperators {
		result.Operators, err = a.searchOperators(ctx, term)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// searchStations looks for an exact CRS code match before falling back to
// matching parts of the station names.
func (a *app) searchStations(ctx context.Context, term string) ([]StationRecord, error) {
	docs, err := a.docs.Query(ctx, a.cfg.Collections.Stations, documents.Where("crsCode", railref.NormalizeCRS(term)))
	if err != nil {
		return nil, err
	}

	if len(docs) > 0 {
		return toStations(docs)
	}

	all, err := a.docs.Query(ctx, a.cfg.Collections.Stations, documents.Query{OrderBy: "stationName"})
	if err != nil {
		return nil, err
	}

	stations, err := toStations(all)
	if err != nil {
		return nil, err
	}

	matches := []StationRecord{}
	for _, s := range stations {
		if containsFold(term, s.StationName, s.StationNameAlt) {
			matches = append(matches, s)
		}
	}

	return matches, nil
}

func (a *app) searchOperators(ctx context.Context, term string) ([]OperatorRecord, error) {
	all, err := a.docs.Query(ctx, a.cfg.Collections.Operators, documents.Query{OrderBy: "name"})
	if err != nil {
		return nil, err
	}

	operators, err := toOperators(all)
	if err != nil {
		return nil, err
	}

	matches := []OperatorRecord{}
	for _, o := range operators {
		if containsFold(term, o.Name, o.OperatorType, o.OperatorRegion) {
			matches = append(matches, o)
		}
	}

	return matches, nil
}

func containsFold(term string, candidates ...string) bool {
	term = strings.ToLower(term)
	for _, c := range candidates {
		if c != "" && strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	return false
}
