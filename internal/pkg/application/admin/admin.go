package admin

import (
	"context"
	"sync"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/editor"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"
	"github.com/railstats/admin-console/pkg/jsonform"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("admin-console/admin")

type Dashboarder interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type StationRegistry interface {
	ListStations(ctx context.Context, startAfter string, limit int) (*Page[StationRecord], error)
	GetStation(ctx context.Context, crsCode string) (*StationRecord, error)
	AddStation(ctx context.Context, in railref.StationInput) (*StationRecord, error)
	UpdateStation(ctx context.Context, crsCode string, in railref.StationInput) (*StationRecord, error)
	DeleteStation(ctx context.Context, crsCode string) error
}

type OperatorRegistry interface {
	ListOperators(ctx context.Context, startAfter string, limit int) (*Page[OperatorRecord], error)
	GetOperator(ctx context.Context, id string) (*OperatorRecord, error)
	AddOperator(ctx context.Context, op railref.Operator) (*OperatorRecord, error)
	UpdateOperator(ctx context.Context, id string, op railref.Operator) (*OperatorRecord, error)
	DeleteOperator(ctx context.Context, id string) error
}

type Searcher interface {
	Search(ctx context.Context, term string, scope SearchScope) (*SearchResult, error)
}

type RRTLibrary interface {
	ListRRTs(ctx context.Context, filter string) ([]railref.RRT, error)
	GetRRT(ctx context.Context, name string) (jsonform.Value, error)
	CreateRRT(ctx context.Context, form railref.RRTForm) (*railref.RRT, error)
	DeleteRRT(ctx context.Context, name string) error
}

type ImageLibrary interface {
	ListImages(ctx context.Context) ([]blobs.BlobInfo, error)
	GetImage(ctx context.Context, name string) ([]byte, string, error)
	UploadImage(ctx context.Context, name, contentType string, data []byte) (*blobs.BlobInfo, error)
	DeleteImage(ctx context.Context, name string) error
}

type SessionManager interface {
	OpenSession(ctx context.Context, name string) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	EditField(ctx context.Context, id, path, text string) (*editor.Field, error)
	ReplaceDocument(ctx context.Context, id string, raw []byte) (*SessionView, error)
	SaveSession(ctx context.Context, id string) (*SessionView, error)
	CloseSession(ctx context.Context, id string) error
}

type AdminConsole interface {
	Dashboarder
	StationRegistry
	OperatorRegistry
	Searcher
	RRTLibrary
	ImageLibrary
	SessionManager
}

type Dashboard struct {
	StationCount   int             `json:"stationCount"`
	RecentStations []StationRecord `json:"recentStations"`
	RRTCount       int             `json:"rrtCount"`
	ImageCount     int             `json:"imageCount"`
}

type StationRecord struct {
	ID string `json:"id"`
	railref.Station
}

type OperatorRecord struct {
	ID string `json:"id"`
	railref.Operator
}

type Page[T any] struct {
	Items []T `json:"items"`
	// Next is the cursor of the following page, empty on the last page
	Next string `json:"next,omitempty"`
}

type SessionView struct {
	ID string `json:"id"`
	editor.Snapshot
}

type app struct {
	cfg      *Config
	docs     documents.Store
	blobs    blobs.Store
	notifier events.Notifier

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	now func() time.Time
}

// New creates the admin console. The notifier is optional.
func New(cfg *Config, docs documents.Store, store blobs.Store, notifier events.Notifier) AdminConsole {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()

	return &app{
		cfg:      cfg,
		docs:     docs,
		blobs:    store,
		notifier: notifier,
		sessions: map[string]*sessionEntry{},
		now:      time.Now,
	}
}

func (a *app) Dashboard(ctx context.Context) (*Dashboard, error) {
	var err error

	ctx, span := tracer.Start(ctx, "dashboard")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	d := &Dashboard{RecentStations: []StationRecord{}}

	d.StationCount, err = a.docs.Count(ctx, a.cfg.Collections.Stations)
	if err != nil {
		return nil, err
	}

	recent, err := a.docs.Query(ctx, a.cfg.Collections.Stations, documents.Query{
		OrderBy:    "uploadedAt",
		Descending: true,
		Limit:      a.cfg.Dashboard.RecentStations,
	})
	if err != nil {
		return nil, err
	}

	d.RecentStations, err = toStations(recent)
	if err != nil {
		return nil, err
	}

	rrts, err := a.listWithFallback(ctx, railref.RRTFolder, railref.IsRootRRTCandidate)
	if err != nil {
		return nil, err
	}
	d.RRTCount = len(rrts)

	images, err := a.listWithFallback(ctx, railref.ImageFolder, railref.IsImage)
	if err != nil {
		return nil, err
	}
	d.ImageCount = len(images)

	return d, nil
}

func (a *app) notifyCreated(ctx context.Context, recordType, id string, data any) {
	if a.notifier != nil {
		a.notifier.RecordCreated(ctx, recordType, id, data)
	}
}

func (a *app) notifyUpdated(ctx context.Context, recordType, id string, data any) {
	if a.notifier != nil {
		a.notifier.RecordUpdated(ctx, recordType, id, data)
	}
}

func (a *app) notifyDeleted(ctx context.Context, recordType, id string) {
	if a.notifier != nil {
		a.notifier.RecordDeleted(ctx, recordType, id)
	}
}
