package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/pkg/errors"
	"github.com/railstats/admin-console/pkg/jsonform"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("admin-console/editor")

const TraceAttributeDocumentKey string = "document-key"

//go:generate moq -rm -out blobstore_mock.go . BlobStore

// BlobStore is the part of the blob store a session needs
type BlobStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
}

type State int

const (
	Loading State = iota
	Ready
	Saving
	SaveFailed
	NotFound
	Closed
)

var stateNames = [...]string{"loading", "ready", "saving", "save-failed", "not-found", "closed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Field is a single editable entry of the flat form
type Field struct {
	Path  string              `json:"path"`
	Kind  jsonform.RenderKind `json:"kind"`
	Value jsonform.Value      `json:"value"`
	Text  string              `json:"text"`
}

type Snapshot struct {
	Key    string  `json:"key"`
	State  State   `json:"state"`
	Saved  bool    `json:"saved"`
	Error  string  `json:"error,omitempty"`
	Fields []Field `json:"fields"`
}

// Session edits one stored document through its flattened form. All
// methods are safe for concurrent use; store I/O happens without holding
// the session lock and results that arrive after Close are dropped.
type Session struct {
	mu    sync.Mutex
	key   string
	store BlobStore

	state      State
	generation uint64
	busy       bool

	original *jsonform.Form
	form     *jsonform.Form
	lastErr  error
	saved    bool
}

func New(key string, store BlobStore) *Session {
	return &Session{
		key:   key,
		store: store,
		state: Loading,
	}
}

func (s *Session) Key() string {
	return s.key
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that put the session in its current state, if any
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Saved reports whether the current form has been stored successfully
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Load fetches and flattens the document. The document is first looked
// up in the RRT folder and then at the root of the store.
func (s *Session) Load(ctx context.Context) error {
	var err error

	ctx, span := tracer.Start(ctx, "load-document", trace.WithAttributes(attribute.String(TraceAttributeDocumentKey, s.key)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		err = errors.NewSessionClosedError(s.key)
		return err
	}
	if s.state != Loading || s.busy {
		s.mu.Unlock()
		err = errors.NewBadRequestError("session for " + s.key + " has already been loaded")
		return err
	}
	s.busy = true
	generation := s.generation
	s.mu.Unlock()

	form, loadErr := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || s.state == Closed {
		err = errors.NewSessionClosedError(s.key)
		return err
	}

	s.busy = false

	if loadErr != nil {
		s.state = NotFound
		s.lastErr = loadErr
		err = loadErr
		return err
	}

	s.original = form
	s.form = form.Clone()
	s.state = Ready

	return nil
}

func (s *Session) fetch(ctx context.Context) (*jsonform.Form, error) {
	log := logging.GetFromContext(ctx)

	primary := blobs.Join(railref.RRTFolder, s.key)

	form, primaryErr := s.fetchFrom(ctx, primary)
	if primaryErr == nil {
		return form, nil
	}

	log.Debug("document not usable in rrt folder, trying root", slog.String("path", primary), slog.String("err", primaryErr.Error()))

	form, rootErr := s.fetchFrom(ctx, s.key)
	if rootErr == nil {
		return form, nil
	}

	if errors.Is(primaryErr, errors.ErrParse) || errors.Is(primaryErr, errors.ErrInvalidDocument) {
		return nil, primaryErr
	}

	return nil, rootErr
}

func (s *Session) fetchFrom(ctx context.Context, path string) (*jsonform.Form, error) {
	data, err := s.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		return nil, errors.NewFetchError(path, err)
	}

	doc, err := jsonform.Parse(data)
	if err != nil {
		return nil, err
	}

	return jsonform.FlattenDocument(doc, dottedKeyLogger(ctx, s.key))
}

// Fields lists the entries of the live form in form order
func (s *Session) Fields() ([]Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readable(); err != nil {
		return nil, err
	}

	return s.fields(), nil
}

func (s *Session) fields() []Field {
	fields := make([]Field, 0, s.form.Len())

	s.form.Each(func(path string, v jsonform.Value) {
		kind := s.kindOf(path, v)
		fields = append(fields, Field{
			Path:  path,
			Kind:  kind,
			Value: v,
			Text:  jsonform.EditorText(kind, v),
		})
	})

	return fields
}

// kindOf decides the editor for a path from the loaded document so that
// an edit can not change how the field is presented.
func (s *Session) kindOf(path string, current jsonform.Value) jsonform.RenderKind {
	if v, ok := s.original.Get(path); ok {
		return jsonform.Policy(path, v)
	}
	return jsonform.Policy(path, current)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Key:    s.key,
		State:  s.state,
		Saved:  s.saved,
		Fields: []Field{},
	}

	if s.lastErr != nil {
		snapshot.Error = s.lastErr.Error()
	}

	if s.form != nil {
		snapshot.Fields = s.fields()
	}

	return snapshot
}

// EditField replaces the value at path with the text coerced the way the
// field's editor does it, and returns the updated field.
func (s *Session) EditField(path, text string) (Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return Field{}, err
	}

	current, ok := s.form.Get(path)
	if !ok {
		return Field{}, errors.NewUnknownFieldError(path)
	}

	kind := s.kindOf(path, current)
	v := jsonform.Coerce(kind, text)

	s.form.Set(path, v)
	s.saved = false

	return Field{Path: path, Kind: kind, Value: v, Text: jsonform.EditorText(kind, v)}, nil
}

// ReplaceDocument swaps both the loaded document and the live form for
// the parsed raw JSON. Nothing changes when raw can not be used.
func (s *Session) ReplaceDocument(ctx context.Context, raw []byte) error {
	doc, err := jsonform.Parse(raw)
	if err != nil {
		return err
	}

	form, err := jsonform.FlattenDocument(doc, dottedKeyLogger(ctx, s.key))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return err
	}

	s.original = form
	s.form = form.Clone()
	s.saved = false

	return nil
}

// Document rebuilds the nested document from the live form
func (s *Session) Document(ctx context.Context) (jsonform.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readable(); err != nil {
		return jsonform.Value{}, err
	}

	return jsonform.Unflatten(s.form, conflictLogger(ctx, s.key)), nil
}

// Save stores the whole document in the RRT folder with a single write
func (s *Session) Save(ctx context.Context) error {
	var err error

	ctx, span := tracer.Start(ctx, "save-document", trace.WithAttributes(attribute.String(TraceAttributeDocumentKey, s.key)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		err = errors.NewSaveInProgressError(s.key)
		return err
	}
	if err = s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}

	form := s.form.Clone()
	s.state = Saving
	generation := s.generation
	s.mu.Unlock()

	doc := jsonform.Unflatten(form, conflictLogger(ctx, s.key))
	putErr := s.store.Put(ctx, blobs.Join(railref.RRTFolder, s.key), jsonform.MarshalIndent(doc), "application/json")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || s.state == Closed {
		err = errors.NewSessionClosedError(s.key)
		return err
	}

	if putErr != nil {
		s.state = SaveFailed
		s.lastErr = errors.NewSaveError(putErr)
		err = s.lastErr
		return err
	}

	s.state = Ready
	s.lastErr = nil
	s.saved = true

	return nil
}

// Close ends the session. Loads and saves still in flight complete but
// their results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Closed
	s.generation++
	s.busy = false
}

func (s *Session) readable() error {
	switch s.state {
	case Closed:
		return errors.NewSessionClosedError(s.key)
	case Loading:
		return errors.NewBadRequestError("document " + s.key + " is still loading")
	case NotFound:
		return s.lastErr
	}
	return nil
}

func (s *Session) editable() error {
	if s.state == Saving {
		return errors.NewSaveInProgressError(s.key)
	}
	return s.readable()
}

func conflictLogger(ctx context.Context, key string) jsonform.Option {
	log := logging.GetFromContext(ctx)

	return jsonform.OnConflict(func(path string, discarded jsonform.Value) {
		log.Warn("conflicting paths while rebuilding document, earlier value discarded",
			slog.String("document", key),
			slog.String("path", path),
			slog.String("discarded", string(jsonform.Marshal(discarded))),
		)
	})
}

func dottedKeyLogger(ctx context.Context, key string) jsonform.Option {
	log := logging.GetFromContext(ctx)

	return jsonform.OnDottedKey(func(path, member string) {
		log.Warn("member key contains a dot and will be nested when the document is saved",
			slog.String("document", key),
			slog.String("path", path),
			slog.String("key", member),
		)
	})
}
