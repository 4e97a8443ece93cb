package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/google/uuid"
	"github.com/railstats/admin-console/internal/pkg/application/editor"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OpenSession loads the named RRT document into a new editor session.
// Sessions that fail to load are not kept.
func (a *app) OpenSession(ctx context.Context, name string) (*SessionView, error) {
	var err error

	ctx, span := tracer.Start(ctx, "open-session", trace.WithAttributes(attribute.String("rrt-name", name)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if err = validateBlobName(name); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	session := editor.New(name, a.blobs)

	a.mu.Lock()
	evicted := a.evict(a.now(), 1)
	a.sessions[id] = &sessionEntry{session: session, lastUsed: a.now()}
	a.mu.Unlock()

	logEvicted(ctx, evicted)

	err = session.Load(ctx)
	if err != nil {
		a.remove(id)
		return nil, err
	}

	logging.GetFromContext(ctx).Info("editor session opened", slog.String("session", id), slog.String("document", name))

	return &SessionView{ID: id, Snapshot: session.Snapshot()}, nil
}

func (a *app) GetSession(ctx context.Context, id string) (*SessionView, error) {
	session, err := a.session(ctx, id)
	if err != nil {
		return nil, err
	}

	return &SessionView{ID: id, Snapshot: session.Snapshot()}, nil
}

func (a *app) EditField(ctx context.Context, id, path, text string) (*editor.Field, error) {
	session, err := a.session(ctx, id)
	if err != nil {
		return nil, err
	}

	field, err := session.EditField(path, text)
	if err != nil {
		return nil, err
	}

	return &field, nil
}

func (a *app) ReplaceDocument(ctx context.Context, id string, raw []byte) (*SessionView, error) {
	session, err := a.session(ctx, id)
	if err != nil {
		return nil, err
	}

	err = session.ReplaceDocument(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &SessionView{ID: id, Snapshot: session.Snapshot()}, nil
}

// SaveSession stores the edited document. A session that has been saved
// is complete and is removed from the registry.
func (a *app) SaveSession(ctx context.Context, id string) (*SessionView, error) {
	var err error

	ctx, span := tracer.Start(ctx, "save-session", trace.WithAttributes(attribute.String("session-id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	session, err := a.session(ctx, id)
	if err != nil {
		return nil, err
	}

	err = session.Save(ctx)
	if err != nil {
		return nil, err
	}

	view := &SessionView{ID: id, Snapshot: session.Snapshot()}

	a.remove(id)
	session.Close()

	a.notifyUpdated(ctx, events.RecordRRT, session.Key(), nil)

	return view, nil
}

func (a *app) CloseSession(ctx context.Context, id string) error {
	session, err := a.session(ctx, id)
	if err != nil {
		return err
	}

	a.remove(id)
	session.Close()

	return nil
}

type sessionEntry struct {
	session  *editor.Session
	lastUsed time.Time
}

// session returns the open session with the given id and marks it as used.
// Idle sessions are closed before the lookup.
func (a *app) session(ctx context.Context, id string) (*editor.Session, error) {
	now := a.now()

	a.mu.Lock()
	evicted := a.evict(now, 0)
	entry, ok := a.sessions[id]
	if ok {
		entry.lastUsed = now
	}
	a.mu.Unlock()

	logEvicted(ctx, evicted)

	if !ok {
		return nil, errors.NewUnknownSessionError(id)
	}

	return entry.session, nil
}

// evict closes the sessions idle for longer than the idle timeout, then
// closes the least recently used ones until another room sessions fit
// under the configured maximum. Must be called with a.mu held.
func (a *app) evict(now time.Time, room int) []string {
	evicted := []string{}

	for id, entry := range a.sessions {
		if now.Sub(entry.lastUsed) > a.cfg.Sessions.IdleTimeout {
			entry.session.Close()
			delete(a.sessions, id)
			evicted = append(evicted, id)
		}
	}

	for len(a.sessions) > 0 && len(a.sessions)+room > a.cfg.Sessions.MaxOpen {
		oldest := ""
		for id, entry := range a.sessions {
			if oldest == "" || entry.lastUsed.Before(a.sessions[oldest].lastUsed) {
				oldest = id
			}
		}

		a.sessions[oldest].session.Close()
		delete(a.sessions, oldest)
		evicted = append(evicted, oldest)
	}

	return evicted
}

func logEvicted(ctx context.Context, evicted []string) {
	log := logging.GetFromContext(ctx)
	for _, id := range evicted {
		log.Info("editor session expired", slog.String("session", id))
	}
}

func (a *app) remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.sessions, id)
}
