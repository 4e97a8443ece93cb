package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const (
	ActionCreated string = "created"
	ActionUpdated string = "updated"
	ActionDeleted string = "deleted"
)

const (
	RecordStation  string = "Station"
	RecordOperator string = "Operator"
	RecordRRT      string = "RRT"
	RecordImage    string = "Image"
)

// Notifier posts a notification to a webhook each time an administrator
// changes a record. Notifications are sent in order from a single worker.
type Notifier interface {
	Start() error
	Stop() error

	RecordCreated(ctx context.Context, recordType, id string, data any)
	RecordUpdated(ctx context.Context, recordType, id string, data any)
	RecordDeleted(ctx context.Context, recordType, id string)
}

type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Action     string    `json:"action"`
	NotifiedAt time.Time `json:"notifiedAt"`
	Data       any       `json:"data,omitempty"`
}

var tracer = otel.Tracer("admin-console/notifier")

type action func()

type notifier struct {
	endpoint string
	client   http.Client

	// mu guards started and the queue, senders hold it for reading
	mu      sync.RWMutex
	started bool
	queue   chan action
}

func NewNotifier(ctx context.Context, endpoint string) (Notifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("a notification endpoint is required")
	}

	return &notifier{
		endpoint: endpoint,
		client: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}, nil
}

func (n *notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return fmt.Errorf("already started")
	}

	n.started = true
	n.queue = make(chan action, 32)

	go n.run(n.queue)

	return nil
}

// Stop waits for the queued notifications to be sent. Notifications
// recorded after Stop are dropped.
func (n *notifier) Stop() error {
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		return nil
	}
	n.started = false
	queue := n.queue
	n.mu.Unlock()

	resultChan := make(chan bool)

	queue <- func() {
		close(queue)
		resultChan <- true
	}

	<-resultChan

	return nil
}

func (n *notifier) RecordCreated(ctx context.Context, recordType, id string, data any) {
	n.enqueue(ctx, Notification{ID: id, Type: recordType, Action: ActionCreated, Data: data})
}

func (n *notifier) RecordUpdated(ctx context.Context, recordType, id string, data any) {
	n.enqueue(ctx, Notification{ID: id, Type: recordType, Action: ActionUpdated, Data: data})
}

func (n *notifier) RecordDeleted(ctx context.Context, recordType, id string) {
	n.enqueue(ctx, Notification{ID: id, Type: recordType, Action: ActionDeleted})
}

func (n *notifier) enqueue(ctx context.Context, notification Notification) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.started {
		return
	}

	var err error

	logger := logging.GetFromContext(ctx)
	notification.NotifiedAt = time.Now().UTC()

	ctx, span := tracer.Start(
		tracing.ExtractHeaders(context.Background(), tracing.InjectHeaders(ctx)),
		"post-notification",
	)

	n.queue <- func() {
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = n.post(ctx, notification)
		if err != nil {
			logger.Error("failed to post notification",
				slog.String("type", notification.Type),
				slog.String("id", notification.ID),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (n *notifier) post(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshalling error (%w)", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("unable to create new request (%w)", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request (%w)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification endpoint responded with status code %d", resp.StatusCode)
	}

	return nil
}

func (n *notifier) run(queue chan action) {
	for action := range queue {
		if action == nil {
			return
		}

		action()
	}
}
