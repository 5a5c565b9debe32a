package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/mwesox/menuvo-payments/core"
)

// Endpoint is the HTTP boundary of one provider's pipeline. It verifies the
// delivery signature over the raw body, parses the envelope, records the
// event idempotently, and enqueues new events for the worker loop.
type Endpoint struct {
	providerID string
	verifier   Verifier
	parser     EnvelopeParser
	store      core.EventStore
	queue      core.EventQueue
	queueName  string
	logger     core.Logger
	metrics    core.MetricsRecorder
}

type EndpointOption func(*Endpoint)

func WithEndpointLogger(logger core.Logger) EndpointOption {
	return func(e *Endpoint) {
		e.logger = logger
	}
}

func WithEndpointMetrics(recorder core.MetricsRecorder) EndpointOption {
	return func(e *Endpoint) {
		e.metrics = recorder
	}
}

func WithEndpointQueueName(queue string) EndpointOption {
	return func(e *Endpoint) {
		if trimmed := strings.TrimSpace(queue); trimmed != "" {
			e.queueName = trimmed
		}
	}
}

func NewEndpoint(
	template ProviderWebhookTemplate,
	store core.EventStore,
	queue core.EventQueue,
	options ...EndpointOption,
) (*Endpoint, error) {
	providerID := strings.TrimSpace(template.ProviderID)
	if providerID == "" {
		return nil, fmt.Errorf("webhooks: provider id is required")
	}
	if template.Parser == nil {
		return nil, fmt.Errorf("webhooks: envelope parser is required")
	}
	if store == nil {
		return nil, fmt.Errorf("webhooks: event store is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("webhooks: event queue is required")
	}

	e := &Endpoint{
		providerID: providerID,
		verifier:   template.Verifier,
		parser:     template.Parser,
		store:      store,
		queue:      queue,
		queueName:  core.QueueName(providerID, core.QueueMain),
		metrics:    core.NopMetricsRecorder{},
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(e)
	}
	e.logger = glog.Ensure(e.logger)
	return e, nil
}

// Process runs the ingestion contract against a transport-neutral request.
// The returned result always carries the status code and body fields the
// HTTP layer must answer with.
func (e *Endpoint) Process(ctx context.Context, req core.InboundRequest) core.InboundResult {
	req.ProviderID = e.providerID

	if e.verifier != nil {
		if err := e.verifier.Verify(ctx, req); err != nil {
			mapped := core.MapError(err)
			e.logInfo(ctx, "webhook rejected at boundary", map[string]any{
				"provider_id": e.providerID,
				"code":        mapped.TextCode,
				"error":       err.Error(),
			})
			e.count(ctx, "payments.ingest.rejected.total", nil)
			return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusBadRequest,
				Metadata:   map[string]any{"error": "invalid signature", "code": mapped.TextCode},
			}
		}
	}

	in, err := e.parser(req)
	if err != nil {
		mapped := core.MapError(err)
		e.logInfo(ctx, "webhook payload unparseable", map[string]any{
			"provider_id": e.providerID,
			"code":        mapped.TextCode,
			"error":       err.Error(),
		})
		e.count(ctx, "payments.ingest.rejected.total", nil)
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusBadRequest,
			Metadata:   map[string]any{"error": "malformed payload", "code": mapped.TextCode},
		}
	}
	in.ProviderID = e.providerID

	result, err := e.store.Ingest(ctx, in)
	if err != nil {
		// Store down: surface 5xx so the provider's own retry re-delivers.
		e.logError(ctx, "event store unavailable during ingestion", map[string]any{
			"provider_id": e.providerID,
			"event_id":    in.ID,
			"error":       err.Error(),
		})
		e.count(ctx, "payments.ingest.store_errors.total", nil)
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusInternalServerError,
			Metadata:   map[string]any{"error": "event store unavailable"},
		}
	}

	if !result.IsNew {
		// Expected under provider retry semantics; no second queue entry.
		e.count(ctx, "payments.ingest.duplicates.total", nil)
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusOK,
			Metadata: map[string]any{
				"received": true,
				"deduped":  true,
			},
		}
	}

	if err := e.queue.Push(ctx, e.queueName, result.ID); err != nil {
		// Recorded but not enqueued: answer 200 anyway, the event is durable
		// and an operator can replay it. A non-2xx here would only provoke a
		// duplicate delivery that dedupes into nothing.
		e.logError(ctx, "event recorded but enqueue failed", map[string]any{
			"provider_id": e.providerID,
			"event_id":    result.ID,
			"error":       err.Error(),
		})
		e.count(ctx, "payments.ingest.enqueue_errors.total", nil)
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusOK,
			Metadata: map[string]any{
				"received": true,
				"error":    "processing deferred",
			},
		}
	}

	e.count(ctx, "payments.ingest.accepted.total", nil)
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata: map[string]any{
			"received": true,
			"event_id": result.ID,
		},
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	result := e.Process(r.Context(), core.InboundRequest{
		ProviderID: e.providerID,
		Headers:    headers,
		Body:       body,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	payload := result.Metadata
	if payload == nil {
		payload = map[string]any{}
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		e.logError(r.Context(), "write webhook response", map[string]any{
			"provider_id": e.providerID,
			"error":       err.Error(),
		})
	}
}

func (e *Endpoint) logInfo(ctx context.Context, message string, fields map[string]any) {
	e.log(ctx, "info", message, fields)
}

func (e *Endpoint) logError(ctx context.Context, message string, fields map[string]any) {
	e.log(ctx, "error", message, fields)
}

func (e *Endpoint) log(ctx context.Context, level string, message string, fields map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	logger := e.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	switch level {
	case "error":
		logger.Error(message)
	default:
		logger.Info(message)
	}
}

func (e *Endpoint) count(ctx context.Context, name string, tags map[string]string) {
	if e == nil || e.metrics == nil {
		return
	}
	if tags == nil {
		tags = map[string]string{}
	}
	tags["provider_id"] = e.providerID
	e.metrics.IncCounter(ctx, name, 1, tags)
}

var _ http.Handler = (*Endpoint)(nil)
