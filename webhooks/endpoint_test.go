package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwesox/menuvo-payments/core"
)

type endpointStoreStub struct {
	events    map[string]bool
	ingestErr error
}

func newEndpointStoreStub() *endpointStoreStub {
	return &endpointStoreStub{events: map[string]bool{}}
}

func (s *endpointStoreStub) Ingest(_ context.Context, in core.IngestEventInput) (core.IngestResult, error) {
	if s.ingestErr != nil {
		return core.IngestResult{}, s.ingestErr
	}
	if s.events[in.ID] {
		return core.IngestResult{ID: in.ID, IsNew: false}, nil
	}
	s.events[in.ID] = true
	return core.IngestResult{ID: in.ID, IsNew: true}, nil
}

func (s *endpointStoreStub) GetByID(_ context.Context, id string) (core.Event, error) {
	return core.Event{}, core.NewEventNotFoundError(id)
}

func (s *endpointStoreStub) MarkProcessed(context.Context, string) error { return nil }
func (s *endpointStoreStub) MarkFailed(context.Context, string) error    { return nil }

func (s *endpointStoreStub) IncrementRetry(context.Context, string) (int, error) { return 0, nil }
func (s *endpointStoreStub) GetRetryCount(context.Context, string) (int, error)  { return 0, nil }

type endpointQueueStub struct {
	pushed  []string
	pushErr error
}

func (q *endpointQueueStub) Push(_ context.Context, queue string, eventID string) error {
	if q.pushErr != nil {
		return q.pushErr
	}
	q.pushed = append(q.pushed, queue+"/"+eventID)
	return nil
}

func (q *endpointQueueStub) Pop(ctx context.Context, _ string) (string, error) {
	return "", ctx.Err()
}

func (q *endpointQueueStub) Depth(context.Context, string) (int, error) { return 0, nil }

type allowAllVerifier struct{}

func (allowAllVerifier) Verify(context.Context, core.InboundRequest) error { return nil }

type rejectVerifier struct{}

func (rejectVerifier) Verify(context.Context, core.InboundRequest) error {
	return fmt.Errorf("bad signature")
}

func testTemplate(verifier Verifier) ProviderWebhookTemplate {
	return ProviderWebhookTemplate{
		ProviderID: "testpay",
		Verifier:   verifier,
		Parser: func(req core.InboundRequest) (core.IngestEventInput, error) {
			envelope, err := ParseEnvelope(req.Body)
			if err != nil {
				return core.IngestEventInput{}, err
			}
			payload, err := envelope.PayloadMap()
			if err != nil {
				return core.IngestEventInput{}, err
			}
			return core.IngestEventInput{
				ID:        envelope.ID,
				EventType: envelope.Type,
				Payload:   payload,
			}, nil
		},
	}
}

func postWebhook(t *testing.T, endpoint *Endpoint, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/testpay", bytes.NewReader([]byte(body)))
	endpoint.ServeHTTP(rec, req)
	return rec
}

func TestEndpoint_AcceptsAndEnqueues(t *testing.T) {
	store := newEndpointStoreStub()
	queue := &endpointQueueStub{}
	endpoint, err := NewEndpoint(testTemplate(allowAllVerifier{}), store, queue)
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	rec := postWebhook(t, endpoint, `{"id":"evt_1","type":"payment.updated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(queue.pushed) != 1 || queue.pushed[0] != "testpay:main/evt_1" {
		t.Fatalf("unexpected queue state %v", queue.pushed)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["event_id"] != "evt_1" {
		t.Fatalf("unexpected body %v", payload)
	}
}

func TestEndpoint_DuplicateDeliveryDoesNotRequeue(t *testing.T) {
	store := newEndpointStoreStub()
	queue := &endpointQueueStub{}
	endpoint, err := NewEndpoint(testTemplate(allowAllVerifier{}), store, queue)
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	body := `{"id":"evt_1","type":"payment.updated"}`
	if rec := postWebhook(t, endpoint, body); rec.Code != http.StatusOK {
		t.Fatalf("first delivery: %d", rec.Code)
	}
	rec := postWebhook(t, endpoint, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate delivery must still answer 200, got %d", rec.Code)
	}
	if len(queue.pushed) != 1 {
		t.Fatalf("duplicate must not enqueue again, got %v", queue.pushed)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["deduped"] != true {
		t.Fatalf("expected dedupe marker, got %v", payload)
	}
}

func TestEndpoint_RejectsInvalidSignature(t *testing.T) {
	endpoint, err := NewEndpoint(testTemplate(rejectVerifier{}), newEndpointStoreStub(), &endpointQueueStub{})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	rec := postWebhook(t, endpoint, `{"id":"evt_1","type":"payment.updated"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEndpoint_RejectsMalformedPayload(t *testing.T) {
	endpoint, err := NewEndpoint(testTemplate(allowAllVerifier{}), newEndpointStoreStub(), &endpointQueueStub{})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	rec := postWebhook(t, endpoint, `{"id":"evt_1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing type, got %d", rec.Code)
	}
}

func TestEndpoint_StoreDownAnswers500(t *testing.T) {
	store := newEndpointStoreStub()
	store.ingestErr = fmt.Errorf("connection refused")
	endpoint, err := NewEndpoint(testTemplate(allowAllVerifier{}), store, &endpointQueueStub{})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	rec := postWebhook(t, endpoint, `{"id":"evt_1","type":"payment.updated"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the provider redelivers, got %d", rec.Code)
	}
}

func TestEndpoint_EnqueueFailureStillAnswers200(t *testing.T) {
	store := newEndpointStoreStub()
	queue := &endpointQueueStub{pushErr: fmt.Errorf("queue table locked")}
	endpoint, err := NewEndpoint(testTemplate(allowAllVerifier{}), store, queue)
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	rec := postWebhook(t, endpoint, `{"id":"evt_1","type":"payment.updated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("recorded event must answer 200, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "processing deferred" {
		t.Fatalf("expected deferred marker, got %v", payload)
	}
	if !store.events["evt_1"] {
		t.Fatal("event must still be durably recorded")
	}
}

func TestEndpoint_MethodNotAllowed(t *testing.T) {
	endpoint, err := NewEndpoint(testTemplate(allowAllVerifier{}), newEndpointStoreStub(), &endpointQueueStub{})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	rec := httptest.NewRecorder()
	endpoint.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/testpay", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected Allow header, got %q", rec.Header().Get("Allow"))
	}
}

func TestNewEndpoint_Validation(t *testing.T) {
	store := newEndpointStoreStub()
	queue := &endpointQueueStub{}

	if _, err := NewEndpoint(ProviderWebhookTemplate{}, store, queue); err == nil {
		t.Fatal("expected missing provider id to fail")
	}
	if _, err := NewEndpoint(ProviderWebhookTemplate{ProviderID: "x"}, store, queue); err == nil {
		t.Fatal("expected missing parser to fail")
	}
	if _, err := NewEndpoint(testTemplate(nil), nil, queue); err == nil {
		t.Fatal("expected missing store to fail")
	}
	if _, err := NewEndpoint(testTemplate(nil), store, nil); err == nil {
		t.Fatal("expected missing queue to fail")
	}
}
