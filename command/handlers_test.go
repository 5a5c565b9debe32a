package command

import (
	"context"
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mwesox/menuvo-payments/core"
)

type stubEventStore struct {
	events    map[string]core.Event
	ingestErr error
	processed []string
}

func newStubEventStore() *stubEventStore {
	return &stubEventStore{events: map[string]core.Event{}}
}

func (s *stubEventStore) Ingest(_ context.Context, in core.IngestEventInput) (core.IngestResult, error) {
	if s.ingestErr != nil {
		return core.IngestResult{}, s.ingestErr
	}
	if _, exists := s.events[in.ID]; exists {
		return core.IngestResult{ID: in.ID, IsNew: false}, nil
	}
	s.events[in.ID] = core.Event{
		ID:               in.ID,
		ProviderID:       in.ProviderID,
		EventType:        in.EventType,
		ProcessingStatus: core.ProcessingStatusPending,
	}
	return core.IngestResult{ID: in.ID, IsNew: true}, nil
}

func (s *stubEventStore) GetByID(_ context.Context, id string) (core.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return core.Event{}, core.NewEventNotFoundError(id)
	}
	return event, nil
}

func (s *stubEventStore) MarkProcessed(_ context.Context, id string) error {
	event, ok := s.events[id]
	if !ok {
		return core.NewEventNotFoundError(id)
	}
	event.ProcessingStatus = core.ProcessingStatusProcessed
	s.events[id] = event
	s.processed = append(s.processed, id)
	return nil
}

func (s *stubEventStore) MarkFailed(_ context.Context, id string) error {
	event, ok := s.events[id]
	if !ok {
		return core.NewEventNotFoundError(id)
	}
	event.ProcessingStatus = core.ProcessingStatusFailed
	s.events[id] = event
	return nil
}

func (s *stubEventStore) IncrementRetry(_ context.Context, id string) (int, error) {
	event, ok := s.events[id]
	if !ok {
		return 0, core.NewEventNotFoundError(id)
	}
	event.RetryCount++
	s.events[id] = event
	return event.RetryCount, nil
}

func (s *stubEventStore) GetRetryCount(_ context.Context, id string) (int, error) {
	event, ok := s.events[id]
	if !ok {
		return 0, core.NewEventNotFoundError(id)
	}
	return event.RetryCount, nil
}

type stubReopener struct {
	reopened []string
	err      error
}

func (s *stubReopener) Reopen(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.reopened = append(s.reopened, id)
	return nil
}

// stubQueue mimics the blocking Pop of the real queue store: an empty queue
// waits for ctx instead of returning. depths, when set, lets a test report a
// stale depth snapshot that no longer matches the actual entries.
type stubQueue struct {
	entries map[string][]string
	pushErr error
	depths  map[string]int
}

func newStubQueue() *stubQueue {
	return &stubQueue{entries: map[string][]string{}}
}

func (q *stubQueue) Push(_ context.Context, queue string, eventID string) error {
	if q.pushErr != nil {
		return q.pushErr
	}
	q.entries[queue] = append(q.entries[queue], eventID)
	return nil
}

func (q *stubQueue) Pop(ctx context.Context, queue string) (string, error) {
	pending := q.entries[queue]
	if len(pending) == 0 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	head := pending[0]
	q.entries[queue] = pending[1:]
	return head, nil
}

func (q *stubQueue) Depth(_ context.Context, queue string) (int, error) {
	if q.depths != nil {
		return q.depths[queue], nil
	}
	return len(q.entries[queue]), nil
}

func TestIngestEventCommand_NewEventIsEnqueued(t *testing.T) {
	store := newStubEventStore()
	queue := newStubQueue()
	cmd := NewIngestEventCommand(store, queue)

	msg := IngestEventMessage{Input: core.IngestEventInput{
		ID:         "evt_1",
		ProviderID: "stripe",
		EventType:  "checkout.session.completed",
	}}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}

	mainQueue := core.QueueName("stripe", core.QueueMain)
	if got := queue.entries[mainQueue]; len(got) != 1 || got[0] != "evt_1" {
		t.Fatalf("expected evt_1 on main queue, got %v", got)
	}
}

func TestIngestEventCommand_DuplicateIsNotReenqueued(t *testing.T) {
	store := newStubEventStore()
	queue := newStubQueue()
	cmd := NewIngestEventCommand(store, queue)

	msg := IngestEventMessage{Input: core.IngestEventInput{
		ID:         "evt_1",
		ProviderID: "stripe",
		EventType:  "checkout.session.completed",
	}}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("second execute: %v", err)
	}

	mainQueue := core.QueueName("stripe", core.QueueMain)
	if got := queue.entries[mainQueue]; len(got) != 1 {
		t.Fatalf("expected single queue entry after duplicate ingest, got %v", got)
	}
}

func TestIngestEventMessage_Validation(t *testing.T) {
	cases := []IngestEventMessage{
		{Input: core.IngestEventInput{ProviderID: "stripe", EventType: "x"}},
		{Input: core.IngestEventInput{ID: "evt_1", EventType: "x"}},
		{Input: core.IngestEventInput{ID: "evt_1", ProviderID: "stripe"}},
	}
	for _, msg := range cases {
		if err := msg.Validate(); err == nil {
			t.Fatalf("expected validation failure for %+v", msg)
		}
	}
}

func TestMessageValidation_BadInputEnvelope(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"ingest", IngestEventMessage{}.Validate()},
		{"mark processed", MarkEventProcessedMessage{}.Validate()},
		{"requeue", RequeueEventMessage{EventID: "evt_1"}.Validate()},
		{"replay", ReplayDeadLetterMessage{ProviderID: "mollie", Limit: -1}.Validate()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Fatal("expected validation failure")
			}
			var richErr *goerrors.Error
			if !goerrors.As(tc.err, &richErr) {
				t.Fatalf("expected error envelope, got %T", tc.err)
			}
			if richErr.TextCode != core.PaymentsErrorBadInput {
				t.Fatalf("unexpected text code %q", richErr.TextCode)
			}
			if richErr.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status %d", richErr.Code)
			}
		})
	}
}

func TestMarkEventProcessedCommand(t *testing.T) {
	store := newStubEventStore()
	if _, err := store.Ingest(context.Background(), core.IngestEventInput{
		ID: "evt_1", ProviderID: "stripe", EventType: "x",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cmd := NewMarkEventProcessedCommand(store)
	if err := cmd.Execute(context.Background(), MarkEventProcessedMessage{EventID: "evt_1"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(store.processed) != 1 || store.processed[0] != "evt_1" {
		t.Fatalf("expected evt_1 marked processed, got %v", store.processed)
	}

	err := cmd.Execute(context.Background(), MarkEventProcessedMessage{EventID: "evt_missing"})
	if !core.IsEventNotFound(err) {
		t.Fatalf("expected not-found for unknown id, got: %v", err)
	}
}

func TestRequeueEventCommand_RequiresRecordedEvent(t *testing.T) {
	store := newStubEventStore()
	queue := newStubQueue()
	cmd := NewRequeueEventCommand(store, queue)

	err := cmd.Execute(context.Background(), RequeueEventMessage{ProviderID: "stripe", EventID: "evt_ghost"})
	if !core.IsEventNotFound(err) {
		t.Fatalf("expected not-found for unrecorded event, got: %v", err)
	}

	if _, err := store.Ingest(context.Background(), core.IngestEventInput{
		ID: "evt_1", ProviderID: "stripe", EventType: "x",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := cmd.Execute(context.Background(), RequeueEventMessage{ProviderID: "stripe", EventID: "evt_1"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	mainQueue := core.QueueName("stripe", core.QueueMain)
	if got := queue.entries[mainQueue]; len(got) != 1 || got[0] != "evt_1" {
		t.Fatalf("expected evt_1 requeued, got %v", got)
	}
}

func TestReplayDeadLetterCommand_MovesEntriesBackToMain(t *testing.T) {
	reopener := &stubReopener{}
	queue := newStubQueue()
	deadLetter := core.QueueName("mollie", core.QueueDeadLetter)
	mainQueue := core.QueueName("mollie", core.QueueMain)
	queue.entries[deadLetter] = []string{"evt_a", "evt_b", "evt_c"}

	cmd := NewReplayDeadLetterCommand(reopener, queue)
	if err := cmd.Execute(context.Background(), ReplayDeadLetterMessage{ProviderID: "mollie", Limit: 2}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got := queue.entries[mainQueue]; len(got) != 2 || got[0] != "evt_a" || got[1] != "evt_b" {
		t.Fatalf("expected evt_a and evt_b replayed in order, got %v", got)
	}
	if got := queue.entries[deadLetter]; len(got) != 1 || got[0] != "evt_c" {
		t.Fatalf("expected evt_c left on dead-letter, got %v", got)
	}
	if len(reopener.reopened) != 2 {
		t.Fatalf("expected 2 reopened events, got %v", reopener.reopened)
	}
}

func TestReplayDeadLetterCommand_StaleDepthStopsAtEmptyQueue(t *testing.T) {
	reopener := &stubReopener{}
	queue := newStubQueue()
	deadLetter := core.QueueName("mollie", core.QueueDeadLetter)
	mainQueue := core.QueueName("mollie", core.QueueMain)
	queue.entries[deadLetter] = []string{"evt_a"}
	// Depth claims three entries, as if a concurrent replay drained two of
	// them after the snapshot. The loop must stop instead of blocking on the
	// empty queue.
	queue.depths = map[string]int{deadLetter: 3}

	cmd := NewReplayDeadLetterCommand(reopener, queue)
	if err := cmd.Execute(context.Background(), ReplayDeadLetterMessage{ProviderID: "mollie"}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got := queue.entries[mainQueue]; len(got) != 1 || got[0] != "evt_a" {
		t.Fatalf("expected only evt_a replayed, got %v", got)
	}
	if len(reopener.reopened) != 1 {
		t.Fatalf("expected 1 reopened event, got %v", reopener.reopened)
	}
}

func TestReplayDeadLetterCommand_ReopenFailureRestoresEntry(t *testing.T) {
	reopener := &stubReopener{err: errors.New("db down")}
	queue := newStubQueue()
	deadLetter := core.QueueName("mollie", core.QueueDeadLetter)
	queue.entries[deadLetter] = []string{"evt_a"}

	cmd := NewReplayDeadLetterCommand(reopener, queue)
	if err := cmd.Execute(context.Background(), ReplayDeadLetterMessage{ProviderID: "mollie"}); err == nil {
		t.Fatal("expected reopen failure to propagate")
	}
	if got := queue.entries[deadLetter]; len(got) != 1 || got[0] != "evt_a" {
		t.Fatalf("expected entry restored to dead-letter, got %v", got)
	}
}
