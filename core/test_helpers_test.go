package core

import (
	"context"
	"sync"
	"time"
)

type memoryEventStore struct {
	mu     sync.Mutex
	events map[string]*Event
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{events: map[string]*Event{}}
}

func (s *memoryEventStore) Ingest(_ context.Context, in IngestEventInput) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[in.ID]; exists {
		return IngestResult{ID: in.ID, IsNew: false}, nil
	}
	s.events[in.ID] = &Event{
		ID:                in.ID,
		ProviderID:        in.ProviderID,
		EventType:         in.EventType,
		APIVersion:        in.APIVersion,
		RelatedObjectID:   in.RelatedObjectID,
		RelatedObjectType: in.RelatedObjectType,
		Payload:           in.Payload,
		ProcessingStatus:  ProcessingStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	return IngestResult{ID: in.ID, IsNew: true}, nil
}

func (s *memoryEventStore) GetByID(_ context.Context, id string) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return Event{}, NewEventNotFoundError(id)
	}
	return *event, nil
}

func (s *memoryEventStore) MarkProcessed(_ context.Context, id string) error {
	return s.setStatus(id, ProcessingStatusProcessed)
}

func (s *memoryEventStore) MarkFailed(_ context.Context, id string) error {
	return s.setStatus(id, ProcessingStatusFailed)
}

func (s *memoryEventStore) setStatus(id string, status ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return NewEventNotFoundError(id)
	}
	now := time.Now().UTC()
	event.ProcessingStatus = status
	event.ProcessedAt = &now
	return nil
}

func (s *memoryEventStore) IncrementRetry(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return 0, NewEventNotFoundError(id)
	}
	event.RetryCount++
	return event.RetryCount, nil
}

func (s *memoryEventStore) GetRetryCount(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return 0, NewEventNotFoundError(id)
	}
	return event.RetryCount, nil
}

type memoryQueue struct {
	mu      sync.Mutex
	entries map[string][]string
	pushes  map[string]int
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{
		entries: map[string][]string{},
		pushes:  map[string]int{},
	}
}

func (q *memoryQueue) Push(_ context.Context, queue string, eventID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[queue] = append(q.entries[queue], eventID)
	q.pushes[queue]++
	return nil
}

func (q *memoryQueue) Pop(ctx context.Context, queue string) (string, error) {
	for {
		q.mu.Lock()
		entries := q.entries[queue]
		if len(entries) > 0 {
			head := entries[0]
			q.entries[queue] = entries[1:]
			q.mu.Unlock()
			return head, nil
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (q *memoryQueue) Depth(_ context.Context, queue string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries[queue]), nil
}

func (q *memoryQueue) pushCount(queue string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushes[queue]
}

type countingHandler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (h *countingHandler) Handle(context.Context, Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.err
}

func (h *countingHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

var (
	_ EventStore = (*memoryEventStore)(nil)
	_ EventQueue = (*memoryQueue)(nil)
)
