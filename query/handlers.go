package query

import (
	"context"

	"github.com/mwesox/menuvo-payments/core"
)

// RegisteredTypesLister is satisfied by the handler registry.
type RegisteredTypesLister interface {
	ListRegisteredTypes() []string
}

type GetEventQuery struct {
	reader core.EventReader
}

func NewGetEventQuery(reader core.EventReader) *GetEventQuery {
	return &GetEventQuery{reader: reader}
}

func (q *GetEventQuery) Query(ctx context.Context, msg GetEventMessage) (core.Event, error) {
	if q == nil || q.reader == nil {
		return core.Event{}, queryDependencyError("query: event reader is required")
	}
	return q.reader.GetByID(ctx, msg.EventID)
}

// EventLister is the operator-facing listing surface the SQL event store
// implements on top of its repository.
type EventLister interface {
	ListByStatus(ctx context.Context, providerID string, status core.ProcessingStatus, limit int, offset int) ([]core.Event, int, error)
}

// ListEventsResult carries one page of events plus the total match count, so
// callers can paginate.
type ListEventsResult struct {
	Events []core.Event
	Total  int
}

type ListEventsQuery struct {
	lister EventLister
}

func NewListEventsQuery(lister EventLister) *ListEventsQuery {
	return &ListEventsQuery{lister: lister}
}

func (q *ListEventsQuery) Query(ctx context.Context, msg ListEventsMessage) (ListEventsResult, error) {
	if q == nil || q.lister == nil {
		return ListEventsResult{}, queryDependencyError("query: event lister is required")
	}
	events, total, err := q.lister.ListByStatus(ctx, msg.ProviderID, msg.Status, msg.Limit, msg.Offset)
	if err != nil {
		return ListEventsResult{}, err
	}
	return ListEventsResult{Events: events, Total: total}, nil
}

type QueueDepthQuery struct {
	queue core.EventQueue
}

func NewQueueDepthQuery(queue core.EventQueue) *QueueDepthQuery {
	return &QueueDepthQuery{queue: queue}
}

func (q *QueueDepthQuery) Query(ctx context.Context, msg QueueDepthMessage) (int, error) {
	if q == nil || q.queue == nil {
		return 0, queryDependencyError("query: event queue is required")
	}
	return q.queue.Depth(ctx, core.QueueName(msg.ProviderID, msg.Queue))
}

type ListRegisteredTypesQuery struct {
	lister RegisteredTypesLister
}

func NewListRegisteredTypesQuery(lister RegisteredTypesLister) *ListRegisteredTypesQuery {
	return &ListRegisteredTypesQuery{lister: lister}
}

func (q *ListRegisteredTypesQuery) Query(_ context.Context, _ ListRegisteredTypesMessage) ([]string, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: handler registry is required")
	}
	return q.lister.ListRegisteredTypes(), nil
}
