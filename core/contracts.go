package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// EventStore persists events exactly once and exposes lifecycle transitions.
// The unique-key insert in Ingest is the sole idempotency guarantee in the
// pipeline; callers never need their own deduplication.
type EventStore interface {
	Ingest(ctx context.Context, in IngestEventInput) (IngestResult, error)
	GetByID(ctx context.Context, id string) (Event, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	IncrementRetry(ctx context.Context, id string) (int, error)
	GetRetryCount(ctx context.Context, id string) (int, error)
}

// EventQueue is a durable FIFO of event ids. Pop blocks until an entry is
// available or ctx is done. Entries carry no business data, only a pointer
// into the EventStore, so the worker always re-reads current state.
type EventQueue interface {
	Push(ctx context.Context, queue string, eventID string) error
	Pop(ctx context.Context, queue string) (string, error)
	Depth(ctx context.Context, queue string) (int, error)
}

// Handler processes an event that carries its full payload.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// ThinHandler processes an event that carries only a reference; the handler
// re-fetches the full object from the provider before acting.
type ThinHandler interface {
	HandleRef(ctx context.Context, ref EventRef) error
}

type ThinHandlerFunc func(ctx context.Context, ref EventRef) error

func (f ThinHandlerFunc) HandleRef(ctx context.Context, ref EventRef) error {
	return f(ctx, ref)
}

// InboundRequest is the transport-neutral view of one provider webhook
// delivery. Body is the raw request body the signature was computed over.
type InboundRequest struct {
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

// EventReader is the read-only slice of EventStore used by introspection
// surfaces.
type EventReader interface {
	GetByID(ctx context.Context, id string) (Event, error)
}

type StoreProvider interface {
	EventStore() EventStore
	EventQueue() EventQueue
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
	SetGauge(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Clock lets tests pin time; production code uses UTCNow.
type Clock func() time.Time

func UTCNow() time.Time {
	return time.Now().UTC()
}
