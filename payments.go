package payments

import "github.com/mwesox/menuvo-payments/core"

type Config = core.Config

type ProcessorSettings = core.ProcessorSettings

type QueueSettings = core.QueueSettings

type Event = core.Event
type EventRef = core.EventRef
type ProcessingStatus = core.ProcessingStatus
type IngestEventInput = core.IngestEventInput
type IngestResult = core.IngestResult

type EventStore = core.EventStore
type EventQueue = core.EventQueue
type EventReader = core.EventReader
type StoreProvider = core.StoreProvider
type Handler = core.Handler
type HandlerFunc = core.HandlerFunc
type ThinHandler = core.ThinHandler
type ThinHandlerFunc = core.ThinHandlerFunc
type HandlerRegistry = core.HandlerRegistry
type Processor = core.Processor
type ProcessorOption = core.ProcessorOption
type MetricsRecorder = core.MetricsRecorder
type StatusChange = core.StatusChange

type InboundRequest = core.InboundRequest
type InboundResult = core.InboundResult

const (
	ProcessingStatusPending   = core.ProcessingStatusPending
	ProcessingStatusProcessed = core.ProcessingStatusProcessed
	ProcessingStatusFailed    = core.ProcessingStatusFailed

	QueueMain       = core.QueueMain
	QueueDeadLetter = core.QueueDeadLetter
)

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithMaxRetries      = core.WithMaxRetries
	WithDispatchTimeout = core.WithDispatchTimeout
	WithErrorBackoff    = core.WithErrorBackoff
	WithQueueNames      = core.WithQueueNames
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func QueueName(providerID string, queue string) string {
	return core.QueueName(providerID, queue)
}

func NewHandlerRegistry() *HandlerRegistry {
	return core.NewHandlerRegistry()
}

func NewProcessor(
	store EventStore,
	queue EventQueue,
	registry *HandlerRegistry,
	opts ...ProcessorOption,
) (*Processor, error) {
	return core.NewProcessor(store, queue, registry, opts...)
}
