package payments

import (
	"fmt"

	"github.com/mwesox/menuvo-payments/command"
	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/query"
)

// Commands bundles the operator-facing mutations of the pipeline.
// ReplayDeadLetter is nil when the event store cannot reopen events.
type Commands struct {
	IngestEvent        *command.IngestEventCommand
	MarkEventProcessed *command.MarkEventProcessedCommand
	RequeueEvent       *command.RequeueEventCommand
	ReplayDeadLetter   *command.ReplayDeadLetterCommand
}

// Queries bundles the read surfaces of the pipeline. ListEvents is nil when
// the event store cannot list by status, such as a plain in-memory store.
type Queries struct {
	GetEvent            *query.GetEventQuery
	ListEvents          *query.ListEventsQuery
	QueueDepth          *query.QueueDepthQuery
	ListRegisteredTypes *query.ListRegisteredTypesQuery
}

// Facade wires the command and query surfaces over one store provider and
// one handler registry, so hosts compose the pipeline from a single value.
type Facade struct {
	stores   core.StoreProvider
	registry *core.HandlerRegistry
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	reopener command.EventReopener
	lister   query.EventLister
}

// WithEventReopener overrides the reopener resolved from the event store.
func WithEventReopener(reopener command.EventReopener) FacadeOption {
	return func(options *facadeOptions) {
		options.reopener = reopener
	}
}

// WithEventLister overrides the lister resolved from the event store. Needed
// when the store is wrapped, like behind the read-through cache, and the
// wrapper does not forward ListByStatus.
func WithEventLister(lister query.EventLister) FacadeOption {
	return func(options *facadeOptions) {
		options.lister = lister
	}
}

func NewFacade(stores core.StoreProvider, registry *core.HandlerRegistry, opts ...FacadeOption) (*Facade, error) {
	if stores == nil {
		return nil, fmt.Errorf("payments: store provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("payments: handler registry is required")
	}
	store := stores.EventStore()
	queue := stores.EventQueue()
	if store == nil || queue == nil {
		return nil, fmt.Errorf("payments: store provider returned nil store or queue")
	}

	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reopener := cfg.reopener
	if reopener == nil {
		reopener, _ = store.(command.EventReopener)
	}
	lister := cfg.lister
	if lister == nil {
		lister, _ = store.(query.EventLister)
	}

	facade := &Facade{stores: stores, registry: registry}
	facade.commands = Commands{
		IngestEvent:        command.NewIngestEventCommand(store, queue),
		MarkEventProcessed: command.NewMarkEventProcessedCommand(store),
		RequeueEvent:       command.NewRequeueEventCommand(store, queue),
	}
	if reopener != nil {
		facade.commands.ReplayDeadLetter = command.NewReplayDeadLetterCommand(reopener, queue)
	}
	facade.queries = Queries{
		GetEvent:            query.NewGetEventQuery(store),
		QueueDepth:          query.NewQueueDepthQuery(queue),
		ListRegisteredTypes: query.NewListRegisteredTypesQuery(registry),
	}
	if lister != nil {
		facade.queries.ListEvents = query.NewListEventsQuery(lister)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Stores() core.StoreProvider {
	if f == nil {
		return nil
	}
	return f.stores
}

func (f *Facade) Registry() *core.HandlerRegistry {
	if f == nil {
		return nil
	}
	return f.registry
}

// NewProcessorFromFacade builds the worker loop over the facade's store,
// queue, and registry.
func NewProcessorFromFacade(f *Facade, opts ...ProcessorOption) (*Processor, error) {
	if f == nil {
		return nil, fmt.Errorf("payments: facade is required")
	}
	return core.NewProcessor(f.stores.EventStore(), f.stores.EventQueue(), f.registry, opts...)
}

// NewProcessorFromConfig builds the worker loop from a resolved Config. Extra
// options are applied after the config-derived ones, so callers can still
// override individual settings.
func NewProcessorFromConfig(f *Facade, cfg Config, extra ...ProcessorOption) (*Processor, error) {
	if f == nil {
		return nil, fmt.Errorf("payments: facade is required")
	}
	options := append(cfg.ProcessorOptions(), extra...)
	return core.NewProcessor(f.stores.EventStore(), f.stores.EventQueue(), f.registry, options...)
}
