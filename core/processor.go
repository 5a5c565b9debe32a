package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const defaultMaxRetries = 3

// Processor is the worker loop: it pops event ids off the queue, loads the
// event, dispatches it to the registered handler, and records the outcome.
// Failed dispatches are re-enqueued up to maxRetries, then dead-lettered.
//
// It is safe to run several Processors against the same store and queue: the
// store's unique-key insert and atomic retry increment make cross-worker
// races benign, and the processed-status check dedupes redundant queue
// entries.
type Processor struct {
	store    EventStore
	queue    EventQueue
	registry *HandlerRegistry

	logger         Logger
	loggerProvider LoggerProvider
	metrics        MetricsRecorder

	queueName       string
	deadLetterName  string
	maxRetries      int
	dispatchTimeout time.Duration
	errorBackoff    time.Duration
	now             Clock
}

func NewProcessor(
	store EventStore,
	queue EventQueue,
	registry *HandlerRegistry,
	options ...ProcessorOption,
) (*Processor, error) {
	if store == nil {
		return nil, fmt.Errorf("core: event store is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("core: event queue is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("core: handler registry is required")
	}

	p := &Processor{
		store:          store,
		queue:          queue,
		registry:       registry,
		metrics:        NopMetricsRecorder{},
		queueName:      QueueMain,
		deadLetterName: QueueDeadLetter,
		maxRetries:     defaultMaxRetries,
		errorBackoff:   5 * time.Second,
		now:            UTCNow,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(p)
	}

	provider, logger := glog.Resolve("payments", p.loggerProvider, p.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("payments.processor"); named != nil {
			logger = glog.Ensure(named)
		}
	}
	p.logger = logger
	p.loggerProvider = provider

	if p.maxRetries < 0 {
		p.maxRetries = defaultMaxRetries
	}
	return p, nil
}

// Run consumes the queue until ctx is done. Transient infrastructure errors
// are logged and absorbed with a fixed backoff; the loop never exits on them.
func (p *Processor) Run(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("core: processor is nil")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.ProcessNext(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logError(ctx, "processor iteration failed", map[string]any{
				"queue": p.queueName,
				"error": err.Error(),
			})
			p.recordCounter(ctx, "payments.processor.loop_errors.total", 1, nil)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.errorBackoff):
			}
		}
	}
}

// ProcessNext handles exactly one queue entry. It blocks on the queue pop;
// handler failures are absorbed into the retry path and never returned. The
// returned error indicates infrastructure trouble (queue or store
// unreachable), which Run treats as retryable.
func (p *Processor) ProcessNext(ctx context.Context) error {
	eventID, err := p.queue.Pop(ctx, p.queueName)
	if err != nil {
		return err
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil
	}

	event, err := p.store.GetByID(ctx, eventID)
	if err != nil {
		if IsEventNotFound(err) {
			// A queued id with no store row points at an ingestion bug;
			// retrying cannot repair it.
			p.logError(ctx, "queued event missing from store, dropping", map[string]any{
				"event_id": eventID,
				"queue":    p.queueName,
			})
			p.recordCounter(ctx, "payments.processor.missing_events.total", 1, nil)
			return nil
		}
		return err
	}

	if event.ProcessingStatus == ProcessingStatusProcessed {
		// Redundant queue entry; a retry raced with normal delivery.
		p.logInfo(ctx, "event already processed, skipping", map[string]any{
			"event_id":   event.ID,
			"event_type": event.EventType,
		})
		p.recordCounter(ctx, "payments.processor.skipped.total", 1, tagsFor(event))
		return nil
	}

	startedAt := p.now()
	handled, dispatchErr := p.dispatch(ctx, event)
	p.recordHistogram(
		ctx,
		"payments.processor.dispatch.duration_ms",
		float64(time.Since(startedAt).Milliseconds()),
		tagsFor(event),
	)

	if dispatchErr != nil {
		return p.recordFailure(ctx, event, dispatchErr)
	}

	if !handled {
		p.logInfo(ctx, "no handler registered for event type", map[string]any{
			"event_id":   event.ID,
			"event_type": event.EventType,
		})
		p.recordCounter(ctx, "payments.processor.unhandled.total", 1, tagsFor(event))
	}
	if err := p.store.MarkProcessed(ctx, event.ID); err != nil {
		return err
	}
	p.recordCounter(ctx, "payments.processor.processed.total", 1, tagsFor(event))
	return nil
}

func (p *Processor) dispatch(ctx context.Context, event Event) (bool, error) {
	if p.dispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.dispatchTimeout)
		defer cancel()
	}
	return p.registry.Dispatch(ctx, event)
}

// recordFailure runs the bounded retry path: re-enqueue while retryCount is
// under the bound, dead-letter once it is exhausted. Handler errors stop
// here; only store/queue errors propagate.
func (p *Processor) recordFailure(ctx context.Context, event Event, cause error) error {
	retryCount, err := p.store.GetRetryCount(ctx, event.ID)
	if err != nil {
		return err
	}

	if retryCount < p.maxRetries {
		newCount, err := p.store.IncrementRetry(ctx, event.ID)
		if err != nil {
			return err
		}
		if err := p.queue.Push(ctx, p.queueName, event.ID); err != nil {
			return err
		}
		p.logError(ctx, "handler failed, retry scheduled", map[string]any{
			"event_id":    event.ID,
			"event_type":  event.EventType,
			"retry_count": newCount,
			"max_retries": p.maxRetries,
			"error":       cause.Error(),
		})
		p.recordCounter(ctx, "payments.processor.retried.total", 1, tagsFor(event))
		return nil
	}

	if err := p.queue.Push(ctx, p.deadLetterName, event.ID); err != nil {
		return err
	}
	if err := p.store.MarkFailed(ctx, event.ID); err != nil {
		return err
	}
	p.logError(ctx, "retries exhausted, event dead-lettered", map[string]any{
		"event_id":    event.ID,
		"event_type":  event.EventType,
		"retry_count": retryCount,
		"error":       cause.Error(),
	})
	p.recordCounter(ctx, "payments.processor.dead_lettered.total", 1, tagsFor(event))
	return nil
}

func (p *Processor) logInfo(ctx context.Context, message string, fields map[string]any) {
	p.logWithLevel(ctx, "info", message, fields)
}

func (p *Processor) logError(ctx context.Context, message string, fields map[string]any) {
	p.logWithLevel(ctx, "error", message, fields)
}

func (p *Processor) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if p == nil || p.logger == nil {
		return
	}
	logger := p.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch level {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (p *Processor) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.IncCounter(ctx, name, value, cloneTags(tags))
}

func (p *Processor) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.ObserveHistogram(ctx, name, value, cloneTags(tags))
}

func tagsFor(event Event) map[string]string {
	tags := map[string]string{}
	if provider := strings.TrimSpace(event.ProviderID); provider != "" {
		tags["provider_id"] = provider
	}
	if eventType := strings.TrimSpace(event.EventType); eventType != "" {
		tags["event_type"] = eventType
	}
	return tags
}
