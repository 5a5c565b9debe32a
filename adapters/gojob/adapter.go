package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwesox/menuvo-payments/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

// JobIDProcessEvent identifies the single job kind this pipeline schedules:
// process one stored event referenced by id.
const JobIDProcessEvent = "payments.event.process"

const (
	paramQueue   = "queue"
	paramEventID = "event_id"
)

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// Normalize enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) Normalize(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// NewEventMessage builds the go-job execution message for one queued event.
// The idempotency key matches the queue entry so schedulers with dedup
// enabled drop double submissions of the same event.
func NewEventMessage(queueName, eventID string) *job.ExecutionMessage {
	queueName = strings.TrimSpace(queueName)
	eventID = strings.TrimSpace(eventID)
	return &job.ExecutionMessage{
		JobID: JobIDProcessEvent,
		Parameters: map[string]any{
			paramQueue:   queueName,
			paramEventID: eventID,
		},
		IdempotencyKey: queueName + "/" + eventID,
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

// EventFromMessage extracts the queue name and event id carried by a
// processing message.
func EventFromMessage(msg *job.ExecutionMessage) (string, string, error) {
	if msg == nil {
		return "", "", fmt.Errorf("gojob: execution message is required")
	}
	if msg.JobID != JobIDProcessEvent {
		return "", "", fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	queueName, _ := msg.Parameters[paramQueue].(string)
	eventID, _ := msg.Parameters[paramEventID].(string)
	if strings.TrimSpace(queueName) == "" || strings.TrimSpace(eventID) == "" {
		return "", "", fmt.Errorf("gojob: message is missing queue or event id")
	}
	return queueName, eventID, nil
}

// EventEnqueuer feeds the durable event queue from a go-job producer.
type EventEnqueuer struct {
	queue core.EventQueue
}

func NewEventEnqueuer(eventQueue core.EventQueue) *EventEnqueuer {
	return &EventEnqueuer{queue: eventQueue}
}

func (e *EventEnqueuer) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if e == nil || e.queue == nil {
		return fmt.Errorf("gojob: event queue is not configured")
	}
	queueName, eventID, err := EventFromMessage(msg)
	if err != nil {
		return err
	}
	return e.queue.Push(ctx, queueName, eventID)
}

// EventDequeuer drains one named queue and hands entries to go-job workers
// as deliveries. Pop removes the entry, so Ack is a no-op and Nack pushes
// the id back to the main queue or over to the dead-letter queue.
type EventDequeuer struct {
	queue      core.EventQueue
	name       string
	deadLetter string
	policy     RetryPolicy
}

func NewEventDequeuer(eventQueue core.EventQueue, name, deadLetter string, policy RetryPolicy) *EventDequeuer {
	return &EventDequeuer{
		queue:      eventQueue,
		name:       strings.TrimSpace(name),
		deadLetter: strings.TrimSpace(deadLetter),
		policy:     policy,
	}
}

func (d *EventDequeuer) Dequeue(ctx context.Context) (queue.Delivery, error) {
	if d == nil || d.queue == nil {
		return nil, fmt.Errorf("gojob: event queue is not configured")
	}
	eventID, err := d.queue.Pop(ctx, d.name)
	if err != nil {
		return nil, err
	}
	return &EventDelivery{
		queue:      d.queue,
		name:       d.name,
		deadLetter: d.deadLetter,
		eventID:    eventID,
		policy:     d.policy,
	}, nil
}

type EventDelivery struct {
	queue      core.EventQueue
	name       string
	deadLetter string
	eventID    string
	policy     RetryPolicy
}

func (d *EventDelivery) Message() *job.ExecutionMessage {
	if d == nil {
		return nil
	}
	return NewEventMessage(d.name, d.eventID)
}

// Ack is a no-op: claiming the entry already removed it from the queue.
func (d *EventDelivery) Ack(context.Context) error {
	if d == nil || d.queue == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	return nil
}

func (d *EventDelivery) Nack(ctx context.Context, opts queue.NackOptions) error {
	return d.NackForAttempt(ctx, opts, 0)
}

func (d *EventDelivery) NackForAttempt(ctx context.Context, opts queue.NackOptions, attempt int) error {
	if d == nil || d.queue == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	normalized := d.policy.Normalize(opts, attempt)
	if normalized.DeadLetter {
		if d.deadLetter == "" {
			return fmt.Errorf("gojob: dead-letter queue is not configured")
		}
		return d.queue.Push(ctx, d.deadLetter, d.eventID)
	}
	if normalized.Requeue {
		return d.queue.Push(ctx, d.name, d.eventID)
	}
	return nil
}

// MetricsHook records worker lifecycle signals for scraping.
type MetricsHook struct {
	metrics core.MetricsRecorder
	logger  glog.Logger
}

func NewMetricsHook(metrics core.MetricsRecorder, logger glog.Logger) *MetricsHook {
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &MetricsHook{metrics: metrics, logger: glog.Ensure(logger)}
}

func (h *MetricsHook) OnStart(ctx context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.metrics.IncCounter(ctx, "payments.jobs.started.total", 1, hookTags(event))
}

func (h *MetricsHook) OnSuccess(ctx context.Context, event worker.Event) {
	if h == nil {
		return
	}
	tags := hookTags(event)
	h.metrics.IncCounter(ctx, "payments.jobs.succeeded.total", 1, tags)
	h.metrics.ObserveHistogram(ctx, "payments.jobs.duration_ms", float64(event.Duration.Milliseconds()), tags)
}

func (h *MetricsHook) OnFailure(ctx context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.metrics.IncCounter(ctx, "payments.jobs.failed.total", 1, hookTags(event))
	if event.Err != nil {
		h.logger.Error("job failed", "job_id", hookJobID(event), "attempt", event.Attempt, "error", event.Err)
	}
}

func (h *MetricsHook) OnRetry(ctx context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.metrics.IncCounter(ctx, "payments.jobs.retried.total", 1, hookTags(event))
}

func hookTags(event worker.Event) map[string]string {
	return map[string]string{"job_id": hookJobID(event)}
}

func hookJobID(event worker.Event) string {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	if message == nil {
		return ""
	}
	return message.JobID
}

var (
	_ queue.Enqueuer = (*EventEnqueuer)(nil)
	_ queue.Dequeuer = (*EventDequeuer)(nil)
	_ queue.Delivery = (*EventDelivery)(nil)
	_ worker.Hook    = (*MetricsHook)(nil)
)
