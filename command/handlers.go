package command

import (
	"context"
	"errors"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/mwesox/menuvo-payments/core"
)

// replayClaimTimeout bounds each dead-letter claim during a replay. The depth
// check above the loop is only a snapshot: a concurrent replayer may drain
// entries before this one pops them, and an unbounded Pop would then block on
// an empty queue.
const replayClaimTimeout = 500 * time.Millisecond

// EventReopener resets a terminal event back to pending with a fresh retry
// budget. The SQL event store implements it; the core contract does not need
// it because only operator tooling reopens events.
type EventReopener interface {
	Reopen(ctx context.Context, id string) error
}

type IngestEventCommand struct {
	store core.EventStore
	queue core.EventQueue
}

func NewIngestEventCommand(store core.EventStore, queue core.EventQueue) *IngestEventCommand {
	return &IngestEventCommand{store: store, queue: queue}
}

func (c *IngestEventCommand) Execute(ctx context.Context, msg IngestEventMessage) error {
	if c == nil || c.store == nil || c.queue == nil {
		return commandDependencyError("command: event store and queue are required")
	}
	result, err := c.store.Ingest(ctx, msg.Input)
	if err != nil {
		return err
	}
	if result.IsNew {
		queueName := core.QueueName(msg.Input.ProviderID, core.QueueMain)
		if err := c.queue.Push(ctx, queueName, result.ID); err != nil {
			return err
		}
	}
	storeResult(ctx, result)
	return nil
}

type MarkEventProcessedCommand struct {
	store core.EventStore
}

func NewMarkEventProcessedCommand(store core.EventStore) *MarkEventProcessedCommand {
	return &MarkEventProcessedCommand{store: store}
}

func (c *MarkEventProcessedCommand) Execute(ctx context.Context, msg MarkEventProcessedMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: event store is required")
	}
	return c.store.MarkProcessed(ctx, msg.EventID)
}

// RequeueEventCommand puts an already-recorded event back on the main queue
// without touching its lifecycle state. The worker's skip-if-processed check
// makes a redundant requeue harmless.
type RequeueEventCommand struct {
	store core.EventStore
	queue core.EventQueue
}

func NewRequeueEventCommand(store core.EventStore, queue core.EventQueue) *RequeueEventCommand {
	return &RequeueEventCommand{store: store, queue: queue}
}

func (c *RequeueEventCommand) Execute(ctx context.Context, msg RequeueEventMessage) error {
	if c == nil || c.store == nil || c.queue == nil {
		return commandDependencyError("command: event store and queue are required")
	}
	if _, err := c.store.GetByID(ctx, msg.EventID); err != nil {
		return err
	}
	queueName := core.QueueName(msg.ProviderID, core.QueueMain)
	return c.queue.Push(ctx, queueName, msg.EventID)
}

// ReplayDeadLetterResult reports how many dead-letter entries went back to
// the main queue.
type ReplayDeadLetterResult struct {
	Replayed []string
}

type ReplayDeadLetterCommand struct {
	reopener EventReopener
	queue    core.EventQueue
}

func NewReplayDeadLetterCommand(reopener EventReopener, queue core.EventQueue) *ReplayDeadLetterCommand {
	return &ReplayDeadLetterCommand{reopener: reopener, queue: queue}
}

func (c *ReplayDeadLetterCommand) Execute(ctx context.Context, msg ReplayDeadLetterMessage) error {
	if c == nil || c.reopener == nil || c.queue == nil {
		return commandDependencyError("command: event reopener and queue are required")
	}

	providerID := strings.TrimSpace(msg.ProviderID)
	deadLetter := core.QueueName(providerID, core.QueueDeadLetter)
	mainQueue := core.QueueName(providerID, core.QueueMain)

	depth, err := c.queue.Depth(ctx, deadLetter)
	if err != nil {
		return err
	}
	limit := msg.Limit
	if limit <= 0 || limit > depth {
		limit = depth
	}

	result := ReplayDeadLetterResult{}
	for i := 0; i < limit; i++ {
		popCtx, cancel := context.WithTimeout(ctx, replayClaimTimeout)
		id, popErr := c.queue.Pop(popCtx, deadLetter)
		cancel()
		if popErr != nil {
			if errors.Is(popErr, context.DeadlineExceeded) && ctx.Err() == nil {
				// Someone else drained the queue since the depth snapshot.
				break
			}
			return popErr
		}
		if reopenErr := c.reopener.Reopen(ctx, id); reopenErr != nil {
			// Put the entry back so a later replay can still reach it.
			_ = c.queue.Push(ctx, deadLetter, id)
			return reopenErr
		}
		if pushErr := c.queue.Push(ctx, mainQueue, id); pushErr != nil {
			return pushErr
		}
		result.Replayed = append(result.Replayed, id)
	}
	storeResult(ctx, result)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
