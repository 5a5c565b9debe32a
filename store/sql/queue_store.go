package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/uptrace/bun"
)

const defaultQueuePollInterval = time.Second

// QueueStore is a durable FIFO over the payment_event_queue table. Entries
// survive restarts; consumption order is the insert order within a queue.
//
// Pop blocks. In-process pushes arm a wake signal so the common path never
// waits a full poll interval; the ticker only covers entries written by
// another process sharing the table.
type QueueStore struct {
	db           *bun.DB
	pollInterval time.Duration

	mu    sync.Mutex
	wakes map[string]chan struct{}
}

type QueueStoreOption func(*QueueStore)

func WithQueuePollInterval(interval time.Duration) QueueStoreOption {
	return func(s *QueueStore) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// QueueOptionsFromConfig converts the resolved queue settings into store
// options. Zero values are skipped so the store defaults still apply.
func QueueOptionsFromConfig(cfg core.Config) []QueueStoreOption {
	options := []QueueStoreOption{}
	if cfg.Queue.PollInterval > 0 {
		options = append(options, WithQueuePollInterval(cfg.Queue.PollInterval))
	}
	return options
}

func NewQueueStore(db *bun.DB, options ...QueueStoreOption) (*QueueStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	store := &QueueStore{
		db:           db,
		pollInterval: defaultQueuePollInterval,
		wakes:        map[string]chan struct{}{},
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(store)
	}
	return store, nil
}

func (s *QueueStore) Push(ctx context.Context, queue string, eventID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: queue store is not configured")
	}
	queue = strings.TrimSpace(queue)
	eventID = strings.TrimSpace(eventID)
	if queue == "" || eventID == "" {
		return fmt.Errorf("sqlstore: queue name and event id are required")
	}

	record := &queueEntryRecord{
		Queue:      queue,
		EventID:    eventID,
		EnqueuedAt: time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return err
	}
	s.signal(queue)
	return nil
}

// Pop removes and returns the oldest entry of the queue, blocking until one
// is available or ctx is done.
func (s *QueueStore) Pop(ctx context.Context, queue string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("sqlstore: queue store is not configured")
	}
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return "", fmt.Errorf("sqlstore: queue name is required")
	}

	wake := s.wakeChannel(queue)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		eventID, claimed, err := s.claim(ctx, queue)
		if err != nil {
			return "", err
		}
		if claimed {
			return eventID, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wake:
		case <-ticker.C:
		}
	}
}

func (s *QueueStore) Depth(ctx context.Context, queue string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: queue store is not configured")
	}
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return 0, fmt.Errorf("sqlstore: queue name is required")
	}
	return s.db.NewSelect().
		Model((*queueEntryRecord)(nil)).
		Where("?TableAlias.queue = ?", queue).
		Count(ctx)
}

// claim deletes the head entry atomically so two workers sharing a queue
// never receive the same id.
func (s *QueueStore) claim(ctx context.Context, queue string) (string, bool, error) {
	var eventID string
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT position
	FROM payment_event_queue
	WHERE queue = ?
	ORDER BY position ASC
	LIMIT 1
)
DELETE FROM payment_event_queue
WHERE position IN (SELECT position FROM claimed)
RETURNING event_id
`
		return tx.NewRaw(query, queue).Scan(ctx, &eventID)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	if strings.TrimSpace(eventID) == "" {
		return "", false, nil
	}
	return eventID, true, nil
}

func (s *QueueStore) wakeChannel(queue string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.wakes[queue]; ok {
		return existing
	}
	wake := make(chan struct{}, 1)
	s.wakes[queue] = wake
	return wake
}

func (s *QueueStore) signal(queue string) {
	s.mu.Lock()
	wake, ok := s.wakes[queue]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}
