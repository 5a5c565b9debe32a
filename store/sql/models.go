package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type paymentEventRecord struct {
	bun.BaseModel `bun:"table:payment_events,alias:pe"`

	ID                string         `bun:"id,pk"`
	ProviderID        string         `bun:"provider_id,notnull"`
	EventType         string         `bun:"event_type,notnull"`
	APIVersion        string         `bun:"api_version"`
	RelatedObjectID   string         `bun:"related_object_id"`
	RelatedObjectType string         `bun:"related_object_type"`
	Payload           map[string]any `bun:"payload,type:jsonb"`
	ProcessingStatus  string         `bun:"processing_status,notnull"`
	RetryCount        int            `bun:"retry_count,notnull"`
	CreatedAt         time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ProcessedAt       *time.Time     `bun:"processed_at,nullzero"`
}

// queueEntryRecord is one pending pointer into payment_events. Position is a
// monotonically assigned sequence; FIFO order is ORDER BY position within a
// queue.
type queueEntryRecord struct {
	bun.BaseModel `bun:"table:payment_event_queue,alias:peq"`

	Position   int64     `bun:"position,pk,autoincrement"`
	Queue      string    `bun:"queue,notnull"`
	EventID    string    `bun:"event_id,notnull"`
	EnqueuedAt time.Time `bun:"enqueued_at,nullzero,notnull,default:current_timestamp"`
}
