package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/mwesox/menuvo-payments/core"
	"github.com/uptrace/bun"
)

// EventStore is the bun-backed event ledger. The primary key on
// payment_events.id is the idempotency guarantee: a second ingest of the same
// id fails the insert with a unique violation and is reported as a duplicate,
// never as an error.
type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*paymentEventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*paymentEventRecord](db, paymentEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid payment event repository wiring: %w", err)
		}
	}
	return &EventStore{db: db, repo: repo}, nil
}

func (s *EventStore) Ingest(ctx context.Context, in core.IngestEventInput) (core.IngestResult, error) {
	if s == nil || s.repo == nil {
		return core.IngestResult{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	id := strings.TrimSpace(in.ID)
	providerID := strings.TrimSpace(in.ProviderID)
	eventType := strings.TrimSpace(in.EventType)
	if id == "" || providerID == "" || eventType == "" {
		return core.IngestResult{}, fmt.Errorf("sqlstore: event id, provider id and event type are required")
	}

	record := &paymentEventRecord{
		ID:                id,
		ProviderID:        providerID,
		EventType:         eventType,
		APIVersion:        strings.TrimSpace(in.APIVersion),
		RelatedObjectID:   strings.TrimSpace(in.RelatedObjectID),
		RelatedObjectType: strings.TrimSpace(in.RelatedObjectType),
		Payload:           copyAnyMap(in.Payload),
		ProcessingStatus:  string(core.ProcessingStatusPending),
		RetryCount:        0,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		if isUniqueViolation(err) {
			return core.IngestResult{ID: id, IsNew: false}, nil
		}
		return core.IngestResult{}, err
	}
	return core.IngestResult{ID: id, IsNew: true}, nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (core.Event, error) {
	if s == nil || s.repo == nil {
		return core.Event{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Event{}, fmt.Errorf("sqlstore: event id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", id),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Event{}, core.NewEventNotFoundError(id)
		}
		return core.Event{}, err
	}
	if len(records) == 0 {
		return core.Event{}, core.NewEventNotFoundError(id)
	}
	return eventToDomain(records[0]), nil
}

// ListByStatus pages one provider's events by lifecycle state for operator
// inspection, newest first.
func (s *EventStore) ListByStatus(
	ctx context.Context,
	providerID string,
	status core.ProcessingStatus,
	limit int,
	offset int,
) ([]core.Event, int, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("sqlstore: event store is not configured")
	}
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, 0, fmt.Errorf("sqlstore: provider id is required")
	}
	if !status.Valid() {
		return nil, 0, fmt.Errorf("sqlstore: invalid processing status %q", status)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	records, total, err := s.repo.List(ctx,
		repository.SelectBy("provider_id", "=", providerID),
		repository.SelectBy("processing_status", "=", string(status)),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, err
	}
	out := make([]core.Event, 0, len(records))
	for _, record := range records {
		out = append(out, eventToDomain(record))
	}
	return out, total, nil
}

func (s *EventStore) MarkProcessed(ctx context.Context, id string) error {
	return s.markStatus(ctx, id, core.ProcessingStatusProcessed)
}

func (s *EventStore) MarkFailed(ctx context.Context, id string) error {
	return s.markStatus(ctx, id, core.ProcessingStatusFailed)
}

func (s *EventStore) markStatus(ctx context.Context, id string, status core.ProcessingStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: event id is required")
	}
	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*paymentEventRecord)(nil)).
		Set("processing_status = ?", string(status)).
		Set("processed_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.NewEventNotFoundError(id)
	}
	return nil
}

// IncrementRetry bumps retry_count in a single statement so concurrent
// workers never lose an increment, and returns the post-increment value.
func (s *EventStore) IncrementRetry(ctx context.Context, id string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, fmt.Errorf("sqlstore: event id is required")
	}
	var count int
	err := s.db.NewRaw(
		"UPDATE payment_events SET retry_count = retry_count + 1 WHERE id = ? RETURNING retry_count",
		id,
	).Scan(ctx, &count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, core.NewEventNotFoundError(id)
		}
		return 0, err
	}
	return count, nil
}

func (s *EventStore) GetRetryCount(ctx context.Context, id string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, fmt.Errorf("sqlstore: event id is required")
	}
	var count int
	err := s.db.NewSelect().
		Model((*paymentEventRecord)(nil)).
		Column("retry_count").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx, &count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, core.NewEventNotFoundError(id)
		}
		return 0, err
	}
	return count, nil
}

// Reopen resets a terminal event back to pending so a dead-letter replay
// goes through the normal worker path again.
func (s *EventStore) Reopen(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: event id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*paymentEventRecord)(nil)).
		Set("processing_status = ?", string(core.ProcessingStatusPending)).
		Set("retry_count = 0").
		Set("processed_at = NULL").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.NewEventNotFoundError(id)
	}
	return nil
}

func eventToDomain(record *paymentEventRecord) core.Event {
	if record == nil {
		return core.Event{}
	}
	event := core.Event{
		ID:                record.ID,
		ProviderID:        record.ProviderID,
		EventType:         record.EventType,
		APIVersion:        record.APIVersion,
		RelatedObjectID:   record.RelatedObjectID,
		RelatedObjectType: record.RelatedObjectType,
		Payload:           copyAnyMap(record.Payload),
		ProcessingStatus:  core.ProcessingStatus(record.ProcessingStatus),
		RetryCount:        record.RetryCount,
		CreatedAt:         record.CreatedAt,
	}
	if record.ProcessedAt != nil {
		value := *record.ProcessedAt
		event.ProcessedAt = &value
	}
	return event
}

func copyAnyMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
