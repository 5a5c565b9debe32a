package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/mwesox/menuvo-payments/core"
)

const eventCacheKeyPrefix = "menuvo-payments::event::v1"

// CachedEventStore layers a read cache over an EventStore. Only GetByID is
// cached; every lifecycle write invalidates the entry, and retry counters are
// always read through to the base store because the retry bound depends on
// an exact value.
type CachedEventStore struct {
	base  core.EventStore
	cache repositorycache.CacheService
}

func NewCachedEventStore(base core.EventStore, cacheService repositorycache.CacheService) (*CachedEventStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base event store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: event cache service is required")
	}
	return &CachedEventStore{base: base, cache: cacheService}, nil
}

// EventCacheKey is the deterministic cache key contract for event reads:
// menuvo-payments::event::v1::<event_id> with the id URL-path escaped.
func EventCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: event id is required")
	}
	return eventCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (s *CachedEventStore) Ingest(ctx context.Context, in core.IngestEventInput) (core.IngestResult, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IngestResult{}, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	result, err := s.base.Ingest(ctx, in)
	if err != nil {
		return core.IngestResult{}, err
	}
	if err := s.invalidate(ctx, result.ID); err != nil {
		return core.IngestResult{}, err
	}
	return result, nil
}

func (s *CachedEventStore) GetByID(ctx context.Context, id string) (core.Event, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Event{}, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	cacheKey, err := EventCacheKey(id)
	if err != nil {
		return core.Event{}, err
	}
	event, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Event, error) {
		return s.base.GetByID(ctx, id)
	})
	if err != nil {
		return core.Event{}, err
	}
	return event, nil
}

func (s *CachedEventStore) MarkProcessed(ctx context.Context, id string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached event store is not configured")
	}
	if err := s.base.MarkProcessed(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *CachedEventStore) MarkFailed(ctx context.Context, id string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached event store is not configured")
	}
	if err := s.base.MarkFailed(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *CachedEventStore) IncrementRetry(ctx context.Context, id string) (int, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	count, err := s.base.IncrementRetry(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *CachedEventStore) GetRetryCount(ctx context.Context, id string) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached event store is not configured")
	}
	return s.base.GetRetryCount(ctx, id)
}

func (s *CachedEventStore) invalidate(ctx context.Context, id string) error {
	cacheKey, err := EventCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
