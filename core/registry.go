package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// HandlerRegistry maps event types to the business logic that processes
// them. It is populated once, at startup, by the composition root; dispatch
// is the hot path. Last registration for a type wins.
type HandlerRegistry struct {
	mu   sync.RWMutex
	full map[string]Handler
	thin map[string]ThinHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		full: map[string]Handler{},
		thin: map[string]ThinHandler{},
	}
}

func (r *HandlerRegistry) Register(eventType string, handler Handler) error {
	if r == nil {
		return fmt.Errorf("core: handler registry is nil")
	}
	eventType = normalizeEventType(eventType)
	if eventType == "" {
		return fmt.Errorf("core: event type is required")
	}
	if handler == nil {
		return fmt.Errorf("core: handler is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.full[eventType] = handler
	delete(r.thin, eventType)
	return nil
}

func (r *HandlerRegistry) RegisterThin(eventType string, handler ThinHandler) error {
	if r == nil {
		return fmt.Errorf("core: handler registry is nil")
	}
	eventType = normalizeEventType(eventType)
	if eventType == "" {
		return fmt.Errorf("core: event type is required")
	}
	if handler == nil {
		return fmt.Errorf("core: handler is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thin[eventType] = handler
	delete(r.full, eventType)
	return nil
}

// Dispatch invokes the handler registered for the event's type, selecting
// the full or thin shape by how the handler was registered. A missing
// handler is reported through the handled flag, not an error: many provider
// event types are intentionally unhandled.
func (r *HandlerRegistry) Dispatch(ctx context.Context, event Event) (handled bool, err error) {
	if r == nil {
		return false, fmt.Errorf("core: handler registry is nil")
	}
	eventType := normalizeEventType(event.EventType)

	r.mu.RLock()
	full := r.full[eventType]
	thin := r.thin[eventType]
	r.mu.RUnlock()

	switch {
	case full != nil:
		return true, full.Handle(ctx, event)
	case thin != nil:
		return true, thin.HandleRef(ctx, event.Ref())
	default:
		return false, nil
	}
}

// ListRegisteredTypes returns the registered event types in sorted order,
// for operational visibility.
func (r *HandlerRegistry) ListRegisteredTypes() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	types := make([]string, 0, len(r.full)+len(r.thin))
	for eventType := range r.full {
		types = append(types, eventType)
	}
	for eventType := range r.thin {
		types = append(types, eventType)
	}
	r.mu.RUnlock()
	sort.Strings(types)
	return types
}

func normalizeEventType(eventType string) string {
	return strings.TrimSpace(eventType)
}
