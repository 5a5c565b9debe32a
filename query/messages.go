package query

import (
	"fmt"
	"strings"

	"github.com/mwesox/menuvo-payments/core"
)

const (
	TypeGetEvent            = "payments.query.event.get"
	TypeListEvents          = "payments.query.event.list"
	TypeQueueDepth          = "payments.query.queue.depth"
	TypeListRegisteredTypes = "payments.query.handlers.list_types"
)

type GetEventMessage struct {
	EventID string
}

func (GetEventMessage) Type() string { return TypeGetEvent }

func (m GetEventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("query: event id is required")
	}
	return nil
}

// ListEventsMessage pages one provider's events by lifecycle state, for
// operator tooling that inspects stuck or failed events.
type ListEventsMessage struct {
	ProviderID string
	Status     core.ProcessingStatus
	Limit      int
	Offset     int
}

func (ListEventsMessage) Type() string { return TypeListEvents }

func (m ListEventsMessage) Validate() error {
	if strings.TrimSpace(m.ProviderID) == "" {
		return fmt.Errorf("query: provider id is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("query: invalid processing status %q", m.Status)
	}
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	if m.Offset < 0 {
		return fmt.Errorf("query: offset must be >= 0")
	}
	return nil
}

type QueueDepthMessage struct {
	ProviderID string
	Queue      string
}

func (QueueDepthMessage) Type() string { return TypeQueueDepth }

func (m QueueDepthMessage) Validate() error {
	if strings.TrimSpace(m.ProviderID) == "" {
		return fmt.Errorf("query: provider id is required")
	}
	if strings.TrimSpace(m.Queue) == "" {
		return fmt.Errorf("query: queue name is required")
	}
	return nil
}

type ListRegisteredTypesMessage struct{}

func (ListRegisteredTypesMessage) Type() string { return TypeListRegisteredTypes }

func (ListRegisteredTypesMessage) Validate() error { return nil }
