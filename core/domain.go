package core

import (
	"strings"
	"time"
)

type ProcessingStatus string

const (
	ProcessingStatusPending   ProcessingStatus = "pending"
	ProcessingStatusProcessed ProcessingStatus = "processed"
	ProcessingStatusFailed    ProcessingStatus = "failed"
)

func (s ProcessingStatus) Valid() bool {
	switch s {
	case ProcessingStatusPending, ProcessingStatusProcessed, ProcessingStatusFailed:
		return true
	default:
		return false
	}
}

// Event is one durably recorded webhook notification from a payment provider.
// The ID doubles as the idempotency key across the whole pipeline.
type Event struct {
	ID                string
	ProviderID        string
	EventType         string
	APIVersion        string
	RelatedObjectID   string
	RelatedObjectType string
	Payload           map[string]any
	ProcessingStatus  ProcessingStatus
	RetryCount        int
	CreatedAt         time.Time
	ProcessedAt       *time.Time
}

// Thin reports whether the event carries only a reference to remote state.
// Thin events require the handler to re-fetch the full object from the
// provider before acting.
func (e Event) Thin() bool {
	return len(e.Payload) == 0 && strings.TrimSpace(e.RelatedObjectID) != ""
}

// Ref projects the correlation identifiers a thin handler needs to re-fetch
// provider state.
func (e Event) Ref() EventRef {
	return EventRef{
		EventID:    e.ID,
		EventType:  e.EventType,
		ProviderID: e.ProviderID,
		ObjectID:   e.RelatedObjectID,
		ObjectType: e.RelatedObjectType,
	}
}

type EventRef struct {
	EventID    string
	EventType  string
	ProviderID string
	ObjectID   string
	ObjectType string
}

type IngestEventInput struct {
	ID                string
	ProviderID        string
	EventType         string
	APIVersion        string
	RelatedObjectID   string
	RelatedObjectType string
	Payload           map[string]any
}

type IngestResult struct {
	ID    string
	IsNew bool
}

const (
	QueueMain       = "main"
	QueueDeadLetter = "dead-letter"
)

// QueueName scopes a queue to a provider so two pipelines sharing one
// database never consume each other's entries.
func QueueName(providerID string, queue string) string {
	providerID = strings.TrimSpace(providerID)
	queue = strings.TrimSpace(queue)
	if providerID == "" {
		return queue
	}
	return providerID + ":" + queue
}
