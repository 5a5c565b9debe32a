package command

import (
	"strings"

	"github.com/mwesox/menuvo-payments/core"
)

const (
	TypeIngestEvent        = "payments.command.event.ingest"
	TypeMarkEventProcessed = "payments.command.event.mark_processed"
	TypeRequeueEvent       = "payments.command.event.requeue"
	TypeReplayDeadLetter   = "payments.command.dead_letter.replay"
)

// IngestEventMessage records an event and enqueues it when new. It is the
// programmatic twin of the webhook endpoint, used for backfills and manual
// replays of raw provider payloads.
type IngestEventMessage struct {
	Input core.IngestEventInput
}

func (IngestEventMessage) Type() string { return TypeIngestEvent }

func (m IngestEventMessage) Validate() error {
	if strings.TrimSpace(m.Input.ID) == "" {
		return commandInvalidInputError("command: event id is required")
	}
	if strings.TrimSpace(m.Input.ProviderID) == "" {
		return commandInvalidInputError("command: provider id is required")
	}
	if strings.TrimSpace(m.Input.EventType) == "" {
		return commandInvalidInputError("command: event type is required")
	}
	return nil
}

type MarkEventProcessedMessage struct {
	EventID string
}

func (MarkEventProcessedMessage) Type() string { return TypeMarkEventProcessed }

func (m MarkEventProcessedMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return commandInvalidInputError("command: event id is required")
	}
	return nil
}

type RequeueEventMessage struct {
	ProviderID string
	EventID    string
}

func (RequeueEventMessage) Type() string { return TypeRequeueEvent }

func (m RequeueEventMessage) Validate() error {
	if strings.TrimSpace(m.ProviderID) == "" {
		return commandInvalidInputError("command: provider id is required")
	}
	if strings.TrimSpace(m.EventID) == "" {
		return commandInvalidInputError("command: event id is required")
	}
	return nil
}

// ReplayDeadLetterMessage drains up to Limit entries from a provider's
// dead-letter queue back onto the main queue, reopening each event so the
// worker processes it with a fresh retry budget.
type ReplayDeadLetterMessage struct {
	ProviderID string
	Limit      int
}

func (ReplayDeadLetterMessage) Type() string { return TypeReplayDeadLetter }

func (m ReplayDeadLetterMessage) Validate() error {
	if strings.TrimSpace(m.ProviderID) == "" {
		return commandInvalidInputError("command: provider id is required")
	}
	if m.Limit < 0 {
		return commandInvalidInputError("command: limit must be >= 0")
	}
	return nil
}
