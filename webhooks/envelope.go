package webhooks

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mwesox/menuvo-payments/core"
)

// EnvelopeParser turns a verified raw delivery into the store's ingest
// shape. Each provider supplies its own parser; the endpoint is agnostic to
// payload structure.
type EnvelopeParser func(req core.InboundRequest) (core.IngestEventInput, error)

// ProviderWebhookTemplate bundles what a provider contributes to the
// ingestion boundary.
type ProviderWebhookTemplate struct {
	ProviderID string
	Verifier   Verifier
	Parser     EnvelopeParser
}

// Envelope is the generic JSON shape shared by provider notifications:
// an id (or a derivable one), a type, a created timestamp, and either a full
// nested payload or a related-object reference.
type Envelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	APIVersion    string          `json:"api_version"`
	Created       int64           `json:"created"`
	Data          json.RawMessage `json:"data"`
	RelatedObject *RelatedObject  `json:"related_object"`
}

type RelatedObject struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func ParseEnvelope(body []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("webhooks: parse event envelope: %w", err)
	}
	if strings.TrimSpace(envelope.Type) == "" {
		return Envelope{}, fmt.Errorf("webhooks: event type is required")
	}
	return envelope, nil
}

func (e Envelope) PayloadMap() (map[string]any, error) {
	if len(e.Data) == 0 {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return nil, fmt.Errorf("webhooks: parse event payload: %w", err)
	}
	return payload, nil
}

// SynthesizeEventID builds an idempotency key for providers that do not ship
// event ids. With a nonzero creation time the id is deterministic, so
// provider retries of the same notification collide into one row; that
// collision is the dedupe. Only a zero creation time falls back to a random
// suffix, which trades dedupe for the guarantee that two distinct
// notifications never merge.
func SynthesizeEventID(objectID string, created time.Time) string {
	objectID = strings.TrimSpace(objectID)
	if created.IsZero() {
		return objectID + "-" + randomSuffix()
	}
	return fmt.Sprintf("%s-%d", objectID, created.UnixMilli())
}

func randomSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UTC().UnixNano())
	}
	return hex.EncodeToString(buf)
}
