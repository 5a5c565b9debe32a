package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/webhooks"
)

const stripeHeaderSignature = "Stripe-Signature"

const defaultSignatureTolerance = 5 * time.Minute

type WebhookConfig struct {
	Secret    string
	Tolerance time.Duration
	Now       func() time.Time
}

func DefaultWebhookConfig(secret string) WebhookConfig {
	return WebhookConfig{
		Secret:    strings.TrimSpace(secret),
		Tolerance: defaultSignatureTolerance,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func NewWebhookTemplate(cfg WebhookConfig) webhooks.ProviderWebhookTemplate {
	return webhooks.ProviderWebhookTemplate{
		ProviderID: ProviderID,
		Verifier: WebhookVerifier{
			Secret:    strings.TrimSpace(cfg.Secret),
			Tolerance: cfg.Tolerance,
			Now:       cfg.Now,
		},
		Parser: ParseEvent,
	}
}

// WebhookVerifier checks the Stripe-Signature header: a timestamp and one or
// more v1 HMAC-SHA256 signatures over "<timestamp>.<raw body>".
type WebhookVerifier struct {
	Secret    string
	Tolerance time.Duration
	Now       func() time.Time
}

func (v WebhookVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return fmt.Errorf("providers/stripe: signature secret is required")
	}
	header := strings.TrimSpace(headerValue(req.Headers, stripeHeaderSignature))
	if header == "" {
		return fmt.Errorf("providers/stripe: %s header is required", stripeHeaderSignature)
	}

	var timestamp int64
	var signatures [][]byte
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("providers/stripe: parse signature timestamp: %w", err)
			}
			timestamp = parsed
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, decoded)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("providers/stripe: signature header is malformed")
	}

	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now().UTC()
	}
	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = defaultSignatureTolerance
	}
	delta := now.Sub(time.Unix(timestamp, 0).UTC())
	if delta < 0 {
		delta = -delta
	}
	if delta > tolerance {
		return fmt.Errorf("providers/stripe: signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		if subtle.ConstantTimeCompare(signature, expected) == 1 {
			return nil
		}
	}
	return fmt.Errorf("providers/stripe: signature verification failed")
}

type eventEnvelope struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	APIVersion string `json:"api_version"`
	Created    int64  `json:"created"`
	Data       struct {
		Object map[string]any `json:"object"`
	} `json:"data"`
}

// ParseEvent maps a verified Stripe event body to the ingest shape. Stripe
// events ship stable ids and a full nested object, so no id synthesis is
// needed and the payload is stored whole.
func ParseEvent(req core.InboundRequest) (core.IngestEventInput, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(req.Body, &envelope); err != nil {
		return core.IngestEventInput{}, fmt.Errorf("providers/stripe: parse event: %w", err)
	}
	if strings.TrimSpace(envelope.ID) == "" {
		return core.IngestEventInput{}, fmt.Errorf("providers/stripe: event id is required")
	}
	if strings.TrimSpace(envelope.Type) == "" {
		return core.IngestEventInput{}, fmt.Errorf("providers/stripe: event type is required")
	}

	in := core.IngestEventInput{
		ID:         strings.TrimSpace(envelope.ID),
		ProviderID: ProviderID,
		EventType:  strings.TrimSpace(envelope.Type),
		APIVersion: strings.TrimSpace(envelope.APIVersion),
		Payload:    envelope.Data.Object,
	}
	if objectID, ok := envelope.Data.Object["id"].(string); ok {
		in.RelatedObjectID = strings.TrimSpace(objectID)
	}
	if objectType, ok := envelope.Data.Object["object"].(string); ok {
		in.RelatedObjectType = strings.TrimSpace(objectType)
	}
	return in, nil
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
