package mollie

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/webhooks"
)

const headerSignature = "X-Mollie-Signature"

const signaturePrefix = "sha256="

// EventTypePaymentUpdated is the synthetic type assigned to thin payment
// notifications. The provider posts only the payment id; the actual state is
// re-fetched by the handler at processing time.
const EventTypePaymentUpdated = "payment.updated"

type WebhookConfig struct {
	Secret string
	Now    func() time.Time
}

func NewWebhookTemplate(cfg WebhookConfig) webhooks.ProviderWebhookTemplate {
	return webhooks.ProviderWebhookTemplate{
		ProviderID: ProviderID,
		Verifier: webhooks.HeaderHMACVerifier{
			Header:   headerSignature,
			Prefix:   signaturePrefix,
			Secret:   cfg.Secret,
			Encoding: "hex",
		},
		Parser: eventParser(cfg.Now),
	}
}

type thinNotification struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Type     string `json:"type"`
	Created  int64  `json:"created"`
}

// eventParser handles the provider's thin notification shape: a payment id
// and nothing else, delivered as JSON or as a form-encoded "id=tr_x" body.
// The notification carries no event id, so one is synthesized from the
// payment id and the delivery timestamp.
func eventParser(now func() time.Time) webhooks.EnvelopeParser {
	return func(req core.InboundRequest) (core.IngestEventInput, error) {
		notification, err := parseNotification(req.Body)
		if err != nil {
			return core.IngestEventInput{}, err
		}

		paymentID := strings.TrimSpace(notification.ID)
		if paymentID == "" {
			return core.IngestEventInput{}, fmt.Errorf("providers/mollie: payment id is required")
		}

		resource := strings.TrimSpace(notification.Resource)
		if resource == "" {
			resource = "payment"
		}
		eventType := strings.TrimSpace(notification.Type)
		if eventType == "" {
			eventType = resource + ".updated"
		}

		created := time.Time{}
		if notification.Created > 0 {
			created = time.Unix(notification.Created, 0).UTC()
		} else if now != nil {
			created = now().UTC()
		}

		return core.IngestEventInput{
			ID:                webhooks.SynthesizeEventID(paymentID, created),
			ProviderID:        ProviderID,
			EventType:         eventType,
			RelatedObjectID:   paymentID,
			RelatedObjectType: resource,
		}, nil
	}
}

func parseNotification(body []byte) (thinNotification, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return thinNotification{}, fmt.Errorf("providers/mollie: empty notification body")
	}

	if strings.HasPrefix(trimmed, "{") {
		var notification thinNotification
		if err := json.Unmarshal([]byte(trimmed), &notification); err != nil {
			return thinNotification{}, fmt.Errorf("providers/mollie: parse notification: %w", err)
		}
		return notification, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return thinNotification{}, fmt.Errorf("providers/mollie: parse notification: %w", err)
	}
	return thinNotification{ID: values.Get("id")}, nil
}
