package payments

import (
	"fmt"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/providers/mollie"
	"github.com/mwesox/menuvo-payments/providers/stripe"
	"github.com/mwesox/menuvo-payments/webhooks"
)

func StripeWebhookEndpoint(
	cfg stripe.WebhookConfig,
	stores core.StoreProvider,
	opts ...webhooks.EndpointOption,
) (*webhooks.Endpoint, error) {
	if stores == nil {
		return nil, fmt.Errorf("payments: store provider is required")
	}
	return webhooks.NewEndpoint(stripe.NewWebhookTemplate(cfg), stores.EventStore(), stores.EventQueue(), opts...)
}

func MollieWebhookEndpoint(
	cfg mollie.WebhookConfig,
	stores core.StoreProvider,
	opts ...webhooks.EndpointOption,
) (*webhooks.Endpoint, error) {
	if stores == nil {
		return nil, fmt.Errorf("payments: store provider is required")
	}
	return webhooks.NewEndpoint(mollie.NewWebhookTemplate(cfg), stores.EventStore(), stores.EventQueue(), opts...)
}
