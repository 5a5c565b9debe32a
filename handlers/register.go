package handlers

import (
	"fmt"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/providers/mollie"
)

// Event types the default registration binds to. Account and checkout types
// follow the provider's dotted naming.
const (
	EventTypeCheckoutSessionCompleted = "checkout.session.completed"
	EventTypeAccountUpdated           = "account.updated"
)

// Deps are the platform collaborators the default handler set needs.
type Deps struct {
	Payments PaymentFetcher
	Orders   OrderService
	Accounts MerchantAccountService
}

// RegisterDefaults wires the standard handler set into the registry. Only
// handlers whose collaborators are present are registered, so a deployment
// without merchant accounts simply leaves account events unhandled.
func RegisterDefaults(registry *core.HandlerRegistry, deps Deps) error {
	if registry == nil {
		return fmt.Errorf("handlers: registry is required")
	}

	if deps.Orders != nil {
		checkout, err := NewCheckoutSessionHandler(deps.Orders)
		if err != nil {
			return err
		}
		if err := registry.Register(EventTypeCheckoutSessionCompleted, checkout); err != nil {
			return err
		}
	}

	if deps.Orders != nil && deps.Payments != nil {
		orderPayments, err := NewOrderPaymentHandler(deps.Payments, deps.Orders)
		if err != nil {
			return err
		}
		if err := registry.RegisterThin(mollie.EventTypePaymentUpdated, orderPayments); err != nil {
			return err
		}
	}

	if deps.Accounts != nil {
		accounts, err := NewMerchantAccountHandler(deps.Accounts)
		if err != nil {
			return err
		}
		if err := registry.Register(EventTypeAccountUpdated, accounts); err != nil {
			return err
		}
	}
	return nil
}
