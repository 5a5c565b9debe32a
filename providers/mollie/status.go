package mollie

import (
	"strings"

	"github.com/mwesox/menuvo-payments/core"
)

// MapPaymentStatus translates a provider payment status into the order and
// payment transition it implies. Non-terminal states (open, pending,
// authorized) return ok=false: the order stays untouched until the payment
// settles one way or the other. Unknown states also return ok=false; guessing
// a business transition from a status this code has never seen would be
// worse than waiting for the next notification.
func MapPaymentStatus(provider string) (core.StatusChange, bool) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "paid":
		return core.StatusChange{
			Order:   core.OrderStatusConfirmed,
			Payment: core.PaymentStatusPaid,
		}, true
	case "failed", "canceled":
		return core.StatusChange{
			Order:   core.OrderStatusCancelled,
			Payment: core.PaymentStatusFailed,
		}, true
	case "expired":
		return core.StatusChange{
			Order:   core.OrderStatusCancelled,
			Payment: core.PaymentStatusExpired,
		}, true
	default:
		return core.StatusChange{}, false
	}
}

// Terminal reports whether a provider payment status is final.
func Terminal(provider string) bool {
	_, ok := MapPaymentStatus(provider)
	return ok
}
