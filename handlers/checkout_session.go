package handlers

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mwesox/menuvo-payments/core"
)

// CheckoutSessionHandler confirms an order once its checkout session reports
// payment. The session payload carries the order reference in
// client_reference_id; sessions completed without payment (async methods)
// are left alone until the follow-up payment event arrives.
type CheckoutSessionHandler struct {
	orders OrderService
}

func NewCheckoutSessionHandler(orders OrderService) (*CheckoutSessionHandler, error) {
	if orders == nil {
		return nil, fmt.Errorf("handlers: order service is required")
	}
	return &CheckoutSessionHandler{orders: orders}, nil
}

func (h *CheckoutSessionHandler) Handle(ctx context.Context, event core.Event) error {
	paymentStatus, _ := event.Payload["payment_status"].(string)
	if !strings.EqualFold(strings.TrimSpace(paymentStatus), "paid") {
		return nil
	}

	orderID, _ := event.Payload["client_reference_id"].(string)
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return goerrors.New("handlers: checkout session has no order reference", goerrors.CategoryBadInput).
			WithTextCode(core.PaymentsErrorBadInput)
	}

	change := core.StatusChange{
		Order:   core.OrderStatusConfirmed,
		Payment: core.PaymentStatusPaid,
	}
	if err := h.orders.ApplyStatusChange(ctx, orderID, change); err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryOperation, "handlers: confirm order from checkout session").
			WithTextCode(core.PaymentsErrorHandlerFailed)
		wrapped.WithMetadata(map[string]any{"order_id": orderID, "event_id": event.ID})
		return wrapped
	}
	return nil
}

var _ core.Handler = (*CheckoutSessionHandler)(nil)
