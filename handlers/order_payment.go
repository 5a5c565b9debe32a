package handlers

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/providers/mollie"
)

// PaymentState is the slice of a provider payment a handler needs: which
// order it belongs to and where it stands.
type PaymentState struct {
	ID      string
	OrderID string
	Status  string
}

// PaymentFetcher re-fetches a payment from the provider. Thin notifications
// carry only the payment id, so the authoritative status always comes from
// this call, never from the stored event.
type PaymentFetcher interface {
	FetchPayment(ctx context.Context, paymentID string) (PaymentState, error)
}

// OrderService applies payment-driven transitions to orders.
type OrderService interface {
	ApplyStatusChange(ctx context.Context, orderID string, change core.StatusChange) error
}

// OrderPaymentHandler reacts to thin payment notifications: it re-fetches
// the payment, maps its status, and applies the resulting transition to the
// owning order. Non-terminal payment states are a no-op.
type OrderPaymentHandler struct {
	payments PaymentFetcher
	orders   OrderService
}

func NewOrderPaymentHandler(payments PaymentFetcher, orders OrderService) (*OrderPaymentHandler, error) {
	if payments == nil {
		return nil, fmt.Errorf("handlers: payment fetcher is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("handlers: order service is required")
	}
	return &OrderPaymentHandler{payments: payments, orders: orders}, nil
}

func (h *OrderPaymentHandler) HandleRef(ctx context.Context, ref core.EventRef) error {
	paymentID := strings.TrimSpace(ref.ObjectID)
	if paymentID == "" {
		return goerrors.New("handlers: event reference has no payment id", goerrors.CategoryBadInput).
			WithTextCode(core.PaymentsErrorBadInput)
	}

	payment, err := h.payments.FetchPayment(ctx, paymentID)
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryExternal, "handlers: fetch payment").
			WithTextCode(core.PaymentsErrorHandlerFailed)
		wrapped.WithMetadata(map[string]any{"payment_id": paymentID, "event_id": ref.EventID})
		return wrapped
	}

	change, ok := mollie.MapPaymentStatus(payment.Status)
	if !ok {
		// Not settled yet; the provider will notify again.
		return nil
	}
	if strings.TrimSpace(payment.OrderID) == "" {
		return goerrors.New("handlers: payment has no order reference", goerrors.CategoryBadInput).
			WithTextCode(core.PaymentsErrorBadInput)
	}

	if err := h.orders.ApplyStatusChange(ctx, payment.OrderID, change); err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryOperation, "handlers: apply order status change").
			WithTextCode(core.PaymentsErrorHandlerFailed)
		wrapped.WithMetadata(map[string]any{
			"order_id":   payment.OrderID,
			"payment_id": paymentID,
		})
		return wrapped
	}
	return nil
}

var _ core.ThinHandler = (*OrderPaymentHandler)(nil)
