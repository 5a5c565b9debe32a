package handlers

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/providers/stripe"
)

// AccountUpdate is the normalized view of an account event after the
// provider vocabulary has been translated.
type AccountUpdate struct {
	AccountID     string
	Requirements  core.RequirementsSeverity
	PaymentsState core.CapabilityStatus
	PayoutsState  core.CapabilityStatus
}

// MerchantAccountService records merchant account state on the platform side.
type MerchantAccountService interface {
	ApplyAccountUpdate(ctx context.Context, update AccountUpdate) error
}

// MerchantAccountHandler reacts to full-payload account events. The payload
// ships the complete account object, so nothing is re-fetched.
type MerchantAccountHandler struct {
	accounts MerchantAccountService
}

func NewMerchantAccountHandler(accounts MerchantAccountService) (*MerchantAccountHandler, error) {
	if accounts == nil {
		return nil, fmt.Errorf("handlers: merchant account service is required")
	}
	return &MerchantAccountHandler{accounts: accounts}, nil
}

func (h *MerchantAccountHandler) Handle(ctx context.Context, event core.Event) error {
	accountID := strings.TrimSpace(event.RelatedObjectID)
	if accountID == "" {
		if id, ok := event.Payload["id"].(string); ok {
			accountID = strings.TrimSpace(id)
		}
	}
	if accountID == "" {
		return goerrors.New("handlers: account event has no account id", goerrors.CategoryBadInput).
			WithTextCode(core.PaymentsErrorBadInput)
	}

	update := AccountUpdate{
		AccountID:     accountID,
		Requirements:  stripe.MapRequirementsSeverity(requirementsBucket(event.Payload)),
		PaymentsState: stripe.MapCapabilityStatus(capabilityValue(event.Payload, "card_payments")),
		PayoutsState:  stripe.MapCapabilityStatus(capabilityValue(event.Payload, "transfers")),
	}

	if err := h.accounts.ApplyAccountUpdate(ctx, update); err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryOperation, "handlers: apply account update").
			WithTextCode(core.PaymentsErrorHandlerFailed)
		wrapped.WithMetadata(map[string]any{"account_id": accountID, "event_id": event.ID})
		return wrapped
	}
	return nil
}

// requirementsBucket picks the most pressing non-empty requirements list out
// of the account payload. past_due wins over currently_due wins over
// eventually_due; all empty means no requirements.
func requirementsBucket(payload map[string]any) string {
	requirements, ok := payload["requirements"].(map[string]any)
	if !ok {
		return "undefined"
	}
	for _, bucket := range []string{"past_due", "currently_due", "eventually_due"} {
		if entries, ok := requirements[bucket].([]any); ok && len(entries) > 0 {
			return bucket
		}
	}
	return "none"
}

func capabilityValue(payload map[string]any, capability string) string {
	capabilities, ok := payload["capabilities"].(map[string]any)
	if !ok {
		return ""
	}
	value, _ := capabilities[capability].(string)
	return value
}

var _ core.Handler = (*MerchantAccountHandler)(nil)
