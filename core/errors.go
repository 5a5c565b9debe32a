package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	PaymentsErrorBadInput         = "PAYMENTS_BAD_INPUT"
	PaymentsErrorSignatureInvalid = "PAYMENTS_SIGNATURE_INVALID"
	PaymentsErrorEventNotFound    = "PAYMENTS_EVENT_NOT_FOUND"
	PaymentsErrorHandlerFailed    = "PAYMENTS_HANDLER_FAILED"
	PaymentsErrorOperationFailed  = "PAYMENTS_OPERATION_FAILED"
	PaymentsErrorInternal         = "PAYMENTS_INTERNAL_ERROR"
)

func NewEventNotFoundError(id string) *goerrors.Error {
	err := goerrors.New("core: event not found: "+strings.TrimSpace(id), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(PaymentsErrorEventNotFound)
	err.WithMetadata(map[string]any{"event_id": strings.TrimSpace(id)})
	return err
}

// IsEventNotFound reports whether err is the store's missing-row condition.
// The worker drops such ids instead of retrying: a row that was never
// ingested cannot become retryable.
func IsEventNotFound(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == PaymentsErrorEventNotFound
	}
	return false
}

func paymentsErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensurePaymentsErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"):
		return newPaymentsError(err.Error(), goerrors.CategoryAuth, PaymentsErrorSignatureInvalid)
	case strings.Contains(msg, "not found"):
		return newPaymentsError(err.Error(), goerrors.CategoryNotFound, PaymentsErrorEventNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "parse"):
		return newPaymentsError(err.Error(), goerrors.CategoryBadInput, PaymentsErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensurePaymentsErrorEnvelope(mapped)
}

func newPaymentsError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensurePaymentsErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensurePaymentsErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = paymentsHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultPaymentsTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultPaymentsTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return PaymentsErrorBadInput
	case goerrors.CategoryNotFound:
		return PaymentsErrorEventNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return PaymentsErrorSignatureInvalid
	case goerrors.CategoryOperation:
		return PaymentsErrorOperationFailed
	default:
		return PaymentsErrorInternal
	}
}

func paymentsHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return http.StatusUnauthorized
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MapError normalizes any error into the pipeline's goerrors envelope:
// category, HTTP status, and PAYMENTS_* text code. Already-enveloped errors
// only get missing fields filled in.
func MapError(err error) *goerrors.Error {
	return paymentsErrorMapper(err)
}
