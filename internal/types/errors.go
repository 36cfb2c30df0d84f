package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Codes are grouped into families by prefix; the
// family determines both the HTTP status at the API boundary and the
// dispatch outcome in the worker.
const (
	// Validation (400)
	ErrCodeValidationMissingTenant  ErrorCode = "validation_missing_tenant_id"
	ErrCodeValidationMissingAccount ErrorCode = "validation_missing_account_id"
	ErrCodeValidationEventType      ErrorCode = "validation_unknown_event_type"
	ErrCodeValidationMissingField   ErrorCode = "validation_missing_required_field"

	// Not Found (404)
	ErrCodeNotFoundConfig ErrorCode = "not_found_notification_config"

	// Tenant configuration (fatal to a single event, never retried)
	ErrCodeConfigMissingProperty ErrorCode = "config_missing_tenant_property"
	ErrCodeConfigBadProperty     ErrorCode = "config_bad_tenant_property"

	// Storage (configuration store I/O; the gate fails closed on these)
	ErrCodeStorageUnavailable ErrorCode = "storage_unavailable"
	ErrCodeStorageQuery       ErrorCode = "storage_query_failed"

	// Domain fetch (billing system of record)
	ErrCodeDomainAccountNotFound      ErrorCode = "domain_account_not_found"
	ErrCodeDomainInvoiceNotFound      ErrorCode = "domain_invoice_not_found"
	ErrCodeDomainPaymentNotFound      ErrorCode = "domain_payment_not_found"
	ErrCodeDomainSubscriptionNotFound ErrorCode = "domain_subscription_not_found"
	ErrCodeDomainUnavailable          ErrorCode = "domain_source_unavailable"

	// Locale (malformed locale strings never silently default)
	ErrCodeLocaleFormat ErrorCode = "locale_invalid_format"

	// Render (template content is operator-controlled; surfaced loudly)
	ErrCodeRenderSyntax ErrorCode = "render_template_syntax"
	ErrCodeRenderFailed ErrorCode = "render_failed"

	// Transport (mail send; terminal per event, no in-core retry)
	ErrCodeTransportSend        ErrorCode = "transport_send_failed"
	ErrCodeTransportRateLimited ErrorCode = "transport_rate_limited"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the admin API to translate AppErrors into responses. Returns 500
// for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"), strings.HasPrefix(s, "locale_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "config_"):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(s, "storage_"):
		return http.StatusInternalServerError
	case strings.HasPrefix(s, "domain_"), strings.HasPrefix(s, "transport_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError so the API and the dispatcher can branch
// on the code family without string matching.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeFamily returns the prefix family of an error code ("storage", "render",
// ...). The dispatcher uses it to label metrics without enumerating codes.
func (c ErrorCode) CodeFamily() string {
	s := string(c)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}
