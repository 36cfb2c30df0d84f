package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusByFamily(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationEventType, http.StatusBadRequest},
		{ErrCodeLocaleFormat, http.StatusBadRequest},
		{ErrCodeNotFoundConfig, http.StatusNotFound},
		{ErrCodeConfigMissingProperty, http.StatusUnprocessableEntity},
		{ErrCodeStorageQuery, http.StatusInternalServerError},
		{ErrCodeDomainUnavailable, http.StatusBadGateway},
		{ErrCodeTransportSend, http.StatusBadGateway},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_new"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), "code %s", tt.code)
	}
}

func TestCodeFamily(t *testing.T) {
	assert.Equal(t, "storage", ErrCodeStorageQuery.CodeFamily())
	assert.Equal(t, "domain", ErrCodeDomainUnavailable.CodeFamily())
	assert.Equal(t, "transport", ErrCodeTransportRateLimited.CodeFamily())
	assert.Equal(t, "nofamily", ErrorCode("nofamily").CodeFamily())
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	appErr := NewAppError(ErrCodeStorageUnavailable, "store unreachable", inner)

	assert.ErrorIs(t, appErr, inner)
	assert.Equal(t, "storage_unavailable: store unreachable", appErr.Error())

	wrapped := fmt.Errorf("outer: %w", appErr)
	var target *AppError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, ErrCodeStorageUnavailable, target.Code)
}

func TestEventValidate(t *testing.T) {
	valid := Event{
		EventID:   "evt-1",
		EventType: EventInvoiceCreation,
		AccountID: "acct-1",
		TenantID:  "acme",
	}
	require.NoError(t, valid.Validate())

	missingTenant := valid
	missingTenant.TenantID = ""
	err := missingTenant.Validate()
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeValidationMissingTenant, appErr.Code)

	missingAccount := valid
	missingAccount.AccountID = ""
	require.ErrorAs(t, missingAccount.Validate(), &appErr)
	assert.Equal(t, ErrCodeValidationMissingAccount, appErr.Code)

	unknownType := valid
	unknownType.EventType = "account_created"
	require.ErrorAs(t, unknownType.Validate(), &appErr)
	assert.Equal(t, ErrCodeValidationEventType, appErr.Code)
}

func TestLastTransaction(t *testing.T) {
	var nilPayment *Payment
	assert.Nil(t, nilPayment.LastTransaction())
	assert.Nil(t, (&Payment{}).LastTransaction())

	p := &Payment{Transactions: []PaymentTransaction{
		{ID: "txn-1"},
		{ID: "txn-2"},
	}}
	require.NotNil(t, p.LastTransaction())
	assert.Equal(t, "txn-2", p.LastTransaction().ID)
}

func TestTenantDefaultConfigContains(t *testing.T) {
	var nilCfg *TenantDefaultConfig
	assert.False(t, nilCfg.Contains(EventInvoiceCreation))

	cfg := &TenantDefaultConfig{EventTypes: map[EventType]bool{EventInvoiceCreation: true}}
	assert.True(t, cfg.Contains(EventInvoiceCreation))
	assert.False(t, cfg.Contains(EventSubscriptionCancel))
}
