package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/config"
	"billmail/internal/types"
)

func testLogger() types.Logger {
	return &slogAdapter{logger: slog.New(slog.DiscardHandler)}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"unclassified error", errors.New("something broke"), true},
		{"storage family", types.NewAppError(types.ErrCodeStorageQuery, "query failed", nil), true},
		{"storage unavailable", types.NewAppError(types.ErrCodeStorageUnavailable, "pool down", nil), true},
		{"transport send", types.NewAppError(types.ErrCodeTransportSend, "mail rejected", nil), true},
		{"transport rate limited", types.NewAppError(types.ErrCodeTransportRateLimited, "slow down", nil), true},
		{"domain unavailable", types.NewAppError(types.ErrCodeDomainUnavailable, "billing down", nil), true},
		{"domain not found", types.NewAppError(types.ErrCodeDomainInvoiceNotFound, "no invoice", nil), false},
		{"config error", types.NewAppError(types.ErrCodeConfigMissingProperty, "no window", nil), false},
		{"render error", types.NewAppError(types.ErrCodeRenderSyntax, "bad template", nil), false},
		{"locale error", types.NewAppError(types.ErrCodeLocaleFormat, "bad locale", nil), false},
		{"validation error", types.NewAppError(types.ErrCodeValidationEventType, "unknown type", nil), false},
		{"wrapped storage error", fmt.Errorf("dispatch: %w",
			types.NewAppError(types.ErrCodeStorageQuery, "query failed", nil)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryableError(tt.err))
		})
	}
}

func TestProcessRecordDropsMalformedBody(t *testing.T) {
	h := &Handler{logger: testLogger()}

	retryable := h.processRecord(context.Background(), events.SQSMessage{
		MessageId: "msg-1",
		Body:      "{not json",
	})
	assert.False(t, retryable, "malformed JSON cannot be fixed by redelivery")
}

func TestProcessRecordDropsInvalidEnvelope(t *testing.T) {
	h := &Handler{logger: testLogger()}

	retryable := h.processRecord(context.Background(), events.SQSMessage{
		MessageId: "msg-2",
		Body:      `{"event_id":"evt-1","event_type":"invoice_creation","account_id":"acct-1"}`,
	})
	assert.False(t, retryable, "missing tenant is terminal")
}

func TestHandleDropsBadRecordsWithoutFailures(t *testing.T) {
	h := &Handler{logger: testLogger()}

	response, err := h.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{
			{MessageId: "msg-1", Body: "not json at all"},
			{MessageId: "msg-2", Body: `{"event_type":"invoice_creation"}`},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, response.BatchItemFailures, "terminal records must not be redelivered")
}

func TestGlobalDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notification.DefaultEventTypes = []string{
		"invoice_creation",
		"invoice_payment_failed",
		"not_a_real_event",
	}
	cfg.Notification.DryRunNoticeDays = 14
	cfg.Notification.DefaultLocale = "fr_FR"

	defaults := globalDefaults(cfg)

	assert.True(t, defaults.Contains(types.EventInvoiceCreation))
	assert.True(t, defaults.Contains(types.EventInvoicePaymentFailed))
	assert.False(t, defaults.Contains(types.EventType("not_a_real_event")), "unknown types are filtered out")
	assert.Len(t, defaults.EventTypes, 2)
	assert.Equal(t, 14, defaults.DryRunNoticeDays)
	assert.Equal(t, "fr_FR", defaults.DefaultLocale)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger := newLogger("not-a-level")
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestSlogAdapterWith(t *testing.T) {
	adapter := testLogger()
	child := adapter.With("tenant_id", "acme")
	require.NotNil(t, child)
	assert.NotSame(t, adapter, child)
}
