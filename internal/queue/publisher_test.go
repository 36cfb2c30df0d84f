package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/types"
)

// mockSQSSender records SendMessage calls and returns a configurable error.
type mockSQSSender struct {
	inputs  []*sqs.SendMessageInput
	sendErr error
}

func (m *mockSQSSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return &sqs.SendMessageOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func validEvent() *types.Event {
	return &types.Event{
		EventID:    "evt-1",
		EventType:  types.EventInvoiceCreation,
		AccountID:  "acct-1",
		TenantID:   "tenant-1",
		ObjectID:   "inv-1",
		ObjectType: "invoice",
	}
}

func TestPublisherSendsToQueue(t *testing.T) {
	sender := &mockSQSSender{}
	pub := NewPublisher(sender, "https://sqs.test/billing-events", testLogger())

	err := pub.Publish(context.Background(), validEvent(), "replay")
	require.NoError(t, err)
	require.Len(t, sender.inputs, 1)

	input := sender.inputs[0]
	assert.Equal(t, "https://sqs.test/billing-events", *input.QueueUrl)

	var sent types.Event
	require.NoError(t, json.Unmarshal([]byte(*input.MessageBody), &sent))
	assert.Equal(t, "evt-1", sent.EventID)
	assert.Equal(t, types.EventInvoiceCreation, sent.EventType)

	attr, ok := input.MessageAttributes["reason"]
	require.True(t, ok)
	assert.Equal(t, "replay", *attr.StringValue)
}

func TestPublisherAssignsEventID(t *testing.T) {
	sender := &mockSQSSender{}
	pub := NewPublisher(sender, "https://sqs.test/billing-events", testLogger())

	event := validEvent()
	event.EventID = ""

	require.NoError(t, pub.Publish(context.Background(), event, "test"))
	assert.NotEmpty(t, event.EventID)
}

func TestPublisherRejectsInvalidEvent(t *testing.T) {
	sender := &mockSQSSender{}
	pub := NewPublisher(sender, "https://sqs.test/billing-events", testLogger())

	event := validEvent()
	event.TenantID = ""

	err := pub.Publish(context.Background(), event, "test")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationMissingTenant, appErr.Code)
	assert.Empty(t, sender.inputs, "invalid events must not reach the queue")
}

func TestPublisherWrapsSendError(t *testing.T) {
	sender := &mockSQSSender{sendErr: errors.New("throttled")}
	pub := NewPublisher(sender, "https://sqs.test/billing-events", testLogger())

	err := pub.Publish(context.Background(), validEvent(), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send event")
}
