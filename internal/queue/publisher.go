// Package queue provides the SQS producer for billing lifecycle events.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"billmail/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends billing events to the event queue consumed by the event
// worker. Its main consumers are operator tooling (manual injection, replay
// of dropped events) and integration tests; production events normally
// arrive from the upstream billing bus.
type Publisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewPublisher creates a Publisher bound to the given queue URL.
func NewPublisher(client SQSSender, queueURL string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Publish validates and enqueues one billing event. A missing EventID is
// filled in so replayed events stay traceable. The reason attribute records
// why the event was injected (replay, test, backfill) without touching the
// envelope itself.
func (p *Publisher) Publish(ctx context.Context, event *types.Event, reason string) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if err := event.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal event: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"reason": {
				DataType:    aws.String("String"),
				StringValue: aws.String(reason),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send event to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "billing event published",
		"queue_url", p.queueURL,
		"event_id", event.EventID,
		"event_type", string(event.EventType),
		"tenant_id", event.TenantID,
		"account_id", event.AccountID,
		"reason", reason,
	)

	return nil
}
