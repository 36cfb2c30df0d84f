// Package main implements the eventctl CLI tool for publishing billing
// events to the event queue directly, bypassing the upstream billing bus.
//
// This tool is intended for local development, manual replay of dropped
// events, and operational debugging. It constructs a billing event envelope
// from flags and sends it through the same SQS producer the platform uses.
//
// Usage:
//
//	go run ./cmd/eventctl --tenant=acme --account=acct_123 --type=invoice_creation --object=inv_456
//	go run ./cmd/eventctl --tenant=acme --account=acct_123 --type=subscription_cancel --object=sub_789 --reason=replay
//	go run ./cmd/eventctl --dry-run --tenant=acme --account=acct_123 --type=invoice_payment_failed --object=inv_456
//	go run ./cmd/eventctl --list
//
// The tool reads SQS_BILLING_EVENTS and AWS_REGION from environment
// variables (or a .env file via godotenv). In --dry-run mode it prints the
// constructed JSON envelope without sending.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"billmail/internal/queue"
	"billmail/internal/types"
)

const publishTimeout = 10 * time.Second

// objectTypes maps each event type to the billing object its envelope
// references. Kept in sync with the routing table in internal/router.
var objectTypes = map[types.EventType]string{
	types.EventInvoiceCreation:           "invoice",
	types.EventInvoiceNotificationDryRun: "account",
	types.EventInvoicePaymentSuccess:     "invoice",
	types.EventInvoicePaymentFailed:      "invoice",
	types.EventSubscriptionCancel:        "subscription",
}

func main() {
	var (
		tenantID  = flag.String("tenant", "", "tenant identifier (required)")
		accountID = flag.String("account", "", "account identifier (required)")
		eventType = flag.String("type", "", "event type (required, see --list)")
		objectID  = flag.String("object", "", "billing object identifier (invoice, subscription)")
		eventID   = flag.String("event-id", "", "event id (defaults to a new UUID)")
		reason    = flag.String("reason", "manual", "reason attribute recorded on the message")
		dryRun    = flag.Bool("dry-run", false, "print the envelope without sending")
		list      = flag.Bool("list", false, "list known event types and exit")
	)
	flag.Parse()

	if *list {
		for _, et := range types.AllEventTypes {
			fmt.Printf("  %-32s object_type=%s\n", et, objectTypes[et])
		}
		return
	}

	if err := run(*tenantID, *accountID, *eventType, *objectID, *eventID, *reason, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "eventctl: %v\n", err)
		os.Exit(1)
	}
}

func run(tenantID, accountID, eventType, objectID, eventID, reason string, dryRun bool) error {
	if !types.ValidEventType(eventType) {
		return fmt.Errorf("unknown event type %q (use --list)", eventType)
	}

	event := &types.Event{
		EventID:    eventID,
		EventType:  types.EventType(eventType),
		AccountID:  accountID,
		TenantID:   tenantID,
		ObjectID:   objectID,
		ObjectType: objectTypes[types.EventType(eventType)],
	}
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if err := event.Validate(); err != nil {
		return err
	}

	if dryRun {
		body, err := json.MarshalIndent(event, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	}

	// Best effort; a missing .env is fine when the variables are exported.
	_ = godotenv.Load()

	queueURL := os.Getenv("SQS_BILLING_EVENTS")
	if queueURL == "" {
		return fmt.Errorf("SQS_BILLING_EVENTS is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading AWS SDK config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	publisher := queue.NewPublisher(sqs.NewFromConfig(awsCfg), queueURL, logger)

	if err := publisher.Publish(ctx, event, reason); err != nil {
		return err
	}

	fmt.Printf("published %s event %s for account %s\n", event.EventType, event.EventID, event.AccountID)
	return nil
}
