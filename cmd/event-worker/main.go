// Package main is the entrypoint for the event worker Lambda function.
//
// The event worker consumes billing events from the SQS event queue, runs
// each one through the notification dispatch pipeline (gate, routing, domain
// fetch, rendering), and delivers the resulting email via the configured
// mail transport. Each invocation receives a batch of SQS messages; records
// in a batch are processed concurrently and independently.
//
// Cold start:
//  1. Load and validate configuration (env, dotenv, SSM).
//  2. Initialize the structured logger.
//  3. Open the Postgres configuration store.
//  4. Build the external client registry (billing source, mail transport).
//  5. Assemble the dispatcher and register the Lambda handler.
//
// In local mode (APP_ENV=local) the worker reads a JSON SQS event from stdin
// instead of starting the Lambda runtime, which enables integration testing
// without the AWS Lambda RIE.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"golang.org/x/sync/errgroup"

	"billmail/internal/config"
	"billmail/internal/db"
	"billmail/internal/dispatch"
	"billmail/internal/display"
	"billmail/internal/external"
	"billmail/internal/gate"
	"billmail/internal/i18n"
	"billmail/internal/router"
	"billmail/internal/template"
	"billmail/internal/types"
)

// maxConcurrentRecords bounds how many records of one SQS batch are
// dispatched at the same time.
const maxConcurrentRecords = 4

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info/Error/Warn directly but With returns
// *slog.Logger, not types.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// Compile-time assertion that slogAdapter implements types.Logger.
var _ types.Logger = (*slogAdapter)(nil)

// Handler holds the dependencies for the event worker Lambda handler.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	logger     types.Logger
}

// Handle processes an SQS event containing one or more billing events.
// Lambda SQS integration uses partial batch responses: messages whose
// failure is worth retrying are returned in batchItemFailures so SQS
// redelivers only those.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRecords)

	for _, record := range sqsEvent.Records {
		g.Go(func() error {
			if retryable := h.processRecord(gctx, record); retryable {
				mu.Lock()
				response.BatchItemFailures = append(response.BatchItemFailures,
					events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
				)
				mu.Unlock()
			}
			// Errors never abort the batch; each record is independent.
			return nil
		})
	}

	_ = g.Wait()
	return response, nil
}

// processRecord dispatches a single SQS record and reports whether SQS
// should redeliver it.
//
// Redelivery policy: only infrastructure failures are retryable (storage_,
// transport_ and domain_source_unavailable error families). Everything else
// -- malformed envelopes, unknown event types, tenant configuration errors,
// render failures -- is terminal: redelivering cannot fix the input.
func (h *Handler) processRecord(ctx context.Context, record events.SQSMessage) (retryable bool) {
	var event types.Event
	if err := json.Unmarshal([]byte(record.Body), &event); err != nil {
		h.logger.Error("failed to unmarshal billing event, dropping message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return false
	}

	if err := event.Validate(); err != nil {
		h.logger.Error("invalid billing event envelope, dropping message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return false
	}

	outcome := h.dispatcher.Dispatch(ctx, &event)
	if outcome.State != types.StateFailed && outcome.Err == nil {
		return false
	}

	return retryableError(outcome.Err)
}

// retryableError reports whether the error's code family indicates a
// transient infrastructure failure.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		// Unclassified errors are treated as transient; losing a
		// notification is worse than an extra delivery attempt.
		return true
	}
	switch appErr.Code.CodeFamily() {
	case "storage", "transport":
		return true
	}
	return appErr.Code == types.ErrCodeDomainUnavailable
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// SSM resolution needs a region before the config is parsed; the loader
	// skips the provider entirely in local mode.
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	}

	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	typedLogger := &slogAdapter{logger: logger}

	logger.Info("event worker initializing",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"event_queue", cfg.AWS.EventQueue,
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS SDK config: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening configuration store: %w", err)
	}
	defer pool.Close()

	configRepo := db.NewConfigRepository(pool)
	overrideRepo := db.NewOverrideRepository(pool)

	registry, err := external.NewClientRegistry(cfg, awsCfg, logger)
	if err != nil {
		return fmt.Errorf("building external clients: %w", err)
	}

	defaults := gate.NewTenantDefaults(globalDefaults(cfg))
	eventGate := gate.New(defaults, configRepo, typedLogger)

	clock := types.RealClock{}
	eventRouter := router.New(registry.Source, defaults, clock, typedLogger)

	var metrics dispatch.Metrics = dispatch.NoopMetrics{}
	if cfg.Environment != "local" {
		metrics = dispatch.NewCloudWatchMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			typedLogger,
		)
	}

	dispatcher := dispatch.New(dispatch.Config{
		Gate:          eventGate,
		Router:        eventRouter,
		Source:        registry.Source,
		Bundles:       i18n.NewResolver(overrideRepo, typedLogger),
		Templates:     template.NewSource(overrideRepo, typedLogger),
		Engine:        template.NewEngine(),
		Enricher:      display.NewEnricher(registry.Metadata, typedLogger),
		Mailer:        registry.Mailer,
		Defaults:      defaults,
		DefaultLocale: cfg.Notification.DefaultLocale,
		Metrics:       metrics,
		Logger:        typedLogger,
	})

	handler := &Handler{dispatcher: dispatcher, logger: typedLogger}

	logger.Info("event worker initialized",
		"billing_source", cfg.Billing.Source,
		"mail_provider", cfg.Mail.Provider,
	)

	// Local mode: read a JSON SQS event from stdin instead of starting the
	// Lambda runtime.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/event-worker
	if cfg.Environment == "local" {
		return runLocal(ctx, handler, logger)
	}

	lambda.Start(handler.Handle)
	return nil
}

func runLocal(ctx context.Context, handler *Handler, logger *slog.Logger) error {
	logger.Info("APP_ENV=local: reading SQS event from stdin")

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("no input received on stdin")
	}

	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(payload, &sqsEvent); err != nil {
		return fmt.Errorf("parsing stdin as SQS event: %w", err)
	}

	response, err := handler.Handle(ctx, sqsEvent)
	if err != nil {
		return fmt.Errorf("handler execution failed: %w", err)
	}
	if len(response.BatchItemFailures) > 0 {
		respJSON, _ := json.MarshalIndent(response, "", "  ")
		fmt.Fprintln(os.Stderr, string(respJSON))
	}

	logger.Info("handler execution completed",
		"records_processed", len(sqsEvent.Records),
		"failures", len(response.BatchItemFailures),
	)
	return nil
}

// globalDefaults builds the process-wide tenant default from configuration.
// Tenants that push their own defaults at runtime override this snapshot.
func globalDefaults(cfg *config.Config) *types.TenantDefaultConfig {
	eventTypes := make(map[types.EventType]bool, len(cfg.Notification.DefaultEventTypes))
	for _, raw := range cfg.Notification.DefaultEventTypes {
		if types.ValidEventType(raw) {
			eventTypes[types.EventType(raw)] = true
		}
	}
	return &types.TenantDefaultConfig{
		EventTypes:       eventTypes,
		DryRunNoticeDays: cfg.Notification.DryRunNoticeDays,
		DefaultLocale:    cfg.Notification.DefaultLocale,
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
