package types

import (
	"context"
	"time"
)

// Logger defines the structured logging interface used throughout the
// service. Worker and API binaries back it with log/slog.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// DataSource is the read interface onto the billing system of record.
// Implementations live in internal/external (REST client, Stripe adapter,
// log-only stub); the core only consumes this interface.
//
// Not-found and upstream failures surface as *AppError with a domain_* code.
type DataSource interface {
	GetAccount(ctx context.Context, accountID, tenantID string) (*Account, error)
	GetAccountEmails(ctx context.Context, accountID, tenantID string) ([]string, error)
	GetInvoice(ctx context.Context, invoiceID, tenantID string) (*Invoice, error)
	// GetLastPayment returns the most recent payment recorded against the
	// invoice, or a domain_payment_not_found error when the invoice has none.
	GetLastPayment(ctx context.Context, invoiceID, tenantID string) (*Payment, error)
	GetSubscription(ctx context.Context, subscriptionID, tenantID string) (*Subscription, error)
	// TriggerInvoiceGeneration produces a dry-run invoice for the account at
	// the target date without committing it.
	TriggerInvoiceGeneration(ctx context.Context, accountID string, targetDate time.Time, tenantID string) (*Invoice, error)
}

// MailSender delivers a rendered email. Implementations must not retry;
// a send failure is terminal for the event being dispatched.
type MailSender interface {
	Send(ctx context.Context, to []string, cc []string, subject, body string) error
}

// ConfigStore is the durable (tenant, account, event type) allow-list.
// Implemented by db.ConfigRepository; consumed by the gate and the admin API.
type ConfigStore interface {
	GetEventTypes(ctx context.Context, accountIDs []string, tenantID string) ([]NotificationConfig, error)
	GetEventTypesForAccount(ctx context.Context, accountID, tenantID string) ([]NotificationConfig, error)
	GetEventTypeForAccount(ctx context.Context, accountID, tenantID string, eventType EventType) (*NotificationConfig, error)
	ReplaceAccountConfig(ctx context.Context, accountID, tenantID string, eventTypes []EventType, now time.Time) error
	DeleteAccountConfig(ctx context.Context, accountID, tenantID string) error
}
