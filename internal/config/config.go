// Package config defines the global configuration structure for the billmail
// service. Configuration is loaded once at process initialization and is
// immutable thereafter, following 12-Factor principles.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format fails the process on startup.
package config

import (
	"time"

	"billmail/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"billmail"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Mail          MailConfig
	Billing       BillingConfig
	Notification  NotificationConfig
	Enrichment    EnrichmentConfig
	Observability ObservabilityConfig

	// Build metadata (injected via ldflags, not env).
	Build BuildInfo
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// DatabaseConfig holds Postgres connection and pool tuning parameters for
// the configuration store.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// EventQueue is the SQS queue carrying inbound billing events.
	EventQueue string `envconfig:"SQS_BILLING_EVENTS"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// MailConfig selects and configures the outbound mail transport.
// Provider "log" performs all formatting but skips the transport call.
type MailConfig struct {
	Provider       string       `envconfig:"MAIL_PROVIDER" default:"log" validate:"oneof=ses sendgrid log"`
	FromAddress    string       `envconfig:"MAIL_FROM_ADDRESS" default:"billing@billmail.io"`
	FromName       string       `envconfig:"MAIL_FROM_NAME" default:"Billing Notifications"`
	SendGridAPIKey SecretString `envconfig:"SENDGRID_API_KEY"`
	SESConfigSet   string       `envconfig:"SES_CONFIG_SET"`
}

// BillingConfig selects and configures the billing system of record the
// domain data is fetched from.
type BillingConfig struct {
	Source  string        `envconfig:"BILLING_SOURCE" default:"stub" validate:"oneof=rest stripe stub"`
	BaseURL string        `envconfig:"BILLING_API_URL"`
	APIKey  SecretString  `envconfig:"BILLING_API_KEY"`
	Timeout time.Duration `envconfig:"BILLING_API_TIMEOUT" default:"10s"`

	StripeSecretKey SecretString `envconfig:"STRIPE_SECRET_KEY"`
}

// NotificationConfig holds process-wide notification defaults. Per-tenant
// values pushed at runtime override these (see gate.TenantDefaults).
type NotificationConfig struct {
	DefaultLocale     string   `envconfig:"DEFAULT_LOCALE" default:"en_US"`
	DefaultEventTypes []string `envconfig:"DEFAULT_EVENT_TYPES"`
	DryRunNoticeDays  int      `envconfig:"DRY_RUN_NOTICE_DAYS" default:"7"`
}

// EnrichmentConfig configures the optional invoice metadata enrichment step.
// An empty URL disables enrichment entirely.
type EnrichmentConfig struct {
	MetadataURL string        `envconfig:"INVOICE_METADATA_URL"`
	Timeout     time.Duration `envconfig:"INVOICE_METADATA_TIMEOUT" default:"5s"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"BillMail"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure parsing environment values into their
	// target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
