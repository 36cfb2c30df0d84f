package external

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"billmail/internal/config"
	"billmail/internal/display"
	"billmail/internal/types"
)

// ---------------------------------------------------------------------------
// Client Registry
//
// Central factory that instantiates all external service clients based on
// configuration. In local mode, returns stub implementations that log
// actions without requiring real credentials. Otherwise, returns real
// client implementations with strict timeouts.
// ---------------------------------------------------------------------------

// ClientRegistry holds all external service client interfaces. It is the
// single point of access for the rest of the application to interact with
// the billing system of record, the mail transport, and the invoice
// metadata service.
type ClientRegistry struct {
	Source types.DataSource
	Mailer types.MailSender

	// Metadata is nil when enrichment is not configured; the display
	// enricher treats a nil client as "enrichment disabled".
	Metadata display.MetadataClient
}

// NewClientRegistry initializes all external service clients.
//
// The billing data source follows BILLING_SOURCE (rest, stripe, stub) and
// the mail transport follows MAIL_PROVIDER (ses, sendgrid, log). APP_ENV=
// local forces stubs and the log transport regardless of those settings, so
// a local process can never reach production services by accident.
func NewClientRegistry(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (*ClientRegistry, error) {
	reg := &ClientRegistry{}

	local := cfg.Environment == "local"

	source, err := newDataSource(cfg, logger, local)
	if err != nil {
		return nil, err
	}
	reg.Source = source

	mailer, err := newMailSender(cfg, awsCfg, logger, local)
	if err != nil {
		return nil, err
	}
	reg.Mailer = mailer

	if cfg.Enrichment.MetadataURL != "" && !local {
		reg.Metadata = NewMetadataClient(
			&http.Client{Timeout: cfg.Enrichment.Timeout},
			MetadataClientConfig{
				BaseURL: cfg.Enrichment.MetadataURL,
				Logger:  logger,
			},
		)
	}

	return reg, nil
}

func newDataSource(cfg *config.Config, logger *slog.Logger, local bool) (types.DataSource, error) {
	if local || cfg.Billing.Source == "stub" {
		return NewStubDataSource(logger, types.RealClock{}), nil
	}

	httpClient := &http.Client{Timeout: cfg.Billing.Timeout}

	switch cfg.Billing.Source {
	case "rest":
		if cfg.Billing.BaseURL == "" {
			return nil, fmt.Errorf("external: BILLING_API_URL is required when BILLING_SOURCE=rest")
		}
		return NewBillingClient(httpClient, BillingClientConfig{
			BaseURL: cfg.Billing.BaseURL,
			APIKey:  cfg.Billing.APIKey.Unmask(),
			Logger:  logger,
		}), nil
	case "stripe":
		if cfg.Billing.StripeSecretKey.Unmask() == "" {
			return nil, fmt.Errorf("external: STRIPE_SECRET_KEY is required when BILLING_SOURCE=stripe")
		}
		return NewStripeClient(httpClient, StripeClientConfig{
			SecretKey: cfg.Billing.StripeSecretKey.Unmask(),
			Logger:    logger,
		}), nil
	default:
		return nil, fmt.Errorf("external: unknown billing source %q", cfg.Billing.Source)
	}
}

func newMailSender(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger, local bool) (types.MailSender, error) {
	if local || cfg.Mail.Provider == "log" {
		return NewLogMailSender(logger), nil
	}

	switch cfg.Mail.Provider {
	case "ses":
		return NewSESSender(awsCfg, SESSenderConfig{
			FromAddress:   cfg.Mail.FromAddress,
			FromName:      cfg.Mail.FromName,
			ConfigSetName: cfg.Mail.SESConfigSet,
			Logger:        logger,
		}), nil
	case "sendgrid":
		if cfg.Mail.SendGridAPIKey.Unmask() == "" {
			return nil, fmt.Errorf("external: SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
		}
		return NewSendGridSender(
			&http.Client{Timeout: 10 * time.Second},
			SendGridSenderConfig{
				APIKey:      cfg.Mail.SendGridAPIKey.Unmask(),
				FromAddress: cfg.Mail.FromAddress,
				FromName:    cfg.Mail.FromName,
				Logger:      logger,
			},
		), nil
	default:
		return nil, fmt.Errorf("external: unknown mail provider %q", cfg.Mail.Provider)
	}
}
