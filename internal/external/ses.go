package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"billmail/internal/types"
)

// SESAPI defines the subset of the SES v2 client used by SESSender.
// Extracted for testability — tests can provide a mock implementation.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSenderConfig holds the configuration for creating an SESSender.
type SESSenderConfig struct {
	FromAddress string
	FromName    string
	// ConfigSetName is the SES configuration set name for tracking.
	// Optional; if empty, no configuration set is used.
	ConfigSetName string
	Logger        *slog.Logger
}

// SESSender implements types.MailSender using AWS SES v2.
// Authentication is handled via IAM roles (no API key required).
// The AWS SDK provides built-in retry logic, so no BaseClient wrapper is needed.
type SESSender struct {
	api           SESAPI
	fromAddress   string
	fromName      string
	configSetName string
	logger        *slog.Logger
}

// NewSESSender creates a new SESSender from an AWS config.
func NewSESSender(awsCfg aws.Config, cfg SESSenderConfig) *SESSender {
	return newSESSender(sesv2.NewFromConfig(awsCfg), cfg)
}

// NewSESSenderWithAPI creates an SESSender with a pre-configured SESAPI.
// Useful for testing with a mock SES interface.
func NewSESSenderWithAPI(api SESAPI, cfg SESSenderConfig) *SESSender {
	return newSESSender(api, cfg)
}

func newSESSender(api SESAPI, cfg SESSenderConfig) *SESSender {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SESSender{
		api:           api,
		fromAddress:   cfg.FromAddress,
		fromName:      cfg.FromName,
		configSetName: cfg.ConfigSetName,
		logger:        logger,
	}
}

// Send transmits a rendered email using SES v2 SendEmail with simple content.
// The content is pre-rendered plain text — no server-side templates.
//
// Error mapping:
//   - TooManyRequestsException -> ErrCodeTransportRateLimited
//   - MessageRejected, SendingPausedException, other -> ErrCodeTransportSend
func (s *SESSender) Send(ctx context.Context, to []string, cc []string, subject, body string) error {
	fromAddr := s.fromAddress
	if s.fromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddr),
		Destination: &sestypes.Destination{
			ToAddresses: to,
			CcAddresses: cc,
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{
					Text: &sestypes.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	// Set configuration set for tracking if configured.
	if s.configSetName != "" {
		input.ConfigurationSetName = aws.String(s.configSetName)
	}

	if _, err := s.api.SendEmail(ctx, input); err != nil {
		return mapSESError(err)
	}
	return nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeTransportRateLimited,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("SES rejected message: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeTransportSend,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}

// Compile-time assertion that SESSender satisfies MailSender.
var _ types.MailSender = (*SESSender)(nil)
