package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"billmail/internal/types"
)

// sendGridAPIBase is the default SendGrid API base URL.
// Overridable in tests via SendGridSenderConfig.BaseURL.
const sendGridAPIBase = "https://api.sendgrid.com"

// SendGridSenderConfig holds the configuration for creating a SendGridSender.
type SendGridSenderConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	BaseURL     string // Override for testing; defaults to sendGridAPIBase
	Logger      *slog.Logger
}

// SendGridSender implements types.MailSender by making direct HTTP calls to
// the SendGrid v3 Mail Send API through BaseClient. This routes all requests
// through the platform's resilience infrastructure (circuit breaker, retries,
// error mapping) and makes testing with httptest straightforward.
type SendGridSender struct {
	base        *BaseClient
	apiKey      string
	fromAddress string
	fromName    string
	baseURL     string
	logger      *slog.Logger
}

// NewSendGridSender creates a new SendGridSender. The httpClient timeout
// should be around 10 seconds.
func NewSendGridSender(httpClient *http.Client, cfg SendGridSenderConfig) *SendGridSender {
	base := NewBaseClient(
		httpClient,
		"sendgrid",
		RetryPolicy{
			MaxRetries: 2,
			MinWait:    500 * time.Millisecond,
			MaxWait:    5 * time.Second,
		},
		"BillMail/1.0",
		WithErrorCodes(types.ErrCodeTransportSend, types.ErrCodeTransportRateLimited),
	)
	return newSendGridSender(base, cfg)
}

// NewSendGridSenderWithBase creates a SendGridSender with a pre-configured
// BaseClient. Useful for testing with retries disabled.
func NewSendGridSenderWithBase(base *BaseClient, cfg SendGridSenderConfig) *SendGridSender {
	return newSendGridSender(base, cfg)
}

func newSendGridSender(base *BaseClient, cfg SendGridSenderConfig) *SendGridSender {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sendGridAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SendGridSender{
		base:        base,
		apiKey:      cfg.APIKey,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// MailSender Implementation
// ---------------------------------------------------------------------------

// Send transmits a rendered email using SendGrid's v3 Mail Send API with
// inline plain-text content.
//
// Error mapping:
//   - 429 Too Many Requests -> handled by BaseClient (retry + ErrCodeTransportRateLimited)
//   - 5xx -> handled by BaseClient (retry + ErrCodeTransportSend)
//   - Other 4xx -> types.ErrCodeTransportSend
func (s *SendGridSender) Send(ctx context.Context, to []string, cc []string, subject, body string) error {
	payload := s.buildMailPayload(to, cc, subject, body)

	raw, err := json.Marshal(payload)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to marshal SendGrid mail payload",
			err,
		)
	}

	reqURL := s.baseURL + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(raw))
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create SendGrid mail send request",
			err,
		)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode == http.StatusAccepted {
		return nil
	}

	return s.handleErrorResponse(resp)
}

// ---------------------------------------------------------------------------
// Payload Construction
// ---------------------------------------------------------------------------

// sendGridMailPayload represents the SendGrid v3 mail/send JSON request body
// with inline content.
type sendGridMailPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
	CC []sendGridAddress `json:"cc,omitempty"`
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (s *SendGridSender) buildMailPayload(to []string, cc []string, subject, body string) sendGridMailPayload {
	personalization := sendGridPersonalization{}
	for _, addr := range to {
		personalization.To = append(personalization.To, sendGridAddress{Email: addr})
	}
	for _, addr := range cc {
		personalization.CC = append(personalization.CC, sendGridAddress{Email: addr})
	}

	return sendGridMailPayload{
		Personalizations: []sendGridPersonalization{personalization},
		From: sendGridAddress{
			Email: s.fromAddress,
			Name:  s.fromName,
		},
		Subject: subject,
		Content: []sendGridContent{
			{Type: "text/plain", Value: body},
		},
	}
}

// ---------------------------------------------------------------------------
// Error Handling
// ---------------------------------------------------------------------------

// sendGridErrorResponse represents the JSON error body returned by SendGrid.
type sendGridErrorResponse struct {
	Errors []sendGridErrorDetail `json:"errors"`
}

type sendGridErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field"`
	Help    string `json:"help"`
}

// handleErrorResponse reads a SendGrid error response and maps it to a
// types.AppError.
func (s *SendGridSender) handleErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("SendGrid returned status %d and response body was unreadable", resp.StatusCode),
			readErr,
		)
	}

	var sgErr sendGridErrorResponse
	errMsg := ""
	if jsonErr := json.Unmarshal(body, &sgErr); jsonErr == nil && len(sgErr.Errors) > 0 {
		errMsg = sgErr.Errors[0].Message
	} else {
		errMsg = string(body)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return types.NewAppError(
			types.ErrCodeTransportRateLimited,
			"SendGrid rate limit exceeded",
			nil,
		)
	}
	return types.NewAppError(
		types.ErrCodeTransportSend,
		fmt.Sprintf("SendGrid error (%d): %s", resp.StatusCode, errMsg),
		nil,
	)
}

// Compile-time assertion that SendGridSender satisfies MailSender.
var _ types.MailSender = (*SendGridSender)(nil)
