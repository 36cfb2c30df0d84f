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

// BillingClientConfig holds the configuration for creating a BillingClient.
type BillingClientConfig struct {
	BaseURL string
	APIKey  string
	Logger  *slog.Logger
}

// BillingClient implements types.DataSource against the billing system of
// record's REST API through BaseClient. All requests carry the tenant in the
// path; the billing system enforces tenant isolation server-side.
type BillingClient struct {
	base    *BaseClient
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

// NewBillingClient creates a new BillingClient. The httpClient timeout should
// match BILLING_API_TIMEOUT.
func NewBillingClient(httpClient *http.Client, cfg BillingClientConfig) *BillingClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"billing",
		RetryPolicy{
			MaxRetries: 2,
			MinWait:    500 * time.Millisecond,
			MaxWait:    5 * time.Second,
		},
		"BillMail/1.0",
	)

	return &BillingClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// NewBillingClientWithBase creates a BillingClient with a pre-configured
// BaseClient. This is useful for testing when you want to control the
// BaseClient configuration (e.g., disable retries).
func NewBillingClientWithBase(base *BaseClient, cfg BillingClientConfig) *BillingClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BillingClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// ---------------------------------------------------------------------------
// DataSource Implementation
// ---------------------------------------------------------------------------

func (b *BillingClient) GetAccount(ctx context.Context, accountID, tenantID string) (*types.Account, error) {
	var account types.Account
	path := fmt.Sprintf("/v1/tenants/%s/accounts/%s", tenantID, accountID)
	if err := b.getJSON(ctx, path, types.ErrCodeDomainAccountNotFound, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (b *BillingClient) GetAccountEmails(ctx context.Context, accountID, tenantID string) ([]string, error) {
	var out struct {
		Emails []string `json:"emails"`
	}
	path := fmt.Sprintf("/v1/tenants/%s/accounts/%s/emails", tenantID, accountID)
	if err := b.getJSON(ctx, path, types.ErrCodeDomainAccountNotFound, &out); err != nil {
		return nil, err
	}
	return out.Emails, nil
}

func (b *BillingClient) GetInvoice(ctx context.Context, invoiceID, tenantID string) (*types.Invoice, error) {
	var invoice types.Invoice
	path := fmt.Sprintf("/v1/tenants/%s/invoices/%s", tenantID, invoiceID)
	if err := b.getJSON(ctx, path, types.ErrCodeDomainInvoiceNotFound, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (b *BillingClient) GetLastPayment(ctx context.Context, invoiceID, tenantID string) (*types.Payment, error) {
	var payment types.Payment
	path := fmt.Sprintf("/v1/tenants/%s/invoices/%s/payments/last", tenantID, invoiceID)
	if err := b.getJSON(ctx, path, types.ErrCodeDomainPaymentNotFound, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (b *BillingClient) GetSubscription(ctx context.Context, subscriptionID, tenantID string) (*types.Subscription, error) {
	var sub types.Subscription
	path := fmt.Sprintf("/v1/tenants/%s/subscriptions/%s", tenantID, subscriptionID)
	if err := b.getJSON(ctx, path, types.ErrCodeDomainSubscriptionNotFound, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// TriggerInvoiceGeneration asks the billing system for a dry-run invoice at
// the target date. The invoice is computed but never committed upstream.
func (b *BillingClient) TriggerInvoiceGeneration(ctx context.Context, accountID string, targetDate time.Time, tenantID string) (*types.Invoice, error) {
	payload := struct {
		TargetDate string `json:"target_date"`
	}{TargetDate: targetDate.UTC().Format("2006-01-02")}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to marshal dry-run invoice request",
			err,
		)
	}

	path := fmt.Sprintf("/v1/tenants/%s/accounts/%s/invoices/dry-run", tenantID, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create dry-run invoice request",
			err,
		)
	}
	req.Header.Set("Content-Type", "application/json")
	b.setAuthHeaders(req)

	resp, err := b.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewAppError(
			types.ErrCodeDomainAccountNotFound,
			fmt.Sprintf("billing system has no account %s", accountID),
			nil,
		)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, b.unexpectedStatus("TriggerInvoiceGeneration", resp)
	}

	var invoice types.Invoice
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeDomainUnavailable,
			"billing system returned an unreadable dry-run invoice",
			err,
		)
	}
	return &invoice, nil
}

// ---------------------------------------------------------------------------
// HTTP Helpers
// ---------------------------------------------------------------------------

// getJSON performs an authenticated GET and decodes the JSON response body.
// A 404 maps to the given notFoundCode; other unexpected statuses map to
// domain_source_unavailable.
func (b *BillingClient) getJSON(ctx context.Context, path string, notFoundCode types.ErrorCode, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create billing request",
			err,
		)
	}
	b.setAuthHeaders(req)

	resp, err := b.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return types.NewAppError(
			notFoundCode,
			fmt.Sprintf("billing system returned 404 for %s", path),
			nil,
		)
	default:
		return b.unexpectedStatus("GET "+path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewAppError(
			types.ErrCodeDomainUnavailable,
			fmt.Sprintf("billing system returned an unreadable body for %s", path),
			err,
		)
	}
	return nil
}

func (b *BillingClient) setAuthHeaders(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
}

func (b *BillingClient) unexpectedStatus(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return types.NewAppError(
		types.ErrCodeDomainUnavailable,
		fmt.Sprintf("%s: billing system returned %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(body))),
		nil,
	)
}

// Compile-time assertion that BillingClient satisfies DataSource.
var _ types.DataSource = (*BillingClient)(nil)
