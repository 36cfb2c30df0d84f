package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billmail/internal/types"

	stripe "github.com/stripe/stripe-go/v82"
)

// stripeAPIBase is the default Stripe API base URL.
// Overridable in tests via StripeClientConfig.BaseURL.
const stripeAPIBase = "https://api.stripe.com"

// StripeClientConfig holds the configuration for creating a StripeClient.
type StripeClientConfig struct {
	SecretKey string
	BaseURL   string // Override for testing; defaults to stripeAPIBase
	Logger    *slog.Logger
}

// StripeClient implements types.DataSource against the Stripe REST API
// through BaseClient, decoding responses into stripe-go's types and mapping
// them to the domain model. Requests route all calls through the platform's
// resilience infrastructure (circuit breaker, retries, error mapping) and
// make testing with httptest straightforward.
//
// Tenancy maps onto Stripe Connect: the tenant ID is sent as the
// Stripe-Account header, so each tenant's data lives in its own connected
// account. The root tenant (empty tenant ID) hits the platform account.
type StripeClient struct {
	base      *BaseClient
	secretKey string
	baseURL   string
	logger    *slog.Logger
}

// NewStripeClient creates a new StripeClient. The httpClient timeout should
// match BILLING_API_TIMEOUT.
func NewStripeClient(httpClient *http.Client, cfg StripeClientConfig) *StripeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = stripeAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"stripe",
		RetryPolicy{
			MaxRetries: 2,
			MinWait:    500 * time.Millisecond,
			MaxWait:    5 * time.Second,
		},
		"BillMail/1.0",
	)

	return &StripeClient{
		base:      base,
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    logger,
	}
}

// NewStripeClientWithBase creates a StripeClient with a pre-configured
// BaseClient. Useful for testing with retries disabled.
func NewStripeClientWithBase(base *BaseClient, cfg StripeClientConfig) *StripeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = stripeAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &StripeClient{
		base:      base,
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// DataSource Implementation
// ---------------------------------------------------------------------------

func (s *StripeClient) GetAccount(ctx context.Context, accountID, tenantID string) (*types.Account, error) {
	var customer stripe.Customer
	if err := s.getJSON(ctx, tenantID, "/v1/customers/"+url.PathEscape(accountID), types.ErrCodeDomainAccountNotFound, &customer); err != nil {
		return nil, err
	}
	return mapStripeCustomer(&customer), nil
}

// GetAccountEmails returns the customer's email. Stripe carries a single
// email per customer, so there are never secondary addresses.
func (s *StripeClient) GetAccountEmails(ctx context.Context, accountID, tenantID string) ([]string, error) {
	account, err := s.GetAccount(ctx, accountID, tenantID)
	if err != nil {
		return nil, err
	}
	if account.Email == "" {
		return nil, nil
	}
	return []string{account.Email}, nil
}

func (s *StripeClient) GetInvoice(ctx context.Context, invoiceID, tenantID string) (*types.Invoice, error) {
	var invoice stripe.Invoice
	if err := s.getJSON(ctx, tenantID, "/v1/invoices/"+url.PathEscape(invoiceID), types.ErrCodeDomainInvoiceNotFound, &invoice); err != nil {
		return nil, err
	}
	return mapStripeInvoice(&invoice), nil
}

// GetLastPayment resolves the invoice's payment intent and maps its latest
// charge to a single-transaction payment.
func (s *StripeClient) GetLastPayment(ctx context.Context, invoiceID, tenantID string) (*types.Payment, error) {
	// Only the payment_intent reference is needed from the invoice here.
	var ref struct {
		PaymentIntent string `json:"payment_intent"`
		Customer      string `json:"customer"`
	}
	if err := s.getJSON(ctx, tenantID, "/v1/invoices/"+url.PathEscape(invoiceID), types.ErrCodeDomainInvoiceNotFound, &ref); err != nil {
		return nil, err
	}
	if ref.PaymentIntent == "" {
		return nil, types.NewAppError(
			types.ErrCodeDomainPaymentNotFound,
			fmt.Sprintf("invoice %s has no payment intent", invoiceID),
			nil,
		)
	}

	var intent stripe.PaymentIntent
	path := "/v1/payment_intents/" + url.PathEscape(ref.PaymentIntent) + "?expand[]=latest_charge"
	if err := s.getJSON(ctx, tenantID, path, types.ErrCodeDomainPaymentNotFound, &intent); err != nil {
		return nil, err
	}

	payment := &types.Payment{
		ID:        intent.ID,
		InvoiceID: invoiceID,
		AccountID: ref.Customer,
	}
	if intent.LatestCharge != nil {
		payment.Transactions = []types.PaymentTransaction{mapStripeCharge(intent.LatestCharge, intent.ID)}
	}
	return payment, nil
}

func (s *StripeClient) GetSubscription(ctx context.Context, subscriptionID, tenantID string) (*types.Subscription, error) {
	var sub stripe.Subscription
	if err := s.getJSON(ctx, tenantID, "/v1/subscriptions/"+url.PathEscape(subscriptionID), types.ErrCodeDomainSubscriptionNotFound, &sub); err != nil {
		return nil, err
	}
	return mapStripeSubscription(&sub), nil
}

// TriggerInvoiceGeneration maps onto Stripe's upcoming-invoice preview: the
// invoice is computed server-side and never committed. Stripe previews at its
// own billing period boundary; the target date is accepted for interface
// compatibility but not forwarded.
func (s *StripeClient) TriggerInvoiceGeneration(ctx context.Context, accountID string, targetDate time.Time, tenantID string) (*types.Invoice, error) {
	var invoice stripe.Invoice
	path := "/v1/invoices/upcoming?customer=" + url.QueryEscape(accountID)
	if err := s.getJSON(ctx, tenantID, path, types.ErrCodeDomainAccountNotFound, &invoice); err != nil {
		return nil, err
	}
	mapped := mapStripeInvoice(&invoice)
	mapped.TargetDate = targetDate.UTC()
	return mapped, nil
}

// ---------------------------------------------------------------------------
// Stripe -> Domain Mapping
// ---------------------------------------------------------------------------

func mapStripeCustomer(c *stripe.Customer) *types.Account {
	account := &types.Account{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Currency: strings.ToUpper(string(c.Currency)),
	}
	if len(c.PreferredLocales) > 0 {
		// Stripe locales are BCP 47 ("fr-FR"); the domain uses underscores.
		account.Locale = strings.ReplaceAll(c.PreferredLocales[0], "-", "_")
	}
	if c.Address != nil {
		account.Address1 = c.Address.Line1
		account.Address2 = c.Address.Line2
		account.City = c.Address.City
		account.State = c.Address.State
		account.PostalCode = c.Address.PostalCode
		account.Country = c.Address.Country
	}
	return account
}

func mapStripeInvoice(inv *stripe.Invoice) *types.Invoice {
	currency := strings.ToUpper(string(inv.Currency))
	invoice := &types.Invoice{
		ID:            inv.ID,
		InvoiceNumber: inv.Number,
		InvoiceDate:   time.Unix(inv.Created, 0).UTC(),
		Currency:      currency,
		Amount:        centsToUnits(inv.AmountDue),
		PaidAmount:    centsToUnits(inv.AmountPaid),
		BalanceAmount: centsToUnits(inv.AmountRemaining),
	}
	if inv.Customer != nil {
		invoice.AccountID = inv.Customer.ID
	}
	if inv.PeriodEnd > 0 {
		invoice.TargetDate = time.Unix(inv.PeriodEnd, 0).UTC()
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			item := types.InvoiceItem{
				ID:          line.ID,
				Description: line.Description,
				Currency:    strings.ToUpper(string(line.Currency)),
				Amount:      centsToUnits(line.Amount),
			}
			if line.Period != nil {
				item.StartDate = time.Unix(line.Period.Start, 0).UTC()
				item.EndDate = time.Unix(line.Period.End, 0).UTC()
			}
			invoice.Items = append(invoice.Items, item)
		}
	}
	return invoice
}

// mapStripeCharge translates a charge into a transaction. A refunded charge
// reads as a successful refund; otherwise the charge status decides between a
// successful and a failed purchase.
func mapStripeCharge(charge *stripe.Charge, paymentID string) types.PaymentTransaction {
	txn := types.PaymentTransaction{
		ID:            charge.ID,
		PaymentID:     paymentID,
		Currency:      strings.ToUpper(string(charge.Currency)),
		Amount:        centsToUnits(charge.Amount),
		EffectiveDate: time.Unix(charge.Created, 0).UTC(),
	}

	switch {
	case charge.Refunded:
		txn.Type = types.TransactionRefund
		txn.Status = types.TransactionSuccess
		txn.Amount = centsToUnits(charge.AmountRefunded)
	case charge.Status == stripe.ChargeStatusSucceeded:
		txn.Type = types.TransactionPurchase
		txn.Status = types.TransactionSuccess
	default:
		txn.Type = types.TransactionPurchase
		txn.Status = types.TransactionFailed
	}
	return txn
}

func mapStripeSubscription(sub *stripe.Subscription) *types.Subscription {
	mapped := &types.Subscription{
		ID: sub.ID,
	}
	if sub.Customer != nil {
		mapped.AccountID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			mapped.PlanName = item.Price.Nickname
			if mapped.PlanName == "" {
				mapped.PlanName = item.Price.ID
			}
			if item.Price.Product != nil {
				mapped.ProductName = item.Price.Product.Name
			}
		}
		if item.CurrentPeriodEnd > 0 {
			mapped.ChargedThrough = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}

	switch sub.Status {
	case stripe.SubscriptionStatusCanceled:
		mapped.State = types.SubscriptionCancelled
		if sub.CanceledAt > 0 {
			mapped.CancellationDate = time.Unix(sub.CanceledAt, 0).UTC()
		}
	default:
		mapped.State = types.SubscriptionActive
		if sub.CancelAt > 0 {
			// Cancellation requested but not yet effective.
			mapped.CancellationDate = time.Unix(sub.CancelAt, 0).UTC()
		}
	}
	return mapped
}

// centsToUnits converts Stripe's integer minor-unit amounts to the domain's
// major-unit floats.
func centsToUnits(cents int64) float64 {
	return float64(cents) / 100
}

// ---------------------------------------------------------------------------
// HTTP Helpers
// ---------------------------------------------------------------------------

// getJSON performs an authenticated GET against the Stripe API and decodes
// the response. A 404 maps to notFoundCode.
func (s *StripeClient) getJSON(ctx context.Context, tenantID, path string, notFoundCode types.ErrorCode, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create Stripe request",
			err,
		)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if tenantID != types.NoTenant {
		req.Header.Set("Stripe-Account", tenantID)
	}

	resp, err := s.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return types.NewAppError(
			notFoundCode,
			fmt.Sprintf("Stripe returned 404 for %s", path),
			nil,
		)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return types.NewAppError(
			types.ErrCodeDomainUnavailable,
			fmt.Sprintf("Stripe returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body))),
			nil,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewAppError(
			types.ErrCodeDomainUnavailable,
			fmt.Sprintf("Stripe returned an unreadable body for %s", path),
			err,
		)
	}
	return nil
}

// Compile-time assertion that StripeClient satisfies DataSource.
var _ types.DataSource = (*StripeClient)(nil)
