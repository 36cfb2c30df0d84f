package external

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"billmail/internal/types"
)

// ---------------------------------------------------------------------------
// Stub Implementations
//
// Stub implementations allow the application to boot in local/test mode
// without requiring real external service credentials. They log all
// actions and return predictable, safe default values.
// ---------------------------------------------------------------------------

// LogMailSender implements types.MailSender by logging the rendered email
// instead of transmitting it. This is the MAIL_PROVIDER=log transport: the
// full pipeline runs, only the final transport call is skipped.
type LogMailSender struct {
	logger *slog.Logger
}

// NewLogMailSender creates a new LogMailSender.
func NewLogMailSender(logger *slog.Logger) *LogMailSender {
	return &LogMailSender{logger: logger}
}

func (s *LogMailSender) Send(ctx context.Context, to []string, cc []string, subject, body string) error {
	s.logger.InfoContext(ctx, "log transport: email rendered but not sent",
		"to", to,
		"cc", cc,
		"subject", subject,
		"body_len", len(body),
	)
	return nil
}

// StubDataSource implements types.DataSource by logging calls and returning
// canned domain objects. Used when BILLING_SOURCE=stub or APP_ENV=local.
type StubDataSource struct {
	logger *slog.Logger
	clock  types.Clock
}

// NewStubDataSource creates a new StubDataSource.
func NewStubDataSource(logger *slog.Logger, clock types.Clock) *StubDataSource {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &StubDataSource{logger: logger, clock: clock}
}

func (s *StubDataSource) GetAccount(ctx context.Context, accountID, tenantID string) (*types.Account, error) {
	s.logger.InfoContext(ctx, "stub: GetAccount called",
		"account_id", accountID,
		"tenant_id", tenantID,
	)
	return &types.Account{
		ID:       accountID,
		Name:     "Stub Account",
		Email:    "stub@example.com",
		Locale:   "en_US",
		Currency: "USD",
	}, nil
}

func (s *StubDataSource) GetAccountEmails(ctx context.Context, accountID, tenantID string) ([]string, error) {
	s.logger.InfoContext(ctx, "stub: GetAccountEmails called",
		"account_id", accountID,
	)
	return []string{"stub@example.com", "stub-billing@example.com"}, nil
}

func (s *StubDataSource) GetInvoice(ctx context.Context, invoiceID, tenantID string) (*types.Invoice, error) {
	s.logger.InfoContext(ctx, "stub: GetInvoice called",
		"invoice_id", invoiceID,
	)
	return s.stubInvoice(invoiceID, s.clock.Now()), nil
}

func (s *StubDataSource) GetLastPayment(ctx context.Context, invoiceID, tenantID string) (*types.Payment, error) {
	s.logger.InfoContext(ctx, "stub: GetLastPayment called",
		"invoice_id", invoiceID,
	)
	return &types.Payment{
		ID:        fmt.Sprintf("pay_stub_%s", invoiceID),
		InvoiceID: invoiceID,
		Transactions: []types.PaymentTransaction{
			{
				ID:            "txn_stub_1",
				Type:          types.TransactionPurchase,
				Status:        types.TransactionSuccess,
				Currency:      "USD",
				Amount:        42.00,
				EffectiveDate: s.clock.Now(),
			},
		},
	}, nil
}

func (s *StubDataSource) GetSubscription(ctx context.Context, subscriptionID, tenantID string) (*types.Subscription, error) {
	s.logger.InfoContext(ctx, "stub: GetSubscription called",
		"subscription_id", subscriptionID,
	)
	return &types.Subscription{
		ID:             subscriptionID,
		PlanName:       "stub-plan-monthly",
		ProductName:    "Stub Product",
		State:          types.SubscriptionActive,
		ChargedThrough: s.clock.Now().AddDate(0, 1, 0),
	}, nil
}

func (s *StubDataSource) TriggerInvoiceGeneration(ctx context.Context, accountID string, targetDate time.Time, tenantID string) (*types.Invoice, error) {
	s.logger.InfoContext(ctx, "stub: TriggerInvoiceGeneration called",
		"account_id", accountID,
		"target_date", targetDate.Format("2006-01-02"),
	)
	invoice := s.stubInvoice(fmt.Sprintf("inv_dryrun_%s", accountID), s.clock.Now())
	invoice.TargetDate = targetDate
	return invoice, nil
}

func (s *StubDataSource) stubInvoice(invoiceID string, now time.Time) *types.Invoice {
	return &types.Invoice{
		ID:            invoiceID,
		InvoiceNumber: "INV-0001",
		InvoiceDate:   now,
		Currency:      "USD",
		Amount:        42.00,
		PaidAmount:    0,
		BalanceAmount: 42.00,
		Items: []types.InvoiceItem{
			{
				ID:          "item_stub_1",
				Description: "Stub subscription charge",
				PlanName:    "stub-plan-monthly",
				StartDate:   now.AddDate(0, -1, 0),
				EndDate:     now,
				Currency:    "USD",
				Amount:      42.00,
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Interface Compliance
// ---------------------------------------------------------------------------

var _ types.MailSender = (*LogMailSender)(nil)
var _ types.DataSource = (*StubDataSource)(nil)
