package types

import "time"

// Account is the addressee of notification emails, as returned by the
// billing system of record. Locale is the raw free-form string; the
// locale resolver turns it into a canonical Locale.
type Account struct {
	ID          string `json:"id"`
	ExternalKey string `json:"external_key"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Locale      string `json:"locale"`
	Currency    string `json:"currency"`
	CompanyName string `json:"company_name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
}

// Invoice is a billing invoice with already-computed monetary fields.
// The core never performs currency conversion or tax computation.
type Invoice struct {
	ID             string        `json:"id"`
	InvoiceNumber  string        `json:"invoice_number"`
	AccountID      string        `json:"account_id"`
	InvoiceDate    time.Time     `json:"invoice_date"`
	TargetDate     time.Time     `json:"target_date"`
	Currency       string        `json:"currency"`
	Amount         float64       `json:"amount"`
	PaidAmount     float64       `json:"paid_amount"`
	BalanceAmount  float64       `json:"balance_amount"`
	Items          []InvoiceItem `json:"items"`
	Payments       []string      `json:"payment_ids"`
}

// InvoiceItem is a single line on an invoice.
type InvoiceItem struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	PlanName     string    `json:"plan_name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Currency     string    `json:"currency"`
	Amount       float64   `json:"amount"`
}

// PaymentTransaction is a single attempt within a payment. Routing inspects
// the last transaction of an invoice's last payment.
type PaymentTransaction struct {
	ID            string            `json:"id"`
	PaymentID     string            `json:"payment_id"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Currency      string            `json:"currency"`
	Amount        float64           `json:"amount"`
	EffectiveDate time.Time         `json:"effective_date"`
}

// Payment groups the transactions recorded against an invoice.
type Payment struct {
	ID           string               `json:"id"`
	InvoiceID    string               `json:"invoice_id"`
	AccountID    string               `json:"account_id"`
	Transactions []PaymentTransaction `json:"transactions"`
}

// LastTransaction returns the most recent transaction of the payment, or nil
// if the payment has none.
func (p *Payment) LastTransaction() *PaymentTransaction {
	if p == nil || len(p.Transactions) == 0 {
		return nil
	}
	return &p.Transactions[len(p.Transactions)-1]
}

// Subscription is the slice of subscription state routing needs.
type Subscription struct {
	ID               string            `json:"id"`
	AccountID        string            `json:"account_id"`
	PlanName         string            `json:"plan_name"`
	ProductName      string            `json:"product_name"`
	State            SubscriptionState `json:"state"`
	ChargedThrough   time.Time         `json:"charged_through_date"`
	CancellationDate time.Time         `json:"cancellation_date"`
}

// NotificationConfig is one durable allow-list row: the (tenant, account,
// event type) triple is enabled. At most one row exists per triple.
type NotificationConfig struct {
	RecordID  string    `json:"record_id"`
	AccountID string    `json:"account_id"`
	TenantID  string    `json:"tenant_id"`
	EventType EventType `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantDefaultConfig holds the event types enabled by default for every
// account of a tenant, plus tenant-scoped dispatch properties. Instances are
// immutable snapshots; configuration pushes replace them wholesale.
type TenantDefaultConfig struct {
	TenantID string
	// EventTypes enabled by default for all accounts in the tenant.
	EventTypes map[EventType]bool
	// DryRunNoticeDays is the upcoming-invoice notice window used to compute
	// the dry-run target date. Zero means unconfigured, which is a
	// configuration error when an InvoiceNotificationDryRun event arrives.
	DryRunNoticeDays int
	// DefaultLocale overrides the process-wide default locale for accounts
	// of this tenant that carry no locale of their own. Optional.
	DefaultLocale string
}

// Contains reports whether the event type is enabled by this tenant default.
func (c *TenantDefaultConfig) Contains(et EventType) bool {
	if c == nil {
		return false
	}
	return c.EventTypes[et]
}

// RenderedEmail is the subject+body pair produced for one dispatch attempt.
// It is handed to the mail transport and then discarded, never persisted.
type RenderedEmail struct {
	Subject string
	Body    string
}

// Recipients carries the resolved destination addresses for a dispatch:
// primary account email plus all secondary account emails as CC.
type Recipients struct {
	To []string
	CC []string
}
