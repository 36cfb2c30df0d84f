package types

// EventType identifies the kind of billing lifecycle event that may trigger
// a notification. The dispatcher subscribes to exactly this set; anything
// else on the feed is ignored.
type EventType string

const (
	EventInvoiceCreation           EventType = "invoice_creation"
	EventInvoiceNotificationDryRun EventType = "invoice_notification_dry_run"
	EventInvoicePaymentSuccess     EventType = "invoice_payment_success"
	EventInvoicePaymentFailed      EventType = "invoice_payment_failed"
	EventSubscriptionCancel        EventType = "subscription_cancel"
)

// AllEventTypes is the complete set of event types the core reacts to.
// Used by validators when parsing admin requests and tenant default pushes.
var AllEventTypes = []EventType{
	EventInvoiceCreation,
	EventInvoiceNotificationDryRun,
	EventInvoicePaymentSuccess,
	EventInvoicePaymentFailed,
	EventSubscriptionCancel,
}

// ValidEventType reports whether s names a known event type.
func ValidEventType(s string) bool {
	for _, et := range AllEventTypes {
		if string(et) == s {
			return true
		}
	}
	return false
}

// TemplateType identifies which email template / subject-key pair a
// RenderAction selects.
type TemplateType string

const (
	TemplateUpcomingInvoice                   TemplateType = "upcoming_invoice"
	TemplateInvoiceCreation                   TemplateType = "invoice_creation"
	TemplateSuccessfulPayment                 TemplateType = "successful_payment"
	TemplateFailedPayment                     TemplateType = "failed_payment"
	TemplatePaymentRefund                     TemplateType = "payment_refund"
	TemplateSubscriptionCancellationRequested TemplateType = "subscription_cancellation_requested"
	TemplateSubscriptionCancellationEffective TemplateType = "subscription_cancellation_effective"
)

// AllTemplateTypes lists every template type the TemplateSource must be able
// to serve from its embedded defaults.
var AllTemplateTypes = []TemplateType{
	TemplateUpcomingInvoice,
	TemplateInvoiceCreation,
	TemplateSuccessfulPayment,
	TemplateFailedPayment,
	TemplatePaymentRefund,
	TemplateSubscriptionCancellationRequested,
	TemplateSubscriptionCancellationEffective,
}

// TransactionType classifies a payment transaction on an invoice.
type TransactionType string

const (
	TransactionPurchase   TransactionType = "purchase"
	TransactionRefund     TransactionType = "refund"
	TransactionChargeback TransactionType = "chargeback"
	TransactionAuthorize  TransactionType = "authorize"
)

// TransactionStatus is the terminal outcome of a payment transaction.
type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// SubscriptionState is the lifecycle state of a subscription as reported by
// the billing system of record.
type SubscriptionState string

const (
	SubscriptionActive    SubscriptionState = "active"
	SubscriptionPending   SubscriptionState = "pending"
	SubscriptionBlocked   SubscriptionState = "blocked"
	SubscriptionCancelled SubscriptionState = "cancelled"
	SubscriptionExpired   SubscriptionState = "expired"
)

// BundleType identifies a tenant-overridable bundle family. Template text is
// keyed per template type in its own table, so translation dictionaries are
// currently the only bundle family.
type BundleType string

const (
	BundleTranslation BundleType = "translation"
)

// DispatchState is a stage of the dispatcher pipeline. Transitions are
// strictly forward; Sent, Dropped, and Failed are terminal.
type DispatchState string

const (
	StateReceived    DispatchState = "received"
	StateGated       DispatchState = "gated"
	StateRouted      DispatchState = "routed"
	StateDataFetched DispatchState = "data_fetched"
	StateRendered    DispatchState = "rendered"
	StateSent        DispatchState = "sent"
	StateDropped     DispatchState = "dropped"
	StateFailed      DispatchState = "failed"
)

// NoTenant is the sentinel tenant ID meaning "not tenant-scoped". Bundle
// resolution skips the override lookup for it.
const NoTenant = ""
