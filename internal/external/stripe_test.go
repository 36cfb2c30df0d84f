package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/types"
)

func newTestStripeClient(t *testing.T, handler http.HandlerFunc) *StripeClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := NewBaseClient(server.Client(), "stripe-test", fastRetryPolicy(0), "BillMail/1.0", WithSleepFunc(noSleep))
	return NewStripeClientWithBase(base, StripeClientConfig{
		SecretKey: "sk_test_key",
		BaseURL:   server.URL,
	})
}

func TestStripeGetAccountMapsCustomer(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/customers/cus_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "acme", r.Header.Get("Stripe-Account"))

		_, _ = w.Write([]byte(`{
			"id": "cus_123",
			"name": "Jo Smith",
			"email": "jo@example.com",
			"currency": "usd",
			"preferred_locales": ["fr-FR"],
			"address": {"line1": "1 Rue de Test", "city": "Paris", "country": "FR"}
		}`))
	})

	account, err := client.GetAccount(context.Background(), "cus_123", "acme")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", account.ID)
	assert.Equal(t, "jo@example.com", account.Email)
	assert.Equal(t, "USD", account.Currency)
	assert.Equal(t, "fr_FR", account.Locale, "BCP 47 locales are mapped to underscore form")
	assert.Equal(t, "Paris", account.City)
}

// The root tenant hits the platform account, so no Stripe-Account header is
// sent.
func TestStripeRootTenantOmitsAccountHeader(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header[http.CanonicalHeaderKey("Stripe-Account")]
		assert.False(t, ok, "root tenant must not send Stripe-Account")
		_, _ = w.Write([]byte(`{"id": "cus_123"}`))
	})

	_, err := client.GetAccount(context.Background(), "cus_123", types.NoTenant)
	require.NoError(t, err)
}

func TestStripeGetAccountNotFound(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetAccount(context.Background(), "cus_missing", "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeDomainAccountNotFound, appErr.Code)
}

func TestStripeGetInvoiceMapsAmounts(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices/in_123", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "in_123",
			"number": "INV-0042",
			"created": 1772323200,
			"currency": "eur",
			"amount_due": 12050,
			"amount_paid": 0,
			"amount_remaining": 12050,
			"lines": {"data": [{"id": "il_1", "description": "Pro plan", "currency": "eur", "amount": 12050}]}
		}`))
	})

	invoice, err := client.GetInvoice(context.Background(), "in_123", "acme")
	require.NoError(t, err)
	assert.Equal(t, "INV-0042", invoice.InvoiceNumber)
	assert.Equal(t, created, invoice.InvoiceDate)
	assert.Equal(t, "EUR", invoice.Currency)
	assert.InDelta(t, 120.50, invoice.Amount, 0.001, "minor units become major units")
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, "Pro plan", invoice.Items[0].Description)
}

func TestStripeGetLastPaymentNoIntent(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "in_123", "customer": "cus_123"}`))
	})

	_, err := client.GetLastPayment(context.Background(), "in_123", "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeDomainPaymentNotFound, appErr.Code)
}

func TestStripeGetLastPaymentMapsCharge(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/invoices/in_123":
			_, _ = w.Write([]byte(`{"payment_intent": "pi_1", "customer": "cus_123"}`))
		case "/v1/payment_intents/pi_1":
			assert.Equal(t, "latest_charge", r.URL.Query().Get("expand[]"))
			_, _ = w.Write([]byte(`{
				"id": "pi_1",
				"latest_charge": {"id": "ch_1", "status": "succeeded", "currency": "usd", "amount": 5000, "created": 1772323200}
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	payment, err := client.GetLastPayment(context.Background(), "in_123", "acme")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", payment.ID)
	assert.Equal(t, "cus_123", payment.AccountID)

	txn := payment.LastTransaction()
	require.NotNil(t, txn)
	assert.Equal(t, types.TransactionPurchase, txn.Type)
	assert.Equal(t, types.TransactionSuccess, txn.Status)
	assert.InDelta(t, 50.00, txn.Amount, 0.001)
}

func TestStripeRefundedChargeMapsToRefund(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/invoices/in_123":
			_, _ = w.Write([]byte(`{"payment_intent": "pi_1"}`))
		default:
			_, _ = w.Write([]byte(`{
				"id": "pi_1",
				"latest_charge": {"id": "ch_1", "status": "succeeded", "refunded": true, "amount": 5000, "amount_refunded": 5000, "currency": "usd"}
			}`))
		}
	})

	payment, err := client.GetLastPayment(context.Background(), "in_123", "acme")
	require.NoError(t, err)

	txn := payment.LastTransaction()
	require.NotNil(t, txn)
	assert.Equal(t, types.TransactionRefund, txn.Type)
	assert.Equal(t, types.TransactionSuccess, txn.Status)
}

func TestStripeGetSubscriptionCancelled(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/sub_123", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "sub_123",
			"status": "canceled",
			"canceled_at": 1772323200,
			"customer": "cus_123",
			"items": {"data": [{"price": {"id": "price_1", "nickname": "Pro Monthly"}, "current_period_end": 1775001600}]}
		}`))
	})

	sub, err := client.GetSubscription(context.Background(), "sub_123", "acme")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionCancelled, sub.State)
	assert.Equal(t, "Pro Monthly", sub.PlanName)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), sub.CancellationDate)
	assert.False(t, sub.ChargedThrough.IsZero())
}

func TestStripeGetSubscriptionActive(t *testing.T) {
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "sub_123", "status": "active"}`))
	})

	sub, err := client.GetSubscription(context.Background(), "sub_123", "acme")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionActive, sub.State)
	assert.True(t, sub.CancellationDate.IsZero())
}

func TestStripeTriggerInvoiceGenerationUsesUpcoming(t *testing.T) {
	targetDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	client := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices/upcoming", r.URL.Path)
		assert.Equal(t, "cus_123", r.URL.Query().Get("customer"))
		_, _ = w.Write([]byte(`{"id": "in_upcoming", "currency": "usd", "amount_due": 9900}`))
	})

	invoice, err := client.TriggerInvoiceGeneration(context.Background(), "cus_123", targetDate, "acme")
	require.NoError(t, err)
	assert.Equal(t, "in_upcoming", invoice.ID)
	assert.Equal(t, targetDate, invoice.TargetDate)
}
