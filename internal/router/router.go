// Package router maps inbound billing events to rendering actions. The
// routing table is fixed and exhaustive over the subscribed event types;
// anything outside it yields no action.
package router

import (
	"context"

	"billmail/internal/types"
)

// RenderAction names the template to render and carries the domain objects
// routing already fetched to make its decision. Exactly one of Invoice,
// Transaction+Invoice, or Subscription is populated, matching the template
// type.
type RenderAction struct {
	TemplateType types.TemplateType

	Invoice      *types.Invoice
	Transaction  *types.PaymentTransaction
	Subscription *types.Subscription
}

// Router resolves an event into a RenderAction using the billing system of
// record. Each tenant's dry-run notice window comes from its default config.
type Router struct {
	source   types.DataSource
	defaults TenantDefaultSource
	clock    types.Clock
	logger   types.Logger
}

// TenantDefaultSource provides the tenant default config the router needs
// for the dry-run notice window. Implemented by gate.TenantDefaults.
type TenantDefaultSource interface {
	Get(tenantID string) *types.TenantDefaultConfig
}

// New creates a Router.
func New(source types.DataSource, defaults TenantDefaultSource, clock types.Clock, logger types.Logger) *Router {
	return &Router{source: source, defaults: defaults, clock: clock, logger: logger}
}

// Route maps an event to its rendering action, or nil when the event calls
// for no notification (an unroutable transaction combination, a not-yet
// relevant state). Errors fetching domain data abort routing for this event
// only.
func (r *Router) Route(ctx context.Context, event *types.Event) (*RenderAction, error) {
	switch event.EventType {
	case types.EventInvoiceNotificationDryRun:
		return r.routeDryRun(ctx, event)
	case types.EventInvoiceCreation:
		return r.routeInvoiceCreation(ctx, event)
	case types.EventInvoicePaymentSuccess, types.EventInvoicePaymentFailed:
		return r.routePayment(ctx, event)
	case types.EventSubscriptionCancel:
		return r.routeSubscriptionCancel(ctx, event)
	default:
		// Not in the routing table; the feed may carry event types the
		// service does not subscribe to.
		r.logger.Info("event type not routed",
			"event_id", event.EventID,
			"event_type", string(event.EventType),
		)
		return nil, nil
	}
}

// routeDryRun generates a dry-run invoice for the account at now plus the
// tenant's configured notice window and renders the upcoming-invoice
// template. A missing notice window is a configuration error: guessing a
// window would send previews at the wrong time.
func (r *Router) routeDryRun(ctx context.Context, event *types.Event) (*RenderAction, error) {
	defaults := r.defaults.Get(event.TenantID)
	if defaults.DryRunNoticeDays <= 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeConfigMissingProperty,
			"tenant has no dry-run notice window configured",
			nil,
			map[string]any{"tenant_id": event.TenantID},
		)
	}

	targetDate := r.clock.Now().AddDate(0, 0, defaults.DryRunNoticeDays)
	invoice, err := r.source.TriggerInvoiceGeneration(ctx, event.AccountID, targetDate, event.TenantID)
	if err != nil {
		return nil, err
	}

	return &RenderAction{TemplateType: types.TemplateUpcomingInvoice, Invoice: invoice}, nil
}

func (r *Router) routeInvoiceCreation(ctx context.Context, event *types.Event) (*RenderAction, error) {
	invoice, err := r.source.GetInvoice(ctx, event.ObjectID, event.TenantID)
	if err != nil {
		return nil, err
	}
	return &RenderAction{TemplateType: types.TemplateInvoiceCreation, Invoice: invoice}, nil
}

// routePayment inspects the last transaction of the invoice's last payment.
// Only Purchase and Refund transactions are notifiable:
//
//	Refund   + success -> payment refund
//	Purchase + success -> successful payment
//	Purchase + failure -> failed payment
//
// Any other combination yields no action.
func (r *Router) routePayment(ctx context.Context, event *types.Event) (*RenderAction, error) {
	invoice, err := r.source.GetInvoice(ctx, event.ObjectID, event.TenantID)
	if err != nil {
		return nil, err
	}

	payment, err := r.source.GetLastPayment(ctx, invoice.ID, event.TenantID)
	if err != nil {
		return nil, err
	}

	txn := payment.LastTransaction()
	if txn == nil {
		r.logger.Info("invoice payment has no transactions, dropping event",
			"event_id", event.EventID,
			"invoice_id", invoice.ID,
		)
		return nil, nil
	}

	var templateType types.TemplateType
	switch {
	case txn.Type == types.TransactionRefund && txn.Status == types.TransactionSuccess:
		templateType = types.TemplatePaymentRefund
	case txn.Type == types.TransactionPurchase && txn.Status == types.TransactionSuccess:
		templateType = types.TemplateSuccessfulPayment
	case txn.Type == types.TransactionPurchase && txn.Status == types.TransactionFailed:
		templateType = types.TemplateFailedPayment
	default:
		r.logger.Info("transaction combination not notifiable, dropping event",
			"event_id", event.EventID,
			"transaction_type", string(txn.Type),
			"transaction_status", string(txn.Status),
		)
		return nil, nil
	}

	return &RenderAction{TemplateType: templateType, Invoice: invoice, Transaction: txn}, nil
}

// routeSubscriptionCancel distinguishes a pending cancellation request from
// one that has taken effect by the subscription's current state.
func (r *Router) routeSubscriptionCancel(ctx context.Context, event *types.Event) (*RenderAction, error) {
	sub, err := r.source.GetSubscription(ctx, event.ObjectID, event.TenantID)
	if err != nil {
		return nil, err
	}

	templateType := types.TemplateSubscriptionCancellationRequested
	if sub.State == types.SubscriptionCancelled {
		templateType = types.TemplateSubscriptionCancellationEffective
	}
	return &RenderAction{TemplateType: templateType, Subscription: sub}, nil
}
