// Package dispatch orchestrates the notification pipeline for one inbound
// billing event: gate check, routing, domain data fetch, locale and template
// resolution, rendering, and hand-off to the mail transport.
//
// The pipeline is a straight line with no backward transitions and no
// persisted intermediate state; each event is processed to completion or
// failure within a single Dispatch call. Events are independent: one event's
// failure never affects another's processing.
package dispatch

import (
	"context"
	"strings"
	"time"

	"billmail/internal/display"
	"billmail/internal/gate"
	"billmail/internal/i18n"
	"billmail/internal/locale"
	"billmail/internal/router"
	"billmail/internal/template"
	"billmail/internal/types"
)

// Outcome is the terminal result of dispatching one event.
type Outcome struct {
	State  types.DispatchState // Sent, Dropped, or Failed
	Reason string              // short machine-friendly explanation
	Err    error               // set when State is Failed, or for reported drops
}

// Dispatcher wires the pipeline components together.
type Dispatcher struct {
	gate      *gate.Gate
	router    *router.Router
	source    types.DataSource
	bundles   *i18n.Resolver
	templates *template.Source
	engine    *template.Engine
	enricher  *display.Enricher
	mailer    types.MailSender
	defaults  router.TenantDefaultSource

	defaultLocale string
	metrics       Metrics
	logger        types.Logger
}

// Config carries the dispatcher's collaborators.
type Config struct {
	Gate          *gate.Gate
	Router        *router.Router
	Source        types.DataSource
	Bundles       *i18n.Resolver
	Templates     *template.Source
	Engine        *template.Engine
	Enricher      *display.Enricher
	Mailer        types.MailSender
	Defaults      router.TenantDefaultSource
	DefaultLocale string
	Metrics       Metrics
	Logger        types.Logger
}

// New creates a Dispatcher. Metrics may be nil; a no-op recorder is used.
func New(cfg Config) *Dispatcher {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Dispatcher{
		gate:          cfg.Gate,
		router:        cfg.Router,
		source:        cfg.Source,
		bundles:       cfg.Bundles,
		templates:     cfg.Templates,
		engine:        cfg.Engine,
		enricher:      cfg.Enricher,
		mailer:        cfg.Mailer,
		defaults:      cfg.Defaults,
		defaultLocale: cfg.DefaultLocale,
		metrics:       metrics,
		logger:        cfg.Logger,
	}
}

// Dispatch runs one event through the pipeline:
//
//	Received -> Gated -> Routed -> DataFetched -> Rendered -> Sent|Dropped|Failed
//
// The returned Outcome is always terminal; Dispatch never retries.
func (d *Dispatcher) Dispatch(ctx context.Context, event *types.Event) Outcome {
	start := time.Now()
	logger := d.logger.With(
		"event_id", event.EventID,
		"event_type", string(event.EventType),
		"account_id", event.AccountID,
		"tenant_id", event.TenantID,
	)

	outcome := d.run(ctx, event, logger)

	d.metrics.RecordOutcome(ctx, event.EventType, outcome.State, outcome.Reason)
	d.metrics.RecordLatency(ctx, event.EventType, time.Since(start))

	switch outcome.State {
	case types.StateSent:
		logger.Info("notification sent", "reason", outcome.Reason)
	case types.StateDropped:
		if outcome.Err != nil {
			logger.Warn("notification dropped", "reason", outcome.Reason, "error", outcome.Err.Error())
		} else {
			logger.Info("notification dropped", "reason", outcome.Reason)
		}
	case types.StateFailed:
		logger.Error("notification dispatch failed", "reason", outcome.Reason, "error", outcome.Err.Error())
	}

	return outcome
}

func (d *Dispatcher) run(ctx context.Context, event *types.Event, logger types.Logger) Outcome {
	// Received -> Gated
	allowed, err := d.gate.IsAllowed(ctx, event.TenantID, event.AccountID, event.EventType)
	if err != nil {
		// Fail closed: the event is blocked, and the storage failure is
		// reported rather than retried inline.
		return Outcome{State: types.StateDropped, Reason: "gate_failed_closed", Err: err}
	}
	if !allowed {
		return Outcome{State: types.StateDropped, Reason: "gated"}
	}

	// Gated -> Routed
	action, err := d.router.Route(ctx, event)
	if err != nil {
		return Outcome{State: types.StateFailed, Reason: "routing_failed", Err: err}
	}
	if action == nil {
		return Outcome{State: types.StateDropped, Reason: "no_action"}
	}

	// Routed -> DataFetched
	account, err := d.source.GetAccount(ctx, event.AccountID, event.TenantID)
	if err != nil {
		return Outcome{State: types.StateFailed, Reason: "account_fetch_failed", Err: err}
	}
	if account.Email == "" {
		return Outcome{State: types.StateDropped, Reason: "no_email_address"}
	}

	recipients, err := d.resolveRecipients(ctx, event, account)
	if err != nil {
		return Outcome{State: types.StateFailed, Reason: "email_fetch_failed", Err: err}
	}

	// DataFetched -> Rendered
	email, err := d.render(ctx, event, action, account)
	if err != nil {
		return Outcome{State: types.StateFailed, Reason: "render_failed", Err: err}
	}

	// Rendered -> Sent
	if err := d.mailer.Send(ctx, recipients.To, recipients.CC, email.Subject, email.Body); err != nil {
		return Outcome{State: types.StateFailed, Reason: "send_failed", Err: err}
	}

	return Outcome{State: types.StateSent, Reason: string(action.TemplateType)}
}

// resolveRecipients builds the destination list: primary account email as
// To, every secondary account email as CC.
func (d *Dispatcher) resolveRecipients(ctx context.Context, event *types.Event, account *types.Account) (types.Recipients, error) {
	emails, err := d.source.GetAccountEmails(ctx, event.AccountID, event.TenantID)
	if err != nil {
		return types.Recipients{}, err
	}

	rec := types.Recipients{To: []string{account.Email}}
	for _, email := range emails {
		if email != "" && email != account.Email {
			rec.CC = append(rec.CC, email)
		}
	}
	return rec, nil
}

// render resolves locale, dictionary, and template text, then renders the
// subject and body. Rendering is deterministic given the resolved inputs.
func (d *Dispatcher) render(ctx context.Context, event *types.Event, action *router.RenderAction, account *types.Account) (*types.RenderedEmail, error) {
	loc, err := locale.Resolve(account.Locale, d.localeFallback(event.TenantID))
	if err != nil {
		return nil, err
	}

	dict := d.bundles.Resolve(ctx, loc, types.BundleTranslation, event.TenantID)

	text, err := d.templates.Get(ctx, action.TemplateType, event.TenantID)
	if err != nil {
		return nil, err
	}

	renderCtx := d.buildContext(ctx, event, action, account, loc, dict)

	body, err := d.engine.Render(string(action.TemplateType), text, renderCtx)
	if err != nil {
		return nil, err
	}

	subject, err := d.engine.Render(string(action.TemplateType)+"_subject", dict[template.SubjectKey(action.TemplateType)], renderCtx)
	if err != nil {
		return nil, err
	}

	return &types.RenderedEmail{Subject: subject, Body: body}, nil
}

// buildContext assembles the render context: the translation dictionary, the
// display account, and the display projection of whichever domain object the
// action carries.
//
// Invoice, Payment, and Subscription are always present, defaulting to empty
// display objects when the action does not carry them. A tenant override that
// references a domain object outside its action's scope then renders empty
// fields instead of aborting the dispatch.
func (d *Dispatcher) buildContext(ctx context.Context, event *types.Event, action *router.RenderAction, account *types.Account, loc locale.Locale, dict map[string]string) map[string]any {
	renderCtx := map[string]any{
		"Text":         dict,
		"Account":      display.ForAccount(account),
		"Invoice":      &display.Invoice{},
		"Payment":      &display.Payment{},
		"Subscription": &display.Subscription{},
	}

	if action.Invoice != nil {
		inv := display.ForInvoice(action.Invoice, loc)
		renderCtx["Invoice"] = d.enricher.Enrich(ctx, inv, event.TenantID)
	}
	if action.Transaction != nil {
		renderCtx["Payment"] = display.ForPayment(action.Transaction, loc)
	}
	if action.Subscription != nil {
		renderCtx["Subscription"] = display.ForSubscription(action.Subscription, loc)
	}

	// Dictionary values may themselves reference context variables (the
	// greeting references the account name, subjects reference the invoice
	// number). Expand them one level against the same context; a value that
	// fails to expand is kept verbatim.
	expanded := make(map[string]string, len(dict))
	for key, value := range dict {
		if !strings.Contains(value, "{{") {
			expanded[key] = value
			continue
		}
		out, err := d.engine.Render("dict_"+key, value, renderCtx)
		if err != nil {
			expanded[key] = value
			continue
		}
		expanded[key] = out
	}
	renderCtx["Text"] = expanded

	return renderCtx
}

// localeFallback returns the locale used for accounts that carry none:
// the tenant default when configured, else the process-wide default.
func (d *Dispatcher) localeFallback(tenantID string) string {
	if cfg := d.defaults.Get(tenantID); cfg != nil && cfg.DefaultLocale != "" {
		return cfg.DefaultLocale
	}
	return d.defaultLocale
}
