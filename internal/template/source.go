package template

import (
	"context"
	"embed"
	"fmt"

	"billmail/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// OverrideSource looks up a tenant-specific template body. Implementations
// return found=false when no override exists. Lookup failures are reported
// via the logger and fall back to the embedded default without error.
type OverrideSource interface {
	GetTemplateOverride(ctx context.Context, tenantID string, templateType types.TemplateType) (content string, found bool, err error)
}

// Source serves raw template text by template type: tenant override first,
// else the embedded default for the type.
type Source struct {
	overrides OverrideSource
	logger    types.Logger
}

// NewSource creates a Source. The override source may be nil, in which case
// only embedded defaults are served.
func NewSource(overrides OverrideSource, logger types.Logger) *Source {
	return &Source{overrides: overrides, logger: logger}
}

// Get returns the template text for the given type and tenant. A missing or
// unreadable tenant override falls back to the embedded default; a missing
// embedded default is a render-class error because every template type must
// ship with one.
func (s *Source) Get(ctx context.Context, templateType types.TemplateType, tenantID string) (string, error) {
	if tenantID != types.NoTenant && s.overrides != nil {
		content, found, err := s.overrides.GetTemplateOverride(ctx, tenantID, templateType)
		if err != nil {
			s.logger.Warn("template override lookup failed, using embedded default",
				"tenant_id", tenantID,
				"template_type", string(templateType),
				"error", err.Error(),
			)
		} else if found {
			return content, nil
		}
	}

	raw, err := templateFS.ReadFile(fmt.Sprintf("templates/%s.tmpl", templateType))
	if err != nil {
		return "", types.NewAppErrorWithDetails(
			types.ErrCodeRenderFailed,
			"no embedded template for type",
			err,
			map[string]any{"template_type": string(templateType)},
		)
	}
	return string(raw), nil
}

// subjectKeys maps each template type to the dictionary key holding its
// subject line. Subjects are rendered through the engine like bodies, so
// they may reference context variables.
var subjectKeys = map[types.TemplateType]string{
	types.TemplateUpcomingInvoice:                   "upcomingInvoiceSubject",
	types.TemplateInvoiceCreation:                   "invoiceCreationSubject",
	types.TemplateSuccessfulPayment:                 "paymentSuccessSubject",
	types.TemplateFailedPayment:                     "paymentFailureSubject",
	types.TemplatePaymentRefund:                     "paymentRefundSubject",
	types.TemplateSubscriptionCancellationRequested: "subscriptionCancellationRequestedSubject",
	types.TemplateSubscriptionCancellationEffective: "subscriptionCancellationEffectiveSubject",
}

// SubjectKey returns the translation dictionary key for a template type's
// subject line.
func SubjectKey(templateType types.TemplateType) string {
	return subjectKeys[templateType]
}
