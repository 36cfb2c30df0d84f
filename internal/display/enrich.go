package display

import (
	"context"

	"billmail/internal/types"
)

// unnamedInvoice is the display name used whenever enrichment cannot supply
// a better one. Rendering must not depend on the metadata service being up.
const unnamedInvoice = "unnamed invoice"

// MetadataClient fetches tenant-specific invoice display metadata from an
// external service. Implemented in internal/external.
type MetadataClient interface {
	GetInvoiceDisplayName(ctx context.Context, invoiceID, tenantID string) (string, error)
}

// Enricher applies the optional metadata enrichment step to a display
// invoice. A nil client disables enrichment; every invoice then gets the
// fallback display name.
type Enricher struct {
	client MetadataClient
	logger types.Logger
}

// NewEnricher creates an Enricher. client may be nil.
func NewEnricher(client MetadataClient, logger types.Logger) *Enricher {
	return &Enricher{client: client, logger: logger}
}

// Enrich returns a copy of the invoice with DisplayName populated from the
// metadata service, or the fallback name on any failure. Enrichment never
// fails the render.
func (e *Enricher) Enrich(ctx context.Context, inv *Invoice, tenantID string) *Invoice {
	out := *inv
	out.DisplayName = unnamedInvoice

	if e.client == nil {
		return &out
	}

	name, err := e.client.GetInvoiceDisplayName(ctx, inv.ID, tenantID)
	if err != nil {
		e.logger.Warn("invoice metadata enrichment failed, using fallback name",
			"invoice_id", inv.ID,
			"tenant_id", tenantID,
			"error", err.Error(),
		)
		return &out
	}
	if name != "" {
		out.DisplayName = name
	}
	return &out
}
