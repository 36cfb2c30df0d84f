package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billmail/internal/display"
	"billmail/internal/types"
)

// MetadataClientConfig holds the configuration for creating a MetadataClient.
type MetadataClientConfig struct {
	BaseURL string
	Logger  *slog.Logger
}

// MetadataClient implements display.MetadataClient against the invoice
// metadata service. Enrichment is best-effort; retries are kept short so a
// slow metadata service cannot stall rendering.
type MetadataClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewMetadataClient creates a new MetadataClient. The httpClient timeout
// should match INVOICE_METADATA_TIMEOUT.
func NewMetadataClient(httpClient *http.Client, cfg MetadataClientConfig) *MetadataClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"invoice-metadata",
		RetryPolicy{
			MaxRetries: 1,
			MinWait:    250 * time.Millisecond,
			MaxWait:    1 * time.Second,
		},
		"BillMail/1.0",
	)

	return &MetadataClient{
		base:    base,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// NewMetadataClientWithBase creates a MetadataClient with a pre-configured
// BaseClient.
func NewMetadataClientWithBase(base *BaseClient, cfg MetadataClientConfig) *MetadataClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataClient{
		base:    base,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// GetInvoiceDisplayName fetches the tenant-specific display name for an
// invoice. A 404 returns an empty name without error; the enricher falls back
// to its default.
func (m *MetadataClient) GetInvoiceDisplayName(ctx context.Context, invoiceID, tenantID string) (string, error) {
	path := fmt.Sprintf("/v1/tenants/%s/invoices/%s/display-name",
		url.PathEscape(tenantID), url.PathEscape(invoiceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create invoice metadata request",
			err,
		)
	}

	resp, err := m.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	default:
		return "", types.NewAppError(
			types.ErrCodeDomainUnavailable,
			fmt.Sprintf("invoice metadata service returned %d", resp.StatusCode),
			nil,
		)
	}

	var out struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewAppError(
			types.ErrCodeDomainUnavailable,
			"invoice metadata service returned an unreadable body",
			err,
		)
	}
	return out.DisplayName, nil
}

// Compile-time assertion that MetadataClient satisfies display.MetadataClient.
var _ display.MetadataClient = (*MetadataClient)(nil)
