package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/types"
)

func newTestMetadataClient(t *testing.T, handler http.HandlerFunc) *MetadataClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := NewBaseClient(server.Client(), "metadata-test", fastRetryPolicy(0), "BillMail/1.0", WithSleepFunc(noSleep))
	return NewMetadataClientWithBase(base, MetadataClientConfig{BaseURL: server.URL})
}

func TestGetInvoiceDisplayName(t *testing.T) {
	client := newTestMetadataClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tenants/acme/invoices/inv-1/display-name", r.URL.Path)
		_, _ = w.Write([]byte(`{"display_name":"March subscription invoice"}`))
	})

	name, err := client.GetInvoiceDisplayName(context.Background(), "inv-1", "acme")
	require.NoError(t, err)
	assert.Equal(t, "March subscription invoice", name)
}

// A missing display name is not an error; the enricher falls back to its
// default.
func TestGetInvoiceDisplayNameNotFound(t *testing.T) {
	client := newTestMetadataClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	name, err := client.GetInvoiceDisplayName(context.Background(), "inv-missing", "acme")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestGetInvoiceDisplayNameUnexpectedStatus(t *testing.T) {
	client := newTestMetadataClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.GetInvoiceDisplayName(context.Background(), "inv-1", "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeDomainUnavailable, appErr.Code)
}

func TestGetInvoiceDisplayNameUnreadableBody(t *testing.T) {
	client := newTestMetadataClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.GetInvoiceDisplayName(context.Background(), "inv-1", "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeDomainUnavailable, appErr.Code)
}
