package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/types"
)

// Note: mockDB and mockRow are defined in config_repo_test.go.

// contentMockRows implements pgx.Rows for single-column content queries.
type contentMockRows struct {
	data   []string
	idx    int
	errVal error
	closed bool
}

func (r *contentMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx <= len(r.data)
}

func (r *contentMockRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.data[r.idx-1]
	return nil
}

func (r *contentMockRows) Close()                                       { r.closed = true }
func (r *contentMockRows) Err() error                                   { return r.errVal }
func (r *contentMockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *contentMockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *contentMockRows) RawValues() [][]byte                          { return nil }
func (r *contentMockRows) Values() ([]any, error)                       { return nil, nil }
func (r *contentMockRows) Conn() *pgx.Conn                              { return nil }

func TestGetBundleOverrideFound(t *testing.T) {
	db := &mockDB{queryRows: &contentMockRows{data: []string{"greeting=Bonjour {{.Account.Name}},"}}}
	repo := NewOverrideRepository(db)

	content, found, err := repo.GetBundleOverride(context.Background(), "acme", types.BundleTranslation, "fr", "FR")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, content, "Bonjour")

	require.Len(t, db.queryArgs, 1)
	assert.Equal(t, []any{"acme", "translation", "fr", "FR"}, db.queryArgs[0])
}

func TestGetBundleOverrideAbsent(t *testing.T) {
	db := &mockDB{queryRows: &contentMockRows{}}
	repo := NewOverrideRepository(db)

	_, found, err := repo.GetBundleOverride(context.Background(), "acme", types.BundleTranslation, "fr", "")
	require.NoError(t, err)
	assert.False(t, found)
}

// An ambiguous override (more than one matching row) is treated as absent
// rather than picking one arbitrarily.
func TestGetBundleOverrideAmbiguous(t *testing.T) {
	db := &mockDB{queryRows: &contentMockRows{data: []string{"first", "second"}}}
	repo := NewOverrideRepository(db)

	_, found, err := repo.GetBundleOverride(context.Background(), "acme", types.BundleTranslation, "fr", "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetBundleOverrideQueryError(t *testing.T) {
	db := &mockDB{queryErr: errors.New("connection refused")}
	repo := NewOverrideRepository(db)

	_, _, err := repo.GetBundleOverride(context.Background(), "acme", types.BundleTranslation, "fr", "")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}

func TestGetBundleOverrideRowsError(t *testing.T) {
	db := &mockDB{queryRows: &contentMockRows{errVal: errors.New("reset")}}
	repo := NewOverrideRepository(db)

	_, _, err := repo.GetBundleOverride(context.Background(), "acme", types.BundleTranslation, "fr", "")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}

func TestGetTemplateOverrideFound(t *testing.T) {
	db := &mockDB{row: &mockRow{scan: func(dest ...any) error {
		*dest[0].(*string) = "{{.Text.greeting}}"
		return nil
	}}}
	repo := NewOverrideRepository(db)

	content, found, err := repo.GetTemplateOverride(context.Background(), "acme", types.TemplateInvoiceCreation)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "{{.Text.greeting}}", content)
}

func TestGetTemplateOverrideNoRows(t *testing.T) {
	db := &mockDB{row: &mockRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	repo := NewOverrideRepository(db)

	_, found, err := repo.GetTemplateOverride(context.Background(), "acme", types.TemplateInvoiceCreation)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetTemplateOverrideQueryError(t *testing.T) {
	db := &mockDB{row: &mockRow{scan: func(...any) error { return errors.New("timeout") }}}
	repo := NewOverrideRepository(db)

	_, _, err := repo.GetTemplateOverride(context.Background(), "acme", types.TemplateInvoiceCreation)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}
