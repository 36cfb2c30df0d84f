package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/types"
)

// mockDB implements DB with scriptable results. Queries and exec statements
// are recorded for assertions.
type mockDB struct {
	queryRows pgx.Rows
	queryErr  error
	row       pgx.Row
	execErr   error
	tx        *mockTx
	beginErr  error

	queries   []string
	queryArgs [][]any
	execs     []string
}

func (m *mockDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	m.execs = append(m.execs, sql)
	return pgconn.CommandTag{}, m.execErr
}

func (m *mockDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.queries = append(m.queries, sql)
	m.queryArgs = append(m.queryArgs, args)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.queryRows, nil
}

func (m *mockDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.queries = append(m.queries, sql)
	m.queryArgs = append(m.queryArgs, args)
	return m.row
}

func (m *mockDB) Begin(_ context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

// mockRow implements pgx.Row via an injectable scan function.
type mockRow struct {
	scan func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scan(dest...) }

// configMockRows implements pgx.Rows for the notification_configs SELECT
// column shape (record_id, account_id, tenant_id, event_type, created_at).
type configMockRows struct {
	data    []types.NotificationConfig
	idx     int
	scanErr error
	errVal  error
	closed  bool
}

func (r *configMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx <= len(r.data)
}

func (r *configMockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	*dest[0].(*string) = row.RecordID
	*dest[1].(*string) = row.AccountID
	*dest[2].(*string) = row.TenantID
	*dest[3].(*string) = string(row.EventType)
	*dest[4].(*time.Time) = row.CreatedAt
	return nil
}

func (r *configMockRows) Close()                                       { r.closed = true }
func (r *configMockRows) Err() error                                   { return r.errVal }
func (r *configMockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *configMockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *configMockRows) RawValues() [][]byte                          { return nil }
func (r *configMockRows) Values() ([]any, error)                       { return nil, nil }
func (r *configMockRows) Conn() *pgx.Conn                              { return nil }

// mockTx implements pgx.Tx, recording exec statements and the final
// commit/rollback disposition.
type mockTx struct {
	execs      []string
	execArgs   [][]any
	execErr    error
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *mockTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }

func (t *mockTx) Commit(_ context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *mockTx) Rollback(_ context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *mockTx) Exec(_ context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	t.execArgs = append(t.execArgs, arguments)
	return pgconn.CommandTag{}, t.execErr
}

func (t *mockTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, nil }
func (t *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row        { return nil }
func (t *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *mockTx) Conn() *pgx.Conn { return nil }

func TestGetEventTypesEmptyAccounts(t *testing.T) {
	db := &mockDB{}
	repo := NewConfigRepository(db)

	configs, err := repo.GetEventTypes(context.Background(), nil, "acme")
	require.NoError(t, err)
	assert.Nil(t, configs)
	assert.Empty(t, db.queries, "no accounts means no query")
}

func TestGetEventTypesReturnsRows(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &mockDB{queryRows: &configMockRows{data: []types.NotificationConfig{
		{RecordID: "rec-1", AccountID: "acct-1", TenantID: "acme", EventType: types.EventInvoiceCreation, CreatedAt: created},
		{RecordID: "rec-2", AccountID: "acct-2", TenantID: "acme", EventType: types.EventSubscriptionCancel, CreatedAt: created},
	}}}
	repo := NewConfigRepository(db)

	configs, err := repo.GetEventTypes(context.Background(), []string{"acct-1", "acct-2"}, "acme")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, types.EventInvoiceCreation, configs[0].EventType)
	assert.Equal(t, "acct-2", configs[1].AccountID)
	assert.Equal(t, created, configs[0].CreatedAt)

	require.Len(t, db.queryArgs, 1)
	assert.Equal(t, "acme", db.queryArgs[0][0])
}

func TestGetEventTypesQueryError(t *testing.T) {
	db := &mockDB{queryErr: errors.New("connection refused")}
	repo := NewConfigRepository(db)

	_, err := repo.GetEventTypes(context.Background(), []string{"acct-1"}, "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}

func TestGetEventTypesRowsError(t *testing.T) {
	db := &mockDB{queryRows: &configMockRows{errVal: errors.New("connection reset mid-scan")}}
	repo := NewConfigRepository(db)

	_, err := repo.GetEventTypes(context.Background(), []string{"acct-1"}, "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}

func TestGetEventTypeForAccountFound(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &mockDB{row: &mockRow{scan: func(dest ...any) error {
		*dest[0].(*string) = "rec-1"
		*dest[1].(*string) = "acct-1"
		*dest[2].(*string) = "acme"
		*dest[3].(*string) = "invoice_creation"
		*dest[4].(*time.Time) = created
		return nil
	}}}
	repo := NewConfigRepository(db)

	cfg, err := repo.GetEventTypeForAccount(context.Background(), "acct-1", "acme", types.EventInvoiceCreation)
	require.NoError(t, err)
	assert.Equal(t, types.EventInvoiceCreation, cfg.EventType)
	assert.Equal(t, "acct-1", cfg.AccountID)
}

func TestGetEventTypeForAccountNoRows(t *testing.T) {
	db := &mockDB{row: &mockRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	repo := NewConfigRepository(db)

	_, err := repo.GetEventTypeForAccount(context.Background(), "acct-1", "acme", types.EventInvoiceCreation)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundConfig, appErr.Code)
}

func TestGetEventTypeForAccountQueryError(t *testing.T) {
	db := &mockDB{row: &mockRow{scan: func(...any) error { return errors.New("timeout") }}}
	repo := NewConfigRepository(db)

	_, err := repo.GetEventTypeForAccount(context.Background(), "acct-1", "acme", types.EventInvoiceCreation)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}

func TestReplaceAccountConfigDeleteThenInsert(t *testing.T) {
	tx := &mockTx{}
	db := &mockDB{tx: tx}
	repo := NewConfigRepository(db)

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	err := repo.ReplaceAccountConfig(context.Background(), "acct-1", "acme",
		[]types.EventType{types.EventInvoiceCreation, types.EventSubscriptionCancel}, now)
	require.NoError(t, err)

	require.Len(t, tx.execs, 3, "one delete plus two inserts")
	assert.Contains(t, tx.execs[0], "DELETE FROM notification_configs")
	assert.Contains(t, tx.execs[1], "INSERT INTO notification_configs")

	// Insert args: record_id, account_id, tenant_id, event_type, created_at.
	assert.Equal(t, "acct-1", tx.execArgs[1][1])
	assert.Equal(t, "acme", tx.execArgs[1][2])
	assert.Equal(t, "invoice_creation", tx.execArgs[1][3])
	assert.Equal(t, now, tx.execArgs[1][4])
	assert.Equal(t, "subscription_cancel", tx.execArgs[2][3])

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestReplaceAccountConfigEmptySetClears(t *testing.T) {
	tx := &mockTx{}
	db := &mockDB{tx: tx}
	repo := NewConfigRepository(db)

	err := repo.ReplaceAccountConfig(context.Background(), "acct-1", "acme", nil, time.Now())
	require.NoError(t, err)

	require.Len(t, tx.execs, 1, "delete only, no inserts")
	assert.Contains(t, tx.execs[0], "DELETE FROM notification_configs")
	assert.True(t, tx.committed)
}

func TestReplaceAccountConfigBeginError(t *testing.T) {
	db := &mockDB{beginErr: errors.New("pool exhausted")}
	repo := NewConfigRepository(db)

	err := repo.ReplaceAccountConfig(context.Background(), "acct-1", "acme", nil, time.Now())
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageUnavailable, appErr.Code)
}

func TestReplaceAccountConfigExecErrorRollsBack(t *testing.T) {
	tx := &mockTx{execErr: errors.New("constraint violation")}
	db := &mockDB{tx: tx}
	repo := NewConfigRepository(db)

	err := repo.ReplaceAccountConfig(context.Background(), "acct-1", "acme",
		[]types.EventType{types.EventInvoiceCreation}, time.Now())
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)

	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestReplaceAccountConfigCommitError(t *testing.T) {
	tx := &mockTx{commitErr: errors.New("connection lost")}
	db := &mockDB{tx: tx}
	repo := NewConfigRepository(db)

	err := repo.ReplaceAccountConfig(context.Background(), "acct-1", "acme", nil, time.Now())
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageUnavailable, appErr.Code)
}

func TestDeleteAccountConfig(t *testing.T) {
	db := &mockDB{}
	repo := NewConfigRepository(db)

	require.NoError(t, repo.DeleteAccountConfig(context.Background(), "acct-1", "acme"))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "DELETE FROM notification_configs")
}

func TestDeleteAccountConfigError(t *testing.T) {
	db := &mockDB{execErr: errors.New("connection refused")}
	repo := NewConfigRepository(db)

	err := repo.DeleteAccountConfig(context.Background(), "acct-1", "acme")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeStorageQuery, appErr.Code)
}
