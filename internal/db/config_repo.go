package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"billmail/internal/types"
)

// ConfigRepository provides data access for the notification_configs table,
// the per-account event-type allow-list. It implements types.ConfigStore.
//
// Schema: {record_id, account_id, tenant_id, event_type, created_at},
// unique per (account_id, tenant_id, event_type).
type ConfigRepository struct {
	db DB
}

// NewConfigRepository creates a ConfigRepository backed by the given pool.
func NewConfigRepository(db DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetEventTypes returns all allow-list rows for the given accounts within a
// tenant. Accounts with no rows simply contribute nothing to the result.
func (r *ConfigRepository) GetEventTypes(ctx context.Context, accountIDs []string, tenantID string) ([]types.NotificationConfig, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT record_id, account_id, tenant_id, event_type, created_at
		 FROM notification_configs
		 WHERE tenant_id = $1 AND account_id = ANY($2)
		 ORDER BY account_id, event_type`,
		tenantID, accountIDs,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to read notification configs", err)
	}
	defer rows.Close()

	return scanConfigs(rows)
}

// GetEventTypesForAccount returns all allow-list rows for one account.
func (r *ConfigRepository) GetEventTypesForAccount(ctx context.Context, accountID, tenantID string) ([]types.NotificationConfig, error) {
	rows, err := r.db.Query(ctx,
		`SELECT record_id, account_id, tenant_id, event_type, created_at
		 FROM notification_configs
		 WHERE tenant_id = $1 AND account_id = $2
		 ORDER BY event_type`,
		tenantID, accountID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to read notification configs for account", err)
	}
	defer rows.Close()

	return scanConfigs(rows)
}

// GetEventTypeForAccount returns the single allow-list row for (account,
// tenant, event type), or a not_found_notification_config error when the
// triple has no row.
func (r *ConfigRepository) GetEventTypeForAccount(ctx context.Context, accountID, tenantID string, eventType types.EventType) (*types.NotificationConfig, error) {
	var cfg types.NotificationConfig
	var et string
	err := r.db.QueryRow(ctx,
		`SELECT record_id, account_id, tenant_id, event_type, created_at
		 FROM notification_configs
		 WHERE tenant_id = $1 AND account_id = $2 AND event_type = $3`,
		tenantID, accountID, string(eventType),
	).Scan(&cfg.RecordID, &cfg.AccountID, &cfg.TenantID, &et, &cfg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundConfig, "no notification config for account and event type", nil)
		}
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to read notification config", err)
	}
	cfg.EventType = types.EventType(et)
	return &cfg, nil
}

// ReplaceAccountConfig atomically replaces the allow-list for one
// (account, tenant) scope: delete all rows, insert the new set, commit.
// Readers never observe a mix of old and new rows, and concurrent
// replacements for the same account serialize on the deleted rows' locks.
func (r *ConfigRepository) ReplaceAccountConfig(ctx context.Context, accountID, tenantID string, eventTypes []types.EventType, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return types.NewAppError(types.ErrCodeStorageUnavailable, "failed to begin replace transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM notification_configs WHERE tenant_id = $1 AND account_id = $2`,
		tenantID, accountID,
	); err != nil {
		return types.NewAppError(types.ErrCodeStorageQuery, "failed to clear account config", err)
	}

	for _, et := range eventTypes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO notification_configs
			 (record_id, account_id, tenant_id, event_type, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), accountID, tenantID, string(et), now,
		); err != nil {
			return types.NewAppError(types.ErrCodeStorageQuery, "failed to insert account config row", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return types.NewAppError(types.ErrCodeStorageUnavailable, "failed to commit replace transaction", err)
	}
	return nil
}

// DeleteAccountConfig removes all allow-list rows for one (account, tenant)
// scope. Deleting an account with no rows is not an error.
func (r *ConfigRepository) DeleteAccountConfig(ctx context.Context, accountID, tenantID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM notification_configs WHERE tenant_id = $1 AND account_id = $2`,
		tenantID, accountID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeStorageQuery, "failed to delete account config", err)
	}
	return nil
}

func scanConfigs(rows pgx.Rows) ([]types.NotificationConfig, error) {
	var results []types.NotificationConfig
	for rows.Next() {
		var cfg types.NotificationConfig
		var et string
		if err := rows.Scan(&cfg.RecordID, &cfg.AccountID, &cfg.TenantID, &et, &cfg.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to scan notification config row", err)
		}
		cfg.EventType = types.EventType(et)
		results = append(results, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "error iterating notification config rows", err)
	}
	return results, nil
}

// Compile-time assertion that ConfigRepository implements types.ConfigStore.
var _ types.ConfigStore = (*ConfigRepository)(nil)
