package gate

import (
	"context"
	"errors"

	"billmail/internal/types"
)

// Gate is the allow/deny decision for whether an event may produce a
// notification.
type Gate struct {
	defaults *TenantDefaults
	store    types.ConfigStore
	logger   types.Logger
}

// New creates a Gate over the tenant defaults and the configuration store.
func New(defaults *TenantDefaults, store types.ConfigStore, logger types.Logger) *Gate {
	return &Gate{defaults: defaults, store: store, logger: logger}
}

// IsAllowed decides pass/block for (tenant, account, event type).
//
// The tenant default is checked first: tenant-wide opt-in is the common case
// and avoids a store round trip. Otherwise the per-account override is
// consulted; it is strictly additive on top of the tenant default, never a
// restriction. An absent override means not allowed.
//
// A store failure during the override lookup fails closed: the returned
// error carries the storage code so callers can report it, and allowed is
// false.
func (g *Gate) IsAllowed(ctx context.Context, tenantID, accountID string, eventType types.EventType) (bool, error) {
	if g.defaults.Get(tenantID).Contains(eventType) {
		return true, nil
	}

	_, err := g.store.GetEventTypeForAccount(ctx, accountID, tenantID, eventType)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundConfig {
			return false, nil
		}
		g.logger.Error("gate override lookup failed, failing closed",
			"tenant_id", tenantID,
			"account_id", accountID,
			"event_type", string(eventType),
			"error", err.Error(),
		)
		return false, err
	}
	return true, nil
}
