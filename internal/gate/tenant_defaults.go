// Package gate decides whether a (tenant, account, event type) triple is
// allowed to trigger a notification. Tenant-wide defaults are shared,
// read-mostly process state held as atomically swapped immutable snapshots;
// per-account overrides live in the configuration store.
package gate

import (
	"sync/atomic"

	"billmail/internal/types"
)

// TenantDefaults holds the per-tenant default configuration snapshots.
// Reads never lock; configuration pushes install a new snapshot map
// wholesale (read-copy-update), so readers can never observe a torn write.
type TenantDefaults struct {
	snapshot atomic.Pointer[map[string]*types.TenantDefaultConfig]
	global   *types.TenantDefaultConfig
}

// NewTenantDefaults creates the store with the given global default, used
// for any tenant without a pushed configuration. The global config's
// TenantID is ignored.
func NewTenantDefaults(global *types.TenantDefaultConfig) *TenantDefaults {
	t := &TenantDefaults{global: global}
	empty := make(map[string]*types.TenantDefaultConfig)
	t.snapshot.Store(&empty)
	return t
}

// Get returns the default configuration for a tenant, falling back to the
// global default when the tenant has never pushed one. The returned config
// is an immutable snapshot; callers must not mutate it.
func (t *TenantDefaults) Get(tenantID string) *types.TenantDefaultConfig {
	m := *t.snapshot.Load()
	if cfg, ok := m[tenantID]; ok {
		return cfg
	}
	return t.global
}

// Set installs a new configuration snapshot for one tenant. The whole
// per-tenant map is copied and swapped; in-flight readers keep the old map.
func (t *TenantDefaults) Set(tenantID string, cfg *types.TenantDefaultConfig) {
	for {
		old := t.snapshot.Load()
		next := make(map[string]*types.TenantDefaultConfig, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[tenantID] = cfg
		if t.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Delete removes a tenant's pushed configuration, reverting it to the
// global default.
func (t *TenantDefaults) Delete(tenantID string) {
	for {
		old := t.snapshot.Load()
		if _, ok := (*old)[tenantID]; !ok {
			return
		}
		next := make(map[string]*types.TenantDefaultConfig, len(*old))
		for k, v := range *old {
			if k != tenantID {
				next[k] = v
			}
		}
		if t.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}
