package gate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billmail/internal/types"
)

func TestTenantDefaultsGetFallsBackToGlobal(t *testing.T) {
	global := &types.TenantDefaultConfig{DryRunNoticeDays: 7}
	d := NewTenantDefaults(global)

	assert.Same(t, global, d.Get("anyone"))
}

func TestTenantDefaultsSetReplacesWholesale(t *testing.T) {
	d := NewTenantDefaults(&types.TenantDefaultConfig{})

	first := &types.TenantDefaultConfig{TenantID: "acme", DryRunNoticeDays: 7}
	d.Set("acme", first)
	require.Same(t, first, d.Get("acme"))

	second := &types.TenantDefaultConfig{TenantID: "acme", DryRunNoticeDays: 14}
	d.Set("acme", second)
	assert.Same(t, second, d.Get("acme"))
}

func TestTenantDefaultsSnapshotIsolation(t *testing.T) {
	d := NewTenantDefaults(&types.TenantDefaultConfig{})
	d.Set("acme", &types.TenantDefaultConfig{TenantID: "acme", DryRunNoticeDays: 7})

	// A reader holding a config from before a push keeps what it read.
	held := d.Get("acme")
	d.Set("acme", &types.TenantDefaultConfig{TenantID: "acme", DryRunNoticeDays: 30})

	assert.Equal(t, 7, held.DryRunNoticeDays)
	assert.Equal(t, 30, d.Get("acme").DryRunNoticeDays)
}

func TestTenantDefaultsDeleteRevertsToGlobal(t *testing.T) {
	global := &types.TenantDefaultConfig{DryRunNoticeDays: 7}
	d := NewTenantDefaults(global)

	d.Set("acme", &types.TenantDefaultConfig{TenantID: "acme"})
	d.Delete("acme")

	assert.Same(t, global, d.Get("acme"))

	// Deleting an absent tenant is a no-op.
	d.Delete("acme")
	assert.Same(t, global, d.Get("acme"))
}

func TestTenantDefaultsConcurrentAccess(t *testing.T) {
	d := NewTenantDefaults(&types.TenantDefaultConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Set("acme", &types.TenantDefaultConfig{TenantID: "acme", DryRunNoticeDays: j})
				d.Delete("other")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NotNil(t, d.Get("acme"))
			}
		}()
	}
	wg.Wait()
}
