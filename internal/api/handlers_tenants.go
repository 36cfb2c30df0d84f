package api

import (
	"net/http"

	"billmail/internal/locale"
	"billmail/internal/types"
)

// ---------------------------------------------------------------------------
// Tenant Default Handlers
//
// Tenant defaults are process-local state pushed over HTTP; they are not
// persisted by this service. Each running instance receives its own push
// (the config distributor fans out to all instances).
// ---------------------------------------------------------------------------

// tenantDefaultsRequest is the PUT body for installing a tenant's default
// configuration.
type tenantDefaultsRequest struct {
	EventTypes       []string `json:"event_types"`
	DryRunNoticeDays int      `json:"dry_run_notice_days"`
	DefaultLocale    string   `json:"default_locale"`
}

// HandleSetTenantDefaults installs a new default configuration snapshot for
// the tenant. The snapshot replaces any previous one wholesale; in-flight
// dispatches keep the snapshot they started with.
//
//	PUT /v1/tenants/{tenantID}/defaults
func (s *Server) HandleSetTenantDefaults(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())

	var req tenantDefaultsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	eventTypes := make(map[types.EventType]bool, len(req.EventTypes))
	for _, raw := range req.EventTypes {
		if !types.ValidEventType(raw) {
			Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationEventType,
				"unknown event type",
				nil,
				map[string]any{"event_type": raw},
			))
			return
		}
		eventTypes[types.EventType(raw)] = true
	}

	if req.DryRunNoticeDays < 0 {
		Error(w, r, types.NewAppError(
			types.ErrCodeConfigBadProperty,
			"dry_run_notice_days must not be negative",
			nil,
		))
		return
	}

	// A pushed default locale must be well-formed; a malformed one would
	// poison every locale resolution for the tenant.
	if req.DefaultLocale != "" {
		if _, err := locale.Parse(req.DefaultLocale); err != nil {
			Error(w, r, err)
			return
		}
	}

	s.Defaults.Set(tenantID, &types.TenantDefaultConfig{
		TenantID:         tenantID,
		EventTypes:       eventTypes,
		DryRunNoticeDays: req.DryRunNoticeDays,
		DefaultLocale:    req.DefaultLocale,
	})

	s.Logger.Info("tenant defaults installed",
		"tenant_id", tenantID,
		"event_types", len(eventTypes),
		"dry_run_notice_days", req.DryRunNoticeDays,
	)

	JSON(w, r, http.StatusOK, APIResponse{Data: req})
}

// HandleDeleteTenantDefaults removes the tenant's pushed configuration,
// reverting it to the process-wide default.
//
//	DELETE /v1/tenants/{tenantID}/defaults
func (s *Server) HandleDeleteTenantDefaults(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())

	s.Defaults.Delete(tenantID)

	s.Logger.Info("tenant defaults removed", "tenant_id", tenantID)
	w.WriteHeader(http.StatusNoContent)
}
