package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"billmail/internal/types"
)

// ---------------------------------------------------------------------------
// Notification Config Handlers
//
// The admin API manages the durable per-account allow-list. Writes replace
// the account's whole configuration atomically; there is no per-row
// mutation endpoint.
// ---------------------------------------------------------------------------

// configResponse is the wire shape of one allow-list row.
type configResponse struct {
	RecordID  string `json:"record_id"`
	AccountID string `json:"account_id"`
	TenantID  string `json:"tenant_id"`
	EventType string `json:"event_type"`
	CreatedAt string `json:"created_at"`
}

func toConfigResponses(configs []types.NotificationConfig) []configResponse {
	out := make([]configResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, configResponse{
			RecordID:  c.RecordID,
			AccountID: c.AccountID,
			TenantID:  c.TenantID,
			EventType: string(c.EventType),
			CreatedAt: c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

// HandleBulkGetConfigs returns the enabled event types for a set of accounts
// in one round trip.
//
//	GET /v1/tenants/{tenantID}/notification-configs?account_ids=a,b,c
//
// An empty account_ids parameter is a 400; unknown accounts simply
// contribute no rows.
func (s *Server) HandleBulkGetConfigs(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())

	raw := r.URL.Query().Get("account_ids")
	var accountIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			accountIDs = append(accountIDs, id)
		}
	}
	if len(accountIDs) == 0 {
		Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingAccount,
			"account_ids query parameter is required",
			nil,
		))
		return
	}

	configs, err := s.Store.GetEventTypes(r.Context(), accountIDs, tenantID)
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: toConfigResponses(configs)})
}

// HandleGetAccountConfigs returns every enabled event type for one account.
// An account with no overrides yields an empty list, not a 404; absence of
// rows is a valid configuration state.
//
//	GET /v1/tenants/{tenantID}/accounts/{accountID}/notification-configs
func (s *Server) HandleGetAccountConfigs(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())
	accountID := chi.URLParam(r, "accountID")

	configs, err := s.Store.GetEventTypesForAccount(r.Context(), accountID, tenantID)
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: toConfigResponses(configs)})
}

// HandleGetAccountConfigForEventType returns the single allow-list row for
// (account, event type), or 404 when the event type is not enabled.
//
//	GET /v1/tenants/{tenantID}/accounts/{accountID}/notification-configs/{eventType}
func (s *Server) HandleGetAccountConfigForEventType(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())
	accountID := chi.URLParam(r, "accountID")

	eventType := types.EventType(chi.URLParam(r, "eventType"))
	if !types.ValidEventType(string(eventType)) {
		Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationEventType,
			"unknown event type",
			nil,
			map[string]any{"event_type": string(eventType)},
		))
		return
	}

	cfg, err := s.Store.GetEventTypeForAccount(r.Context(), accountID, tenantID, eventType)
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: toConfigResponses([]types.NotificationConfig{*cfg})[0]})
}

// replaceConfigRequest is the PUT body for replacing an account's allow-list.
type replaceConfigRequest struct {
	EventTypes []string `json:"event_types"`
}

// HandleReplaceAccountConfigs atomically replaces the account's entire
// allow-list with the given event types. An empty list clears the account's
// overrides. Duplicate event types in the request collapse to one row.
//
//	PUT /v1/tenants/{tenantID}/accounts/{accountID}/notification-configs
//
// Returns 201 on success; no reader can ever observe a partially applied
// replacement.
func (s *Server) HandleReplaceAccountConfigs(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())
	accountID := chi.URLParam(r, "accountID")

	var req replaceConfigRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	seen := make(map[types.EventType]bool, len(req.EventTypes))
	eventTypes := make([]types.EventType, 0, len(req.EventTypes))
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
		et := types.EventType(raw)
		if !seen[et] {
			seen[et] = true
			eventTypes = append(eventTypes, et)
		}
	}

	if err := s.Store.ReplaceAccountConfig(r.Context(), accountID, tenantID, eventTypes, s.Clock.Now()); err != nil {
		Error(w, r, err)
		return
	}

	configs, err := s.Store.GetEventTypesForAccount(r.Context(), accountID, tenantID)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusCreated, APIResponse{Data: toConfigResponses(configs)})
}

// HandleDeleteAccountConfigs removes every override for the account.
// Deleting an account with no overrides is a no-op 204.
//
//	DELETE /v1/tenants/{tenantID}/accounts/{accountID}/notification-configs
func (s *Server) HandleDeleteAccountConfigs(w http.ResponseWriter, r *http.Request) {
	tenantID := types.GetTenantID(r.Context())
	accountID := chi.URLParam(r, "accountID")

	if err := s.Store.DeleteAccountConfig(r.Context(), accountID, tenantID); err != nil {
		Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
