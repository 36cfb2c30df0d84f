package types

// Event is the inbound billing lifecycle message consumed from the event
// queue. It is the transport envelope: immutable, one per occurrence, with
// no cross-event ordering guarantee. JSON tags use snake_case to match the
// upstream bus schema.
type Event struct {
	// EventID correlates log lines and failure reports for one occurrence.
	EventID string `json:"event_id"`

	EventType EventType `json:"event_type"`
	AccountID string    `json:"account_id"`
	TenantID  string    `json:"tenant_id"`

	// ObjectID/ObjectType reference the billing object the event is about
	// (invoice id, payment id, subscription id).
	ObjectID   string `json:"object_id"`
	ObjectType string `json:"object_type"`
}

// Validate checks that the envelope carries the fields routing depends on.
func (e *Event) Validate() error {
	if e.TenantID == "" {
		return NewAppError(ErrCodeValidationMissingTenant, "event is missing tenant_id", nil)
	}
	if e.AccountID == "" {
		return NewAppError(ErrCodeValidationMissingAccount, "event is missing account_id", nil)
	}
	if !ValidEventType(string(e.EventType)) {
		return NewAppErrorWithDetails(ErrCodeValidationEventType, "unknown event type", nil,
			map[string]any{"event_type": string(e.EventType)})
	}
	return nil
}
