package voice

import "time"

// Event types pushed by the voice-AI provider. Only EventCallEnded carries
// enough information to produce a call record; the rest are acknowledged
// and dropped so the provider does not retry or alert on them.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// WebhookEvent is the tagged payload POSTed by the provider.
// It is ephemeral; only the derived CallRecord is persisted.
type WebhookEvent struct {
	Event string       `json:"event"`
	Call  *CallPayload `json:"call"`
}

// CallPayload is the nested call object of a webhook event.
// Timestamps are epoch milliseconds as emitted by the provider.
type CallPayload struct {
	FromNumber          string `json:"from_number"`
	ToNumber            string `json:"to_number"`
	CallID              string `json:"call_id"`
	AgentID             string `json:"agent_id"`
	ProviderAgentID     string `json:"provider_agent_id,omitempty"`
	DisconnectionReason string `json:"disconnection_reason,omitempty"`
	Transcript          string `json:"transcript,omitempty"`
	StartTimestamp      int64  `json:"start_timestamp"`
	EndTimestamp        int64  `json:"end_timestamp"`
}

// Actionable reports whether this event can produce a call record.
func (e WebhookEvent) Actionable() bool {
	return e.Event == EventCallEnded && e.Call != nil
}

// CallRecord represents one completed phone call handled by a voice agent.
//
// Invariants:
// - UserID must reference a resolved owner; records are never created
//   without a successful agent-to-user resolution.
// - Rows are insert-only; this flow never mutates or deletes them.
// - Phone numbers are stored raw, not normalized.
type CallRecord struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	FromNumber string `json:"from_number" db:"from_number"`
	ToNumber   string `json:"to_number" db:"to_number"`

	// AgentID is the opaque id the provider assigned to the configured agent.
	AgentID         string `json:"call_agent_id" db:"call_agent_id"`
	ProviderCallID  string `json:"provider_call_id" db:"provider_call_id"`
	ProviderAgentID string `json:"provider_agent_id,omitempty" db:"provider_agent_id"`

	DisconnectionReason string `json:"disconnection_reason,omitempty" db:"disconnection_reason"`
	Transcript          string `json:"transcript,omitempty" db:"transcript"`

	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DurationSeconds derives the call duration from the provider instants.
func (r CallRecord) DurationSeconds() int {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return int(r.EndTime.Sub(r.StartTime) / time.Second)
}

// msToTime converts provider epoch-millisecond values into instants.
func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
