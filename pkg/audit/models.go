package audit

import "time"

// Event is emitted from domain logic to capture security-relevant actions.
// Keep it transport-agnostic so publishers can fan out to any sink.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"user_id,omitempty"`
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
