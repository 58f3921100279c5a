package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Events never carry
// passwords or password hashes.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventUserCreated          AuditEvent = "user_created"
	EventRegistrationRejected AuditEvent = "registration_rejected"
	EventLoginSucceeded       AuditEvent = "login_succeeded"
	EventAuthFailed           AuditEvent = "auth_failed"
)
