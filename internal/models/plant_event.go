package models

import "time"

// Event types recorded by the supervisory server.
const (
	EventLogin           = "LOGIN"
	EventLoginRejected   = "LOGIN_REJECTED"
	EventLogout          = "LOGOUT"
	EventActuation       = "ACTUATION"
	EventActuationDenied = "ACTUATION_DENIED"
	EventClientError     = "CLIENT_ERROR"
	EventServerStart     = "SERVER_START"
	EventOverflow        = "OVERFLOW"
	EventShutdown        = "SHUTDOWN"
)

// IsEventType reports whether s is one of the event types above.
func IsEventType(s string) bool {
	switch s {
	case EventLogin, EventLoginRejected, EventLogout,
		EventActuation, EventActuationDenied, EventClientError,
		EventServerStart, EventOverflow, EventShutdown:
		return true
	}
	return false
}

// EventQuery selects events. Zero fields do not filter.
type EventQuery struct {
	From  time.Time // inclusive
	To    time.Time // inclusive
	Type  string
	Login string
}

// PlantEvent is a single log entry.
type PlantEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Login       string    `json:"login,omitempty"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
