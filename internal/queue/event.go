// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit actions published by the dashboard.
const (
	ActionEventCreated     = "event.created"
	ActionTicketCreated    = "ticket.created"
	ActionCheckinPerformed = "checkin.performed"
)

// AuditEvent records one administrative action against the upstream
// ticketing service.  It carries enough context for downstream consumers
// to build an audit trail without querying the dashboard database.
type AuditEvent struct {
	Action     string `json:"action"`
	ActorID    uint64 `json:"actor_id"`
	EventSlug  string `json:"event_slug,omitempty"`
	Target     string `json:"target,omitempty"`  // e.g. ticket name, check-in list id
	Outcome    string `json:"outcome,omitempty"` // ok | warning | failed
	OccurredAt string `json:"occurred_at"`
}
