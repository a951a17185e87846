package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketClaimed      EventType = "ticket_claimed"
	EventTicketUnclaimed    EventType = "ticket_unclaimed"
	EventTicketRerouted     EventType = "ticket_rerouted"
	EventTicketClosed       EventType = "ticket_closed"
	EventTicketMessageAdded EventType = "ticket_message_added"
	EventUserRoleChanged    EventType = "user_role_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketID int64, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID int64  `json:"department_id"`
	Header       string `json:"header"`
}

// TicketClaimPayload is shared by claim and unclaim events.
type TicketClaimPayload struct {
	SpecialistID int64 `json:"specialist_id"`
}

// TicketReroutedPayload payload.
type TicketReroutedPayload struct {
	FromDepartmentID int64 `json:"from_department_id"`
	ToDepartmentID   int64 `json:"to_department_id"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosedBy domain.Role `json:"closed_by"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   int64                    `json:"message_id"`
	AuthorKind  domain.MessageAuthorKind `json:"author_kind"`
	BodyPreview string                   `json:"body_preview"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	UserID       int64       `json:"user_id"`
	OldRole      domain.Role `json:"old_role"`
	NewRole      domain.Role `json:"new_role"`
	DepartmentID *int64      `json:"department_id,omitempty"`
}
