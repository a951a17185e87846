package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest is the student's new ticket form.
type CreateTicketRequest struct {
	Department int64  `json:"department" form:"department" validate:"gt=0"`
	Header     string `json:"header" form:"header" validate:"required,max=200"`
	Message    string `json:"message" form:"message" validate:"required"`
}

// InboxActionRequest is posted to a specialist dashboard. Reroute is the legacy
// "<department name> <ticket id>" token; RerouteTicket and RerouteDepartment replace it.
// Ids are kept raw: a malformed id is a no-op, not a validation failure.
type InboxActionRequest struct {
	Unclaim           RawID  `json:"unclaim" form:"unclaim"`
	Reroute           string `json:"reroute" form:"reroute"`
	RerouteTicket     RawID  `json:"reroute_ticket" form:"reroute_ticket"`
	RerouteDepartment RawID  `json:"reroute_department" form:"reroute_department"`
}

// Structured reports whether the ticket/department pair was posted.
func (r InboxActionRequest) Structured() bool {
	return r.RerouteTicket != "" || r.RerouteDepartment != ""
}

// ClaimRequest accepts a ticket from the department pool.
type ClaimRequest struct {
	AcceptTicket RawID `json:"accept_ticket" form:"accept_ticket"`
}

// ThreadActionRequest appends a message or, when View is set, closes the ticket.
type ThreadActionRequest struct {
	Content string `json:"content" form:"content"`
	View    RawID  `json:"view" form:"view"`
}

// StudentInboxRequest filters the student dashboard.
type StudentInboxRequest struct {
	TypeOfTicket string `json:"type_of_ticket" form:"type_of_ticket"`
}

// TicketResponse is a ticket row in list views.
type TicketResponse struct {
	ID             int64               `json:"id"`
	Header         string              `json:"header"`
	Status         domain.TicketStatus `json:"status"`
	DepartmentID   int64               `json:"department_id"`
	DepartmentName string              `json:"department_name,omitempty"`
	StudentID      int64               `json:"student_id"`
	StudentEmail   string              `json:"student_email,omitempty"`
	ClaimedBy      *int64              `json:"claimed_by,omitempty"`
}

// MessageResponse is one thread entry.
type MessageResponse struct {
	ID          int64                    `json:"id"`
	AuthorKind  domain.MessageAuthorKind `json:"author_kind"`
	ResponderID *int64                   `json:"responder_id,omitempty"`
	Content     string                   `json:"content"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ThreadResponse is a ticket with its messages.
type ThreadResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Messages []MessageResponse `json:"messages"`
}
