package domain

// TicketStatus is one-way: OPEN to CLOSED.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// ParseTicketStatus accepts stored values and the capitalized labels shown to students.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch raw {
	case "OPEN", "Open", "open":
		return TicketStatusOpen, true
	case "CLOSED", "Closed", "closed":
		return TicketStatusClosed, true
	}
	return "", false
}

// Ticket is a student's support request routed to a department.
type Ticket struct {
	ID           int64
	StudentID    int64
	DepartmentID int64
	Header       string
	Status       TicketStatus
}

// IsOpen reports whether the ticket still accepts claims and reroutes.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// TicketView is a ticket joined with the fields list views display.
type TicketView struct {
	Ticket
	StudentEmail   string
	DepartmentName string
	ClaimedBy      *int64
}
