package domain

import "time"

// TicketCounts summarizes tickets by status.
type TicketCounts struct {
	Total  int64 `json:"total"`
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}

// DepartmentStatistics is the specialist dashboard summary for one department.
type DepartmentStatistics struct {
	DepartmentID             int64        `json:"department_id"`
	DepartmentName           string       `json:"department_name"`
	Tickets                  TicketCounts `json:"tickets"`
	LatestResponseAt         *time.Time   `json:"latest_response_at,omitempty"`
	AverageMessagesPerTicket float64      `json:"average_messages_per_ticket"`
}

// DepartmentTicketCounts pairs a department with its ticket counts.
type DepartmentTicketCounts struct {
	DepartmentID   int64        `json:"department_id"`
	DepartmentName string       `json:"department_name"`
	Tickets        TicketCounts `json:"tickets"`
}
