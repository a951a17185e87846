package domain

import "time"

// MessageAuthorKind distinguishes student and specialist messages in one thread.
type MessageAuthorKind string

const (
	AuthorStudent    MessageAuthorKind = "STUDENT"
	AuthorSpecialist MessageAuthorKind = "SPECIALIST"
)

// Message is an append-only entry in a ticket thread. ResponderID is set for specialist messages.
type Message struct {
	ID          int64
	TicketID    int64
	AuthorKind  MessageAuthorKind
	ResponderID *int64
	Content     string
	CreatedAt   time.Time
}
