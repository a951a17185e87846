package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// MessageRepository stores the append-only ticket thread.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Message, error)
}

type messageRepository struct {
	db DBTX
}

// NewMessageRepository builds repository.
func NewMessageRepository(db DBTX) MessageRepository {
	return &messageRepository{db: db}
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertMessage(ctx context.Context, q rowQuerier, msg *domain.Message) error {
	return q.QueryRow(ctx, `
        INSERT INTO messages (ticket_id, author_kind, responder_id, content)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`,
		msg.TicketID,
		msg.AuthorKind,
		msg.ResponderID,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return insertMessage(ctx, r.db, msg)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, ticket_id, author_kind, responder_id, content, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.TicketID, &msg.AuthorKind, &msg.ResponderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
