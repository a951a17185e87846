package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ClaimRepository manages specialist_inbox rows. A ticket has at most one claim.
type ClaimRepository interface {
	Claim(ctx context.Context, specialistID, ticketID int64) (*domain.Claim, error)
	Release(ctx context.Context, specialistID, ticketID int64) (bool, error)
	GetByTicket(ctx context.Context, ticketID int64) (*domain.Claim, error)
	CountBySpecialist(ctx context.Context, specialistID int64) (int64, error)
}

type claimRepository struct {
	db DBTX
}

// NewClaimRepository builds the repository.
func NewClaimRepository(db DBTX) ClaimRepository {
	return &claimRepository{db: db}
}

// Claim locks the ticket row and inserts the claim. It returns pgx.ErrNoRows for unknown
// tickets, ErrTicketClosed for closed ones, and ErrTicketAlreadyClaimed when another
// specialist holds the claim. Claiming one's own ticket again returns the existing claim.
func (r *claimRepository) Claim(ctx context.Context, specialistID, ticketID int64) (*domain.Claim, error) {
	claim := &domain.Claim{SpecialistID: specialistID, TicketID: ticketID}
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var status domain.TicketStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM tickets WHERE id=$1 FOR UPDATE`, ticketID).Scan(&status); err != nil {
			return err
		}
		if status != domain.TicketStatusOpen {
			return ErrTicketClosed
		}

		err := tx.QueryRow(ctx, `
            INSERT INTO specialist_inbox (specialist_id, ticket_id) VALUES ($1,$2)
            ON CONFLICT (ticket_id) DO NOTHING
            RETURNING id`, specialistID, ticketID).Scan(&claim.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		var holder int64
		if err := tx.QueryRow(ctx,
			`SELECT id, specialist_id FROM specialist_inbox WHERE ticket_id=$1`, ticketID,
		).Scan(&claim.ID, &holder); err != nil {
			return err
		}
		if holder != specialistID {
			return ErrTicketAlreadyClaimed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// Release deletes the caller's claim and reports whether one existed.
func (r *claimRepository) Release(ctx context.Context, specialistID, ticketID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM specialist_inbox WHERE specialist_id=$1 AND ticket_id=$2`, specialistID, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *claimRepository) GetByTicket(ctx context.Context, ticketID int64) (*domain.Claim, error) {
	var claim domain.Claim
	if err := r.db.QueryRow(ctx,
		`SELECT id, specialist_id, ticket_id FROM specialist_inbox WHERE ticket_id=$1`, ticketID,
	).Scan(&claim.ID, &claim.SpecialistID, &claim.TicketID); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) CountBySpecialist(ctx context.Context, specialistID int64) (int64, error) {
	return countRows(ctx, r.db, `SELECT COUNT(*) FROM specialist_inbox WHERE specialist_id=$1`, specialistID)
}
