package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestClaimInsertsRow(t *testing.T) {
	mock := newMock(t)
	repo := NewClaimRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM tickets WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.TicketStatusOpen))
	mock.ExpectQuery(`INSERT INTO specialist_inbox`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	claim, err := repo.Claim(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 11, claim.ID)
	assert.EqualValues(t, 7, claim.SpecialistID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimHeldByPeerConflicts(t *testing.T) {
	mock := newMock(t)
	repo := NewClaimRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.TicketStatusOpen))
	mock.ExpectQuery(`ON CONFLICT \(ticket_id\) DO NOTHING`).
		WithArgs(int64(8), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id, specialist_id FROM specialist_inbox`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "specialist_id"}).AddRow(int64(11), int64(7)))
	mock.ExpectRollback()

	_, err := repo.Claim(context.Background(), 8, 1)
	assert.ErrorIs(t, err, ErrTicketAlreadyClaimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimOwnTicketIsIdempotent(t *testing.T) {
	mock := newMock(t)
	repo := NewClaimRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.TicketStatusOpen))
	mock.ExpectQuery(`INSERT INTO specialist_inbox`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id, specialist_id FROM specialist_inbox`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "specialist_id"}).AddRow(int64(11), int64(7)))
	mock.ExpectCommit()

	claim, err := repo.Claim(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 11, claim.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimClosedOrMissingTicket(t *testing.T) {
	mock := newMock(t)
	repo := NewClaimRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.TicketStatusClosed))
	mock.ExpectRollback()
	_, err := repo.Claim(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrTicketClosed)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}))
	mock.ExpectRollback()
	_, err = repo.Claim(context.Background(), 7, 99)
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseReportsMissingClaim(t *testing.T) {
	mock := newMock(t)
	repo := NewClaimRepository(mock)

	mock.ExpectExec(`DELETE FROM specialist_inbox WHERE specialist_id=\$1 AND ticket_id=\$2`).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	released, err := repo.Release(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseDeletesClaimInSameTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tickets SET status='CLOSED'`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM specialist_inbox WHERE ticket_id=\$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	closed, err := repo.Close(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseRollsBackOnClaimDeleteFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tickets SET status='CLOSED'`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM specialist_inbox`).
		WithArgs(int64(4)).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	closed, err := repo.Close(context.Background(), 4)
	assert.Error(t, err)
	assert.False(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRerouteClosedTicketSkipsClaimDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tickets SET department_id=\$1 WHERE id=\$2 AND status='OPEN'`).
		WithArgs(int64(2), int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectCommit()

	moved, err := repo.Reroute(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInboxDepartmentPoolExcludesClaimed(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	deptID := int64(3)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\).*WHERE t.department_id = \$1 AND t.status = \$2 AND si.id IS NULL AND u.email ILIKE \$3`).
		WithArgs(deptID, domain.TicketStatusOpen, "stu%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`ORDER BY t.id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs(deptID, domain.TicketStatusOpen, "stu%", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "student_id", "department_id", "header", "status", "email", "name", "specialist_id"}).
			AddRow(int64(1), int64(20), deptID, "Heating broken", domain.TicketStatusOpen, "student@uni.edu", "Accommodation", (*int64)(nil)))

	params := query.NormalizeFilterParams(map[string]string{"email": "stu"}, "email", "header")
	views, total, err := repo.ListInbox(context.Background(), InboxFilter{
		SpecialistID: 7,
		DepartmentID: &deptID,
		Category:     domain.InboxDepartment,
		Params:       params,
		Page:         query.ParsePage("1", 10),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, "Accommodation", views[0].DepartmentName)
	assert.Nil(t, views[0].ClaimedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInboxWithoutAssignmentIsEmpty(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	views, total, err := repo.ListInbox(context.Background(), InboxFilter{SpecialistID: 7, Category: domain.InboxArchived})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketWithOpeningMessage(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tickets`).
		WithArgs(int64(20), int64(3), "Heating broken", domain.TicketStatusOpen).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(1), domain.AuthorStudent, pgxmock.AnyArg(), "no heat since monday").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), timeNow()))
	mock.ExpectCommit()

	ticket := &domain.Ticket{StudentID: 20, DepartmentID: 3, Header: "Heating broken"}
	msg := &domain.Message{AuthorKind: domain.AuthorStudent, Content: "no heat since monday"}
	require.NoError(t, repo.Create(context.Background(), ticket, msg))
	assert.EqualValues(t, 1, ticket.ID)
	assert.EqualValues(t, 1, msg.TicketID)
	assert.EqualValues(t, 5, msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpecialistDepartmentUpsert(t *testing.T) {
	mock := newMock(t)
	repo := NewSpecialistDepartmentRepository(mock)

	mock.ExpectQuery(`ON CONFLICT \(specialist_id\) DO UPDATE`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	sd, err := repo.Upsert(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, sd.DepartmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentCreateDerivesSlug(t *testing.T) {
	mock := newMock(t)
	repo := NewDepartmentRepository(mock)

	mock.ExpectQuery(`INSERT INTO departments`).
		WithArgs("Technology Support", "technology-support").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))

	dept := &domain.Department{Name: "Technology Support"}
	require.NoError(t, repo.Create(context.Background(), dept))
	assert.Equal(t, "technology-support", dept.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListAppliesRoleAndDepartment(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\).*u.email ILIKE \$1 AND u.role = \$2 AND sd.department_id = \$3`).
		WithArgs("%uni%", domain.RoleSpecialist, int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`ORDER BY u.id LIMIT \$4 OFFSET \$5`).
		WithArgs("%uni%", domain.RoleSpecialist, int64(3), 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	params := query.NormalizeFilterParams(map[string]string{
		"email": "uni", "role": "SP", "department": "3", query.MethodParam: "search",
	}, UserTextFields...)
	users, total, err := repo.List(context.Background(), UserFilter{Params: params, Page: query.ParsePage("", 10)})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteEmptyIsNoop(t *testing.T) {
	mock := newMock(t)
	n, err := NewUserRepository(mock).Delete(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
