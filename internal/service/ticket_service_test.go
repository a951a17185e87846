package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestStudentTicketLifecycle(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	ticket, err := s.tickets.Create(ctx, s.student, CreateTicketInput{DepartmentID: s.dept.ID, Header: " No hot water ", Message: "Since Monday"})
	require.NoError(t, err)
	assert.Equal(t, "No hot water", ticket.Header)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Contains(t, s.dispatcher.types(), events.EventTicketCreated)

	thread, err := s.tickets.Thread(ctx, s.student, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, domain.AuthorStudent, thread.Messages[0].AuthorKind)

	reply, err := s.tickets.AddMessage(ctx, s.a, ticket.ID, "On it")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorSpecialist, reply.AuthorKind)
	require.NotNil(t, reply.ResponderID)
	assert.Equal(t, s.a.ID, *reply.ResponderID)

	inbox, err := s.tickets.ListForStudent(ctx, s.student, "Open", firstPage(StudentPageSize))
	require.NoError(t, err)
	assert.Equal(t, int64(2), inbox.Tickets.Total)
	assert.Equal(t, "Open", inbox.Status)

	_, err = s.triage.Close(ctx, s.student, ticket.ID)
	require.NoError(t, err)

	_, err = s.tickets.AddMessage(ctx, s.student, ticket.ID, "Thanks")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	inbox, err = s.tickets.ListForStudent(ctx, s.student, "Closed", firstPage(StudentPageSize))
	require.NoError(t, err)
	require.Len(t, inbox.Tickets.Items, 1)
	assert.Equal(t, ticket.ID, inbox.Tickets.Items[0].ID)

	inbox, err = s.tickets.ListForStudent(ctx, s.student, "bogus", firstPage(StudentPageSize))
	require.NoError(t, err)
	assert.Equal(t, int64(2), inbox.Tickets.Total)
	assert.Empty(t, inbox.Status)
}

func TestCreateTicketUnknownDepartment(t *testing.T) {
	s := newAccommodation()
	_, err := s.tickets.Create(context.Background(), s.student, CreateTicketInput{DepartmentID: 999, Header: "x", Message: "y"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = s.tickets.Create(context.Background(), s.a, CreateTicketInput{DepartmentID: s.dept.ID, Header: "x", Message: "y"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestThreadAccess(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	outsider := s.store.AddUser("fin@uni.test", domain.RoleSpecialist)
	s.store.Assign(outsider.ID, s.other.ID)
	stranger := s.store.AddUser("x@uni.test", domain.RoleStudent)

	_, err := s.tickets.Thread(ctx, outsider, s.ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = s.tickets.Thread(ctx, stranger, s.ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = s.tickets.Thread(ctx, s.b, 31337)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	thread, err := s.tickets.Thread(ctx, s.b, s.ticket.ID)
	require.NoError(t, err)
	assert.NotNil(t, thread.Messages)

	_, err = s.tickets.AddMessage(ctx, s.b, s.ticket.ID, "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
