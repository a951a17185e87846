package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type accommodation struct {
	*fixture
	dept    *domain.Department
	other   *domain.Department
	student *domain.User
	a, b    *domain.User
	ticket  *domain.Ticket
}

func newAccommodation() accommodation {
	f := newFixture()
	s := accommodation{fixture: f}
	s.dept = f.store.AddDepartment("Accommodation")
	s.other = f.store.AddDepartment("Finance")
	s.student = f.store.AddUser("student@uni.test", domain.RoleStudent)
	s.a = f.store.AddUser("a@uni.test", domain.RoleSpecialist)
	s.b = f.store.AddUser("b@uni.test", domain.RoleSpecialist)
	f.store.Assign(s.a.ID, s.dept.ID)
	f.store.Assign(s.b.ID, s.dept.ID)
	s.ticket = f.store.AddTicket(s.student.ID, s.dept.ID, "Broken heater")
	return s
}

func (s accommodation) ids(t *testing.T, actor *domain.User, cat domain.InboxCategory) []int64 {
	t.Helper()
	view, err := s.inbox.List(context.Background(), actor, cat, noParams(), firstPage(SpecialistPageSize))
	require.NoError(t, err)
	out := []int64{}
	for _, item := range view.Tickets.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestClaimScenarioAccommodation(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	assert.Equal(t, []int64{s.ticket.ID}, s.ids(t, s.a, domain.InboxDepartment))

	outcome, err := s.triage.Claim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimClaimed, outcome)

	assert.Equal(t, []int64{s.ticket.ID}, s.ids(t, s.a, domain.InboxPersonal))
	assert.Empty(t, s.ids(t, s.a, domain.InboxDepartment))
	assert.Empty(t, s.ids(t, s.b, domain.InboxDepartment))

	outcome, err = s.triage.Claim(ctx, s.b, s.ticket.ID)
	require.Error(t, err)
	assert.Equal(t, ClaimConflict, outcome)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Empty(t, s.ids(t, s.b, domain.InboxPersonal))

	assert.Equal(t, 1, s.metrics.counts[string(ClaimClaimed)])
	assert.Equal(t, 1, s.metrics.counts[string(ClaimConflict)])
	assert.Contains(t, s.dispatcher.types(), events.EventTicketClaimed)
}

func TestClaimIsExclusiveUnderConcurrency(t *testing.T) {
	s := newAccommodation()
	specialists := []*domain.User{s.a, s.b}
	for i := 0; i < 8; i++ {
		u := s.store.AddUser("extra"+string(rune('a'+i))+"@uni.test", domain.RoleSpecialist)
		s.store.Assign(u.ID, s.dept.ID)
		specialists = append(specialists, u)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for _, sp := range specialists {
		wg.Add(1)
		go func(u *domain.User) {
			defer wg.Done()
			outcome, _ := s.triage.Claim(context.Background(), u, s.ticket.ID)
			if outcome == ClaimClaimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(sp)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Len(t, s.store.Claims, 1)
}

func TestClaimIsSilentForUnknownOrForeignTickets(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	outcome, err := s.triage.Claim(ctx, s.a, 9999)
	require.NoError(t, err)
	assert.Equal(t, ClaimMissing, outcome)

	foreign := s.store.AddTicket(s.student.ID, s.other.ID, "Refund")
	outcome, err = s.triage.Claim(ctx, s.a, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimMissing, outcome)
	assert.Empty(t, s.store.Claims)
}

func TestClaimRejectsStudents(t *testing.T) {
	s := newAccommodation()
	_, err := s.triage.Claim(context.Background(), s.student, s.ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = s.triage.Claim(context.Background(), nil, s.ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCheckClaimCandidate(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	require.NoError(t, memory.MessageRepository{Store: s.store}.Create(ctx, &domain.Message{TicketID: s.ticket.ID, AuthorKind: domain.AuthorStudent, Content: "It is cold"}))

	candidate, err := s.triage.CheckClaimCandidate(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "Accommodation", candidate.DepartmentName)
	require.NotNil(t, candidate.FirstMessage)
	assert.Equal(t, "It is cold", candidate.FirstMessage.Content)

	foreign := s.store.AddTicket(s.student.ID, s.other.ID, "Refund")
	candidate, err = s.triage.CheckClaimCandidate(ctx, s.a, foreign.ID)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestCheckClaimCandidateOutsidePool(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	_, err := s.triage.Claim(ctx, s.b, s.ticket.ID)
	require.NoError(t, err)
	candidate, err := s.triage.CheckClaimCandidate(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, candidate, "claimed tickets are no longer in the pool")

	closed := s.store.AddTicket(s.student.ID, s.dept.ID, "Noise")
	_, err = s.triage.Close(ctx, s.student, closed.ID)
	require.NoError(t, err)
	candidate, err = s.triage.CheckClaimCandidate(ctx, s.a, closed.ID)
	require.NoError(t, err)
	assert.Nil(t, candidate, "closed tickets are no longer in the pool")
}

func TestCloseReleasesClaim(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	_, err := s.triage.Claim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)

	closed, err := s.triage.Close(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.True(t, closed)

	assert.Empty(t, s.store.Claims)
	assert.Empty(t, s.ids(t, s.a, domain.InboxPersonal))
	assert.Empty(t, s.ids(t, s.a, domain.InboxDepartment))
	assert.Equal(t, []int64{s.ticket.ID}, s.ids(t, s.a, domain.InboxArchived))

	closed, err = s.triage.Close(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.False(t, closed)

	outcome, err := s.triage.Claim(ctx, s.b, s.ticket.ID)
	assert.Equal(t, ClaimConflict, outcome)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestStudentClose(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	_, err := s.triage.Claim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)

	stranger := s.store.AddUser("other@uni.test", domain.RoleStudent)
	_, err = s.triage.Close(ctx, stranger, s.ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	closed, err := s.triage.Close(ctx, s.student, s.ticket.ID)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Empty(t, s.store.Claims)

	closed, err = s.triage.Close(ctx, s.student, 4242)
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestRerouteDropsClaimAndMovesPool(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	finance := s.store.AddUser("finance@uni.test", domain.RoleSpecialist)
	s.store.Assign(finance.ID, s.other.ID)

	_, err := s.triage.Claim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)

	res, err := s.triage.Reroute(ctx, s.a, RerouteRequest{TicketID: s.ticket.ID, TargetDepartmentID: s.other.ID})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Nil(t, res.Notice)

	assert.Equal(t, s.other.ID, s.store.Tickets[s.ticket.ID].DepartmentID)
	assert.Empty(t, s.store.Claims)
	assert.Empty(t, s.ids(t, s.a, domain.InboxPersonal))
	assert.Empty(t, s.ids(t, s.b, domain.InboxDepartment))
	assert.Equal(t, []int64{s.ticket.ID}, s.ids(t, finance, domain.InboxDepartment))
	assert.Contains(t, s.dispatcher.types(), events.EventTicketRerouted)
}

func TestRerouteNoOps(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	res, err := s.triage.Reroute(ctx, s.a, RerouteRequest{TicketID: s.ticket.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Notice)
	assert.Equal(t, NoticeSelectValidOption, res.Notice.Text)

	res, err = s.triage.Reroute(ctx, s.a, RerouteRequest{TicketID: 777, TargetDepartmentID: s.other.ID})
	require.NoError(t, err)
	assert.False(t, res.Moved)

	res, err = s.triage.Reroute(ctx, s.a, RerouteRequest{TicketID: s.ticket.ID, TargetDepartmentID: 777})
	require.NoError(t, err)
	assert.False(t, res.Moved)

	_, err = s.triage.Close(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	res, err = s.triage.Reroute(ctx, s.a, RerouteRequest{TicketID: s.ticket.ID, TargetDepartmentID: s.other.ID})
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, s.dept.ID, s.store.Tickets[s.ticket.ID].DepartmentID)
}

func TestRerouteByToken(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	room := s.store.AddDepartment("Room 101")

	res, err := s.triage.RerouteByToken(ctx, s.a, "0")
	require.NoError(t, err)
	require.NotNil(t, res.Notice)
	assert.Equal(t, "Select a valid option!", res.Notice.Text)
	assert.Equal(t, s.dept.ID, s.store.Tickets[s.ticket.ID].DepartmentID)

	res, err = s.triage.RerouteByToken(ctx, s.a, "Room 101 "+itoa(s.ticket.ID))
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, room.ID, s.store.Tickets[s.ticket.ID].DepartmentID)
}

func TestParseRerouteToken(t *testing.T) {
	tests := []struct {
		token string
		name  string
		id    int64
		ok    bool
	}{
		{"Finance 12", "Finance", 12, true},
		{"Technology Support 3", "Technology Support", 3, true},
		{"Room 101 7", "Room 101", 7, true},
		{"Finance", "", 0, false},
		{"Finance abc", "", 0, false},
		{" 5", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			name, id, ok := ParseRerouteToken(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestUnclaimIsIdempotent(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	released, err := s.triage.Unclaim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.False(t, released)

	_, err = s.triage.Claim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)

	released, err = s.triage.Unclaim(ctx, s.b, s.ticket.ID)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Len(t, s.store.Claims, 1)

	released, err = s.triage.Unclaim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.True(t, released)
	assert.Equal(t, []int64{s.ticket.ID}, s.ids(t, s.b, domain.InboxDepartment))

	released, err = s.triage.Unclaim(ctx, s.a, s.ticket.ID)
	require.NoError(t, err)
	assert.False(t, released)
}
