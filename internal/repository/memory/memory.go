// Package memory implements the repository interfaces over a single
// in-process store. It backs service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
)

var (
	_ repository.TicketRepository               = TicketRepository{}
	_ repository.ClaimRepository                = ClaimRepository{}
	_ repository.SpecialistDepartmentRepository = SpecialistDepartmentRepository{}
	_ repository.DepartmentRepository           = DepartmentRepository{}
	_ repository.SubsectionRepository           = SubsectionRepository{}
	_ repository.MessageRepository              = MessageRepository{}
	_ repository.FAQRepository                  = FAQRepository{}
	_ repository.UserRepository                 = UserRepository{}
	_ repository.StatisticsRepository           = StatisticsRepository{}
)

// Store is the shared in-memory backing for every repository in this package.
// Its maps are exported so callers can seed and inspect state directly.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	Users       map[int64]*domain.User
	Departments map[int64]*domain.Department
	Subsections map[int64]*domain.Subsection
	Tickets     map[int64]*domain.Ticket
	Messages    []domain.Message
	Assignments map[int64]int64
	Claims      map[int64]int64
	FAQs        map[int64]*domain.FAQ
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Users:       map[int64]*domain.User{},
		Departments: map[int64]*domain.Department{},
		Subsections: map[int64]*domain.Subsection{},
		Tickets:     map[int64]*domain.Ticket{},
		Assignments: map[int64]int64{},
		Claims:      map[int64]int64{},
		FAQs:        map[int64]*domain.FAQ{},
	}
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

var uniqueViolation = &pgconn.PgError{Code: "23505"}

func prefixOrContains(method query.Method, value, pattern string) bool {
	if pattern == "" {
		return true
	}
	value, pattern = strings.ToLower(value), strings.ToLower(pattern)
	if method == query.MethodSearch {
		return strings.Contains(value, pattern)
	}
	return strings.HasPrefix(value, pattern)
}

func pageOf[T any](items []T, p query.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Size, len(items))
	return items[start:end]
}

// AddUser inserts an active user with the given role.
func (m *Store) AddUser(email string, role domain.Role) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{ID: m.id(), Email: email, FirstName: "Test", LastName: "User", Role: role, IsActive: true}
	m.Users[u.ID] = u
	return u
}

func (m *Store) AddDepartment(name string) *domain.Department {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &domain.Department{ID: m.id(), Name: name, Slug: domain.Slugify(name)}
	m.Departments[d.ID] = d
	return d
}

func (m *Store) AddSubsection(deptID int64, name string) *domain.Subsection {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &domain.Subsection{ID: m.id(), DepartmentID: deptID, Name: name}
	m.Subsections[s.ID] = s
	return s
}

func (m *Store) AddTicket(studentID, deptID int64, header string) *domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &domain.Ticket{ID: m.id(), StudentID: studentID, DepartmentID: deptID, Header: header, Status: domain.TicketStatusOpen}
	m.Tickets[t.ID] = t
	return t
}

// Assign places a specialist in a department, replacing any prior assignment.
func (m *Store) Assign(specialistID, deptID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Assignments[specialistID] = deptID
}

func (m *Store) view(t *domain.Ticket) domain.TicketView {
	v := domain.TicketView{Ticket: *t}
	if u, ok := m.Users[t.StudentID]; ok {
		v.StudentEmail = u.Email
	}
	if d, ok := m.Departments[t.DepartmentID]; ok {
		v.DepartmentName = d.Name
	}
	if holder, ok := m.Claims[t.ID]; ok {
		h := holder
		v.ClaimedBy = &h
	}
	return v
}

func (m *Store) sortedTickets() []*domain.Ticket {
	out := make([]*domain.Ticket, 0, len(m.Tickets))
	for _, t := range m.Tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// tickets

type TicketRepository struct{ *Store }

func (f TicketRepository) Create(_ context.Context, t *domain.Ticket, first *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.id()
	cp := *t
	f.Tickets[t.ID] = &cp
	if first != nil {
		first.ID = f.id()
		first.TicketID = t.ID
		first.CreatedAt = time.Now()
		f.Messages = append(f.Messages, *first)
	}
	return nil
}

func (f TicketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f TicketRepository) ListInbox(_ context.Context, filter repository.InboxFilter) ([]domain.TicketView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filter.Category != domain.InboxPersonal && filter.DepartmentID == nil {
		return []domain.TicketView{}, 0, nil
	}
	var out []domain.TicketView
	for _, t := range f.sortedTickets() {
		holder, claimed := f.Claims[t.ID]
		switch filter.Category {
		case domain.InboxDepartment:
			if t.DepartmentID != *filter.DepartmentID || !t.IsOpen() || claimed {
				continue
			}
		case domain.InboxArchived:
			if t.DepartmentID != *filter.DepartmentID || t.IsOpen() {
				continue
			}
		default:
			if !claimed || holder != filter.SpecialistID {
				continue
			}
		}
		v := f.view(t)
		if !prefixOrContains(filter.Params.Method, v.StudentEmail, filter.Params.Text["email"]) ||
			!prefixOrContains(filter.Params.Method, v.Header, filter.Params.Text["header"]) {
			continue
		}
		out = append(out, v)
	}
	return pageOf(out, filter.Page), int64(len(out)), nil
}

func (f TicketRepository) ListByStudent(_ context.Context, filter repository.StudentTicketFilter) ([]domain.TicketView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketView
	for _, t := range f.sortedTickets() {
		if t.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, f.view(t))
	}
	return pageOf(out, filter.Page), int64(len(out)), nil
}

func (f TicketRepository) Reroute(_ context.Context, ticketID, departmentID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tickets[ticketID]
	if !ok || !t.IsOpen() {
		return false, nil
	}
	t.DepartmentID = departmentID
	delete(f.Claims, ticketID)
	return true, nil
}

func (f TicketRepository) Close(_ context.Context, ticketID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Claims, ticketID)
	t, ok := f.Tickets[ticketID]
	if !ok || !t.IsOpen() {
		return false, nil
	}
	t.Status = domain.TicketStatusClosed
	return true, nil
}

// claims

type ClaimRepository struct{ *Store }

func (f ClaimRepository) Claim(_ context.Context, specialistID, ticketID int64) (*domain.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tickets[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !t.IsOpen() {
		return nil, repository.ErrTicketClosed
	}
	if holder, claimed := f.Claims[ticketID]; claimed {
		if holder == specialistID {
			return &domain.Claim{SpecialistID: specialistID, TicketID: ticketID}, nil
		}
		return nil, repository.ErrTicketAlreadyClaimed
	}
	f.Claims[ticketID] = specialistID
	return &domain.Claim{ID: f.id(), SpecialistID: specialistID, TicketID: ticketID}, nil
}

func (f ClaimRepository) Release(_ context.Context, specialistID, ticketID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if holder, ok := f.Claims[ticketID]; ok && holder == specialistID {
		delete(f.Claims, ticketID)
		return true, nil
	}
	return false, nil
}

func (f ClaimRepository) GetByTicket(_ context.Context, ticketID int64) (*domain.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	holder, ok := f.Claims[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.Claim{SpecialistID: holder, TicketID: ticketID}, nil
}

func (f ClaimRepository) CountBySpecialist(_ context.Context, specialistID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, holder := range f.Claims {
		if holder == specialistID {
			n++
		}
	}
	return n, nil
}

// specialist departments

type SpecialistDepartmentRepository struct{ *Store }

func (f SpecialistDepartmentRepository) GetBySpecialist(_ context.Context, specialistID int64) (*domain.SpecialistDepartment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dept, ok := f.Assignments[specialistID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.SpecialistDepartment{SpecialistID: specialistID, DepartmentID: dept}, nil
}

func (f SpecialistDepartmentRepository) Upsert(_ context.Context, specialistID, departmentID int64) (*domain.SpecialistDepartment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Assignments[specialistID] = departmentID
	return &domain.SpecialistDepartment{SpecialistID: specialistID, DepartmentID: departmentID}, nil
}

func (f SpecialistDepartmentRepository) Delete(_ context.Context, specialistID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Assignments[specialistID]
	delete(f.Assignments, specialistID)
	return ok, nil
}

// departments

type DepartmentRepository struct{ *Store }

func (f DepartmentRepository) Create(_ context.Context, d *domain.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Departments {
		if existing.Name == d.Name {
			return uniqueViolation
		}
	}
	d.ID = f.id()
	d.Slug = domain.Slugify(d.Name)
	cp := *d
	f.Departments[d.ID] = &cp
	return nil
}

func (f DepartmentRepository) Update(_ context.Context, d *domain.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.Departments[d.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	d.Slug = domain.Slugify(d.Name)
	existing.Name, existing.Slug = d.Name, d.Slug
	return nil
}

func (f DepartmentRepository) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Departments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.Departments, id)
	for tid, t := range f.Tickets {
		if t.DepartmentID == id {
			delete(f.Tickets, tid)
			delete(f.Claims, tid)
		}
	}
	for sid, s := range f.Subsections {
		if s.DepartmentID == id {
			delete(f.Subsections, sid)
		}
	}
	for spec, dept := range f.Assignments {
		if dept == id {
			delete(f.Assignments, spec)
		}
	}
	return nil
}

func (f DepartmentRepository) find(match func(*domain.Department) bool) (*domain.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.Departments {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f DepartmentRepository) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	return f.find(func(d *domain.Department) bool { return d.ID == id })
}

func (f DepartmentRepository) GetByName(_ context.Context, name string) (*domain.Department, error) {
	return f.find(func(d *domain.Department) bool { return d.Name == name })
}

func (f DepartmentRepository) GetBySlug(_ context.Context, slug string) (*domain.Department, error) {
	return f.find(func(d *domain.Department) bool { return d.Slug == slug })
}

func (f DepartmentRepository) ListAll(_ context.Context) ([]domain.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Department, 0, len(f.Departments))
	for _, d := range f.Departments {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f DepartmentRepository) List(ctx context.Context, filter repository.DepartmentFilter) ([]domain.Department, int64, error) {
	all, _ := f.ListAll(ctx)
	var out []domain.Department
	for _, d := range all {
		if !prefixOrContains(filter.Params.Method, d.Name, filter.Params.Text["name"]) {
			continue
		}
		if filter.Params.ID != nil && d.ID != *filter.Params.ID {
			continue
		}
		out = append(out, d)
	}
	return pageOf(out, filter.Page), int64(len(out)), nil
}

// subsections

type SubsectionRepository struct{ *Store }

func (f SubsectionRepository) Create(_ context.Context, s *domain.Subsection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Subsections {
		if existing.Name == s.Name {
			return uniqueViolation
		}
	}
	s.ID = f.id()
	cp := *s
	f.Subsections[s.ID] = &cp
	return nil
}

func (f SubsectionRepository) Rename(_ context.Context, id int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Subsections[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Name = name
	return nil
}

func (f SubsectionRepository) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Subsections[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.Subsections, id)
	return nil
}

func (f SubsectionRepository) GetByID(_ context.Context, id int64) (*domain.Subsection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Subsections[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f SubsectionRepository) ListByDepartment(_ context.Context, departmentID int64) ([]domain.Subsection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Subsection
	for _, s := range f.Subsections {
		if s.DepartmentID == departmentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// messages

type MessageRepository struct{ *Store }

func (f MessageRepository) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = f.id()
	msg.CreatedAt = time.Now()
	f.Messages = append(f.Messages, *msg)
	return nil
}

func (f MessageRepository) ListByTicket(_ context.Context, ticketID int64) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.Messages {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

// faqs

type FAQRepository struct{ *Store }

func (f FAQRepository) Create(_ context.Context, faq *domain.FAQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	faq.ID = f.id()
	cp := *faq
	f.FAQs[faq.ID] = &cp
	return nil
}

func (f FAQRepository) Update(_ context.Context, faq *domain.FAQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.FAQs[faq.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *faq
	f.FAQs[faq.ID] = &cp
	return nil
}

func (f FAQRepository) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.FAQs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.FAQs, id)
	return nil
}

func (f FAQRepository) GetByID(_ context.Context, id int64) (*domain.FAQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	faq, ok := f.FAQs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *faq
	return &cp, nil
}

func (f FAQRepository) views(match func(*domain.FAQ) bool) []domain.FAQView {
	var out []domain.FAQView
	for _, faq := range f.FAQs {
		if !match(faq) {
			continue
		}
		v := domain.FAQView{FAQ: *faq}
		if s, ok := f.Subsections[faq.SubsectionID]; ok {
			v.SubsectionName = s.Name
		}
		out = append(out, v)
	}
	return out
}

func (f FAQRepository) ListBySpecialist(_ context.Context, specialistID int64) ([]domain.FAQView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.views(func(faq *domain.FAQ) bool { return faq.SpecialistID == specialistID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f FAQRepository) ListByDepartment(_ context.Context, departmentID int64, page query.Page) ([]domain.FAQView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.views(func(faq *domain.FAQ) bool { return faq.DepartmentID == departmentID })
	sort.Slice(out, func(i, j int) bool { return out[i].Question < out[j].Question })
	return pageOf(out, page), int64(len(out)), nil
}

func (f FAQRepository) ListBySubsection(_ context.Context, subsectionID int64) ([]domain.FAQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FAQ
	for _, faq := range f.FAQs {
		if faq.SubsectionID == subsectionID {
			out = append(out, *faq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// users

type UserRepository struct{ *Store }

func (f UserRepository) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Users {
		if existing.Email == u.Email {
			return uniqueViolation
		}
	}
	u.ID = f.id()
	cp := *u
	f.Users[u.ID] = &cp
	return nil
}

func (f UserRepository) Update(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	f.Users[u.ID] = &cp
	return nil
}

func (f UserRepository) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}

func (f UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.UserView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.Users))
	for id := range f.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []domain.UserView
	for _, id := range ids {
		u := f.Users[id]
		if !prefixOrContains(filter.Params.Method, u.Email, filter.Params.Text["email"]) {
			continue
		}
		if role, ok := domain.ParseRole(filter.Params.Value("role")); ok && u.Role != role {
			continue
		}
		v := domain.UserView{User: *u}
		if dept, ok := f.Assignments[id]; ok {
			d := dept
			v.DepartmentID = &d
		}
		out = append(out, v)
	}
	return pageOf(out, filter.Page), int64(len(out)), nil
}

func (f UserRepository) Delete(_ context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.Users[id]; ok {
			delete(f.Users, id)
			delete(f.Assignments, id)
			n++
		}
	}
	return n, nil
}

// statistics

type StatisticsRepository struct{ *Store }

func (f StatisticsRepository) DepartmentTicketCounts(_ context.Context, departmentID int64) (domain.TicketCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c domain.TicketCounts
	for _, t := range f.Tickets {
		if t.DepartmentID != departmentID {
			continue
		}
		c.Total++
		if t.IsOpen() {
			c.Open++
		} else {
			c.Closed++
		}
	}
	return c, nil
}

func (f StatisticsRepository) LatestResponseAt(_ context.Context, departmentID int64) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *time.Time
	for _, m := range f.Messages {
		t, ok := f.Tickets[m.TicketID]
		if !ok || t.DepartmentID != departmentID || m.AuthorKind != domain.AuthorSpecialist {
			continue
		}
		at := m.CreatedAt
		if latest == nil || at.After(*latest) {
			latest = &at
		}
	}
	return latest, nil
}

func (f StatisticsRepository) AverageMessagesPerTicket(_ context.Context, departmentID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tickets, msgs int
	for _, t := range f.Tickets {
		if t.DepartmentID == departmentID {
			tickets++
		}
	}
	for _, m := range f.Messages {
		if t, ok := f.Tickets[m.TicketID]; ok && t.DepartmentID == departmentID {
			msgs++
		}
	}
	if tickets == 0 {
		return 0, nil
	}
	return float64(msgs) / float64(tickets), nil
}

func (f StatisticsRepository) TicketCountsByDepartment(ctx context.Context) ([]domain.DepartmentTicketCounts, error) {
	depts, _ := DepartmentRepository(f).ListAll(ctx)
	out := make([]domain.DepartmentTicketCounts, 0, len(depts))
	for _, d := range depts {
		c, _ := f.DepartmentTicketCounts(ctx, d.ID)
		out = append(out, domain.DepartmentTicketCounts{DepartmentID: d.ID, DepartmentName: d.Name, Tickets: c})
	}
	return out, nil
}

func (f StatisticsRepository) UserCountsByRole(_ context.Context) (map[domain.Role]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.Role]int64{}
	for _, u := range f.Users {
		out[u.Role]++
	}
	return out, nil
}
