package service

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/events"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/and161185/honeyrae/internal/repository"
)

// store is an in-memory backend shared by the fakes below so that
// registration, tokens, customers and tickets see the same data.
type store struct {
	mu sync.Mutex

	now func() time.Time

	principals []*model.Principal
	addresses  map[int64]string // customer id -> address
	specialty  map[int64]string // employee id -> specialty
	tokens     map[int64]*tokenRow
	tickets    map[int64]*model.Ticket

	nextPrincipal, nextCustomer, nextEmployee, nextTicket int64
}

type tokenRow struct {
	cur, prev []byte
	rotatedAt time.Time
}

func newStore(now func() time.Time) *store {
	return &store{
		now:       now,
		addresses: map[int64]string{},
		specialty: map[int64]string{},
		tokens:    map[int64]*tokenRow{},
		tickets:   map[int64]*model.Ticket{},
	}
}

type fakePrincipals struct{ s *store }
type fakeTokens struct{ s *store }
type fakeCustomers struct{ s *store }
type fakeEmployees struct{ s *store }
type fakeTickets struct{ s *store }

var (
	_ repository.PrincipalRepository = fakePrincipals{}
	_ repository.TokenRepository     = fakeTokens{}
	_ repository.CustomerRepository  = fakeCustomers{}
	_ repository.EmployeeRepository  = fakeEmployees{}
	_ repository.TicketRepository    = fakeTickets{}
)

func (f fakePrincipals) Register(_ context.Context, np model.NewPrincipal, tokenHash []byte) (*model.Principal, error) {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.principals {
		if strings.EqualFold(p.Email, np.Email) {
			return nil, errs.ErrAlreadyExists
		}
	}
	s.nextPrincipal++
	p := &model.Principal{
		ID: s.nextPrincipal, Email: np.Email, PwdHash: np.PwdHash, PwdSalt: np.PwdSalt,
		FirstName: np.FirstName, LastName: np.LastName, IsStaff: np.IsStaff(), CreatedAt: s.now(),
	}
	if p.IsStaff {
		s.nextEmployee++
		p.ProfileID = s.nextEmployee
		s.specialty[p.ProfileID] = np.Specialty
	} else {
		s.nextCustomer++
		p.ProfileID = s.nextCustomer
		s.addresses[p.ProfileID] = np.Address
	}
	s.principals = append(s.principals, p)
	s.tokens[p.ID] = &tokenRow{cur: tokenHash, rotatedAt: s.now()}
	c := *p
	return &c, nil
}

func (f fakePrincipals) GetByEmail(_ context.Context, email string) (*model.Principal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.principals {
		if strings.EqualFold(p.Email, email) {
			c := *p
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f fakePrincipals) GetByID(_ context.Context, id int64) (*model.Principal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p := f.s.principal(id); p != nil {
		c := *p
		return &c, nil
	}
	return nil, errs.ErrNotFound
}

func (s *store) principal(id int64) *model.Principal {
	for _, p := range s.principals {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *store) profile(staff bool, id int64) *model.Principal {
	for _, p := range s.principals {
		if p.IsStaff == staff && p.ProfileID == id {
			return p
		}
	}
	return nil
}

func (f fakeTokens) Rotate(_ context.Context, principalID int64, tokenHash []byte) ([]byte, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.tokens[principalID]
	if !ok {
		f.s.tokens[principalID] = &tokenRow{cur: tokenHash, rotatedAt: f.s.now()}
		return nil, nil
	}
	evicted := row.prev
	row.prev, row.cur, row.rotatedAt = row.cur, tokenHash, f.s.now()
	return evicted, nil
}

func (f fakeTokens) Resolve(_ context.Context, tokenHash []byte, grace time.Duration) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, row := range f.s.tokens {
		if bytes.Equal(row.cur, tokenHash) {
			return id, nil
		}
		if row.prev != nil && bytes.Equal(row.prev, tokenHash) && f.s.now().Sub(row.rotatedAt) < grace {
			return id, nil
		}
	}
	return 0, errs.ErrNotFound
}

func (f fakeCustomers) customer(p *model.Principal) model.Customer {
	return model.Customer{ID: p.ProfileID, PrincipalID: p.ID, Address: f.s.addresses[p.ProfileID],
		FirstName: p.FirstName, LastName: p.LastName}
}

func (f fakeCustomers) List(context.Context) ([]model.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []model.Customer{}
	for _, p := range f.s.principals {
		if !p.IsStaff {
			out = append(out, f.customer(p))
		}
	}
	return out, nil
}

func (f fakeCustomers) GetByID(_ context.Context, id int64) (*model.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p := f.s.profile(false, id); p != nil {
		c := f.customer(p)
		return &c, nil
	}
	return nil, errs.ErrNotFound
}

func (f fakeCustomers) UpdateAddress(_ context.Context, id int64, address string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.profile(false, id) == nil {
		return errs.ErrNotFound
	}
	f.s.addresses[id] = address
	return nil
}

func (f fakeCustomers) Delete(_ context.Context, id int64) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(false, id)
	if p == nil {
		return errs.ErrNotFound
	}
	kept := s.principals[:0]
	for _, q := range s.principals {
		if q != p {
			kept = append(kept, q)
		}
	}
	s.principals = kept
	delete(s.tokens, p.ID)
	delete(s.addresses, id)
	for tid, t := range s.tickets {
		if t.CustomerID == id {
			delete(s.tickets, tid)
		}
	}
	return nil
}

func (f fakeEmployees) List(context.Context) ([]model.Employee, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []model.Employee{}
	for _, p := range f.s.principals {
		if p.IsStaff {
			out = append(out, model.Employee{ID: p.ProfileID, PrincipalID: p.ID,
				Specialty: f.s.specialty[p.ProfileID], FirstName: p.FirstName, LastName: p.LastName})
		}
	}
	return out, nil
}

func (f fakeEmployees) GetByID(_ context.Context, id int64) (*model.Employee, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p := f.s.profile(true, id); p != nil {
		return &model.Employee{ID: id, PrincipalID: p.ID, Specialty: f.s.specialty[id],
			FirstName: p.FirstName, LastName: p.LastName}, nil
	}
	return nil, errs.ErrNotFound
}

// view fills display data the way the SQL joins do.
func (s *store) view(t *model.Ticket) model.Ticket {
	out := *t
	if c := s.profile(false, t.CustomerID); c != nil {
		out.Customer = model.CustomerRef{ID: t.CustomerID, FullName: c.FullName()}
	}
	out.Employee = nil
	if t.EmployeeID != nil {
		ref := &model.EmployeeRef{ID: *t.EmployeeID, Specialty: s.specialty[*t.EmployeeID]}
		if e := s.profile(true, *t.EmployeeID); e != nil {
			ref.FullName = e.FullName()
		}
		out.Employee = ref
	}
	return out
}

func (f fakeTickets) Create(_ context.Context, nt model.NewTicket) (*model.Ticket, error) {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile(false, nt.CustomerID) == nil {
		return nil, errs.ErrNotFound
	}
	s.nextTicket++
	t := &model.Ticket{ID: s.nextTicket, CustomerID: nt.CustomerID, Description: nt.Description,
		Emergency: nt.Emergency, CreatedAt: s.now()}
	s.tickets[t.ID] = t
	v := s.view(t)
	return &v, nil
}

func (f fakeTickets) List(_ context.Context, q model.TicketQuery) ([]model.Ticket, error) {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Ticket{}
	for _, t := range s.tickets {
		if q.CustomerID != nil && t.CustomerID != *q.CustomerID {
			continue
		}
		switch q.Status {
		case model.FilterDone:
			if t.DateCompleted == nil {
				continue
			}
		case model.FilterUnclaimed:
			if t.EmployeeID != nil || t.DateCompleted != nil {
				continue
			}
		case model.FilterInProgress:
			if t.EmployeeID == nil || t.DateCompleted != nil {
				continue
			}
		}
		out = append(out, s.view(t))
	}
	slices.SortFunc(out, listOrder)
	return out, nil
}

// listOrder mirrors the postgres listing: date_completed ASC NULLS FIRST,
// emergency DESC, created_at ASC, id ASC.
func listOrder(a, b model.Ticket) int {
	switch {
	case (a.DateCompleted == nil) != (b.DateCompleted == nil):
		if a.DateCompleted == nil {
			return -1
		}
		return 1
	case a.DateCompleted != nil && !a.DateCompleted.Equal(*b.DateCompleted):
		return a.DateCompleted.Compare(*b.DateCompleted)
	case a.Emergency != b.Emergency:
		if a.Emergency {
			return -1
		}
		return 1
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return cmp.Compare(a.ID, b.ID)
}

func (f fakeTickets) GetByID(_ context.Context, id int64) (*model.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	v := f.s.view(t)
	return &v, nil
}

// Mutate emulates the row lock, the employee FK and the completion CHECK.
func (f fakeTickets) Mutate(_ context.Context, id int64, fn func(t *model.Ticket) error) (*model.Ticket, error) {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tickets[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	work := *cur
	work.Customer, work.Employee = model.CustomerRef{}, nil
	if err := fn(&work); err != nil {
		return nil, err
	}
	if work.EmployeeID != nil && s.profile(true, *work.EmployeeID) == nil {
		return nil, errs.BadRequest("unknown employee")
	}
	if work.DateCompleted != nil && work.EmployeeID == nil {
		return nil, errs.Invariant("a completed ticket must have an employee")
	}
	*cur = work
	v := s.view(cur)
	return &v, nil
}

func (f fakeTickets) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.tickets[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.s.tickets, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TicketEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.TicketEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
