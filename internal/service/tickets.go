package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/events"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/and161185/honeyrae/internal/policy"
	"github.com/and161185/honeyrae/internal/repository"
)

// MaxDescriptionLen limits ticket descriptions, in characters.
const MaxDescriptionLen = 4096

// TicketService manages the ticket lifecycle under the access policy.
type TicketService interface {
	// List returns the caller's visible tickets filtered by status.
	List(ctx context.Context, p *model.Principal, status string) ([]model.Ticket, error)
	Get(ctx context.Context, p *model.Principal, id int64) (*model.Ticket, error)
	// Create opens a ticket owned by the calling customer.
	Create(ctx context.Context, p *model.Principal, description string, emergency bool) (*model.Ticket, error)
	// Update applies a partial change inside one locked transaction.
	Update(ctx context.Context, p *model.Principal, id int64, patch model.TicketPatch) (*model.Ticket, error)
	Delete(ctx context.Context, p *model.Principal, id int64) error
}

type TicketServiceImpl struct {
	tickets repository.TicketRepository
	events  events.Publisher
	now     func() time.Time
}

// NewTicketService constructs TicketService. pub and now may be nil.
func NewTicketService(tickets repository.TicketRepository, pub events.Publisher, now func() time.Time) *TicketServiceImpl {
	if pub == nil {
		pub = events.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &TicketServiceImpl{tickets: tickets, events: pub, now: now}
}

func cleanDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errs.BadRequest("description is required")
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLen {
		return "", errs.BadRequest("description exceeds %d characters", MaxDescriptionLen)
	}
	return s, nil
}

// List scopes customers to their own tickets whatever the filter.
func (s *TicketServiceImpl) List(ctx context.Context, p *model.Principal, status string) ([]model.Ticket, error) {
	if err := policy.Check(p, policy.ListTickets, nil); err != nil {
		return nil, err
	}
	f, ok := model.ParseStatusFilter(status)
	if !ok {
		return nil, errs.BadRequest("unknown status filter %q", status)
	}
	q := model.TicketQuery{Status: f}
	if !p.IsStaff {
		id := p.ProfileID
		q.CustomerID = &id
	}
	out, err := s.tickets.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return out, nil
}

func (s *TicketServiceImpl) load(ctx context.Context, p *model.Principal, op policy.Op, id int64) (*model.Ticket, error) {
	if p == nil {
		return nil, errs.ErrUnauthorized
	}
	t, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, policy.Check(p, op, policy.Missing())
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	if err := policy.Check(p, op, policy.TicketTarget(t)); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns one ticket.
func (s *TicketServiceImpl) Get(ctx context.Context, p *model.Principal, id int64) (*model.Ticket, error) {
	return s.load(ctx, p, policy.GetTicket, id)
}

// Create inserts an OPEN ticket for the caller.
func (s *TicketServiceImpl) Create(ctx context.Context, p *model.Principal, description string, emergency bool) (*model.Ticket, error) {
	if err := policy.Check(p, policy.CreateTicket, nil); err != nil {
		return nil, err
	}
	desc, err := cleanDescription(description)
	if err != nil {
		return nil, err
	}
	t, err := s.tickets.Create(ctx, model.NewTicket{CustomerID: p.ProfileID, Description: desc, Emergency: emergency})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	s.events.Publish(ctx, events.NewTicketEvent(events.TicketCreated, t, s.now()))
	return t, nil
}

// Update runs the policy and the transition rules against the locked row.
func (s *TicketServiceImpl) Update(ctx context.Context, p *model.Principal, id int64, patch model.TicketPatch) (*model.Ticket, error) {
	if p == nil {
		return nil, errs.ErrUnauthorized
	}
	if patch.Empty() {
		return nil, errs.BadRequest("no fields to update")
	}
	if patch.Description != nil {
		desc, err := cleanDescription(*patch.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &desc
	}
	op := policy.EditTicket
	if patch.TouchesLifecycle() {
		op = policy.UpdateTicket
	}

	t, err := s.tickets.Mutate(ctx, id, func(t *model.Ticket) error {
		if err := policy.Check(p, op, policy.TicketTarget(t)); err != nil {
			return err
		}
		return applyPatch(t, patch, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", id, err)
	}
	s.events.Publish(ctx, events.NewTicketEvent(events.TicketUpdated, t, s.now()))
	return t, nil
}

// applyPatch mutates t and rejects results that break the lifecycle.
func applyPatch(t *model.Ticket, patch model.TicketPatch, now time.Time) error {
	prev := t.Status()

	if patch.EmployeeSet {
		t.EmployeeID = patch.EmployeeID
	}
	if patch.DateCompletedSet {
		if patch.CompletedNow {
			ts := now.UTC()
			t.DateCompleted = &ts
		} else {
			t.DateCompleted = patch.DateCompleted
		}
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Emergency != nil {
		t.Emergency = *patch.Emergency
	}

	next := t.Status()
	switch {
	case next == model.StatusIllegal:
		return errs.Invariant("date_completed requires an assigned employee")
	case prev == model.StatusDone && next == model.StatusOpen:
		return errs.Invariant("a done ticket must be reopened (clear date_completed) before it is unassigned")
	}
	return nil
}

// Delete removes a ticket; staff only.
func (s *TicketServiceImpl) Delete(ctx context.Context, p *model.Principal, id int64) error {
	t, err := s.load(ctx, p, policy.DeleteTicket, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}
	s.events.Publish(ctx, events.NewTicketEvent(events.TicketDeleted, t, s.now()))
	return nil
}
