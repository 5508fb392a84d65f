package repository

import (
	"context"

	"github.com/and161185/honeyrae/internal/model"
)

// TicketRepository provides access to service tickets.
type TicketRepository interface {
	// Create inserts a ticket and returns it with display data joined.
	Create(ctx context.Context, nt model.NewTicket) (*model.Ticket, error)
	// List returns tickets matching q in the canonical order.
	List(ctx context.Context, q model.TicketQuery) ([]model.Ticket, error)
	// GetByID loads a single ticket.
	GetByID(ctx context.Context, id int64) (*model.Ticket, error)
	// Mutate locks the ticket, lets fn modify it and writes the result back in
	// the same transaction. fn may run twice if the transaction is retried.
	Mutate(ctx context.Context, id int64, fn func(t *model.Ticket) error) (*model.Ticket, error)
	// Delete removes a ticket.
	Delete(ctx context.Context, id int64) error
}
