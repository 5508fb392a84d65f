// Package events publishes ticket lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/and161185/honeyrae/internal/model"
)

// Type names a lifecycle event.
type Type string

const (
	TicketCreated Type = "ticket.created"
	TicketUpdated Type = "ticket.updated"
	TicketDeleted Type = "ticket.deleted"
)

// DefaultQueue is the durable queue events are routed to.
const DefaultQueue = "tickets.lifecycle"

// TicketEvent is the JSON body of a published message.
type TicketEvent struct {
	Type       Type               `json:"type"`
	TicketID   int64              `json:"ticket_id"`
	CustomerID int64              `json:"customer_id"`
	EmployeeID *int64             `json:"employee_id"`
	Status     model.TicketStatus `json:"status"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// NewTicketEvent snapshots t after a committed change.
func NewTicketEvent(typ Type, t *model.Ticket, at time.Time) TicketEvent {
	return TicketEvent{
		Type:       typ,
		TicketID:   t.ID,
		CustomerID: t.CustomerID,
		EmployeeID: t.EmployeeID,
		Status:     t.Status(),
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers events on a best-effort basis. Implementations must not
// block the caller on broker outages for longer than ctx allows and never
// return delivery failures to it.
type Publisher interface {
	Publish(ctx context.Context, ev TicketEvent)
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, TicketEvent) {}
