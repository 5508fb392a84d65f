// Package policy decides whether a principal may perform an operation.
//
// Authorize is a pure function over the caller, the operation and a
// description of the target; it never touches storage. Check turns a
// decision into the error the HTTP adapter maps onto a status code,
// including existence hiding for non-staff callers.
package policy

import (
	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Deny means the operation is not permitted.
	Deny Decision = iota
	// Allow means the operation is permitted.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Op enumerates the operations the service exposes.
type Op int

const (
	ListCustomers Op = iota
	GetCustomer
	UpdateCustomer
	DeleteCustomer
	ListEmployees
	GetEmployee
	MutateEmployee
	CreateTicket
	ListTickets
	GetTicket
	EditTicket   // description/emergency
	UpdateTicket // assignment/completion
	DeleteTicket
)

var opNames = [...]string{
	ListCustomers:  "list customers",
	GetCustomer:    "get customer",
	UpdateCustomer: "update customer",
	DeleteCustomer: "delete customer",
	ListEmployees:  "list employees",
	GetEmployee:    "get employee",
	MutateEmployee: "mutate employee",
	CreateTicket:   "create ticket",
	ListTickets:    "list tickets",
	GetTicket:      "get ticket",
	EditTicket:     "edit ticket",
	UpdateTicket:   "update ticket",
	DeleteTicket:   "delete ticket",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Target describes the entity an operation acts on. Collection operations
// pass a nil *Target to Check.
type Target struct {
	// Exists is false when the lookup found nothing.
	Exists bool
	// CustomerID is the owning customer profile (the customer itself for
	// customer targets, the ticket's customer for tickets). Zero otherwise.
	CustomerID int64
	// Status is the ticket status; only meaningful for ticket targets.
	Status model.TicketStatus
}

// CustomerTarget describes an existing customer.
func CustomerTarget(c *model.Customer) *Target {
	return &Target{Exists: true, CustomerID: c.ID}
}

// TicketTarget describes an existing ticket.
func TicketTarget(t *model.Ticket) *Target {
	return &Target{Exists: true, CustomerID: t.CustomerID, Status: t.Status()}
}

// EmployeeTarget describes an existing employee.
func EmployeeTarget() *Target { return &Target{Exists: true} }

// Missing describes a target that was looked up and not found.
func Missing() *Target { return &Target{} }

func owns(p *model.Principal, t Target) bool {
	return !p.IsStaff && t.CustomerID != 0 && t.CustomerID == p.ProfileID
}

// Authorize applies the rule table. p must be non-nil.
func Authorize(p *model.Principal, op Op, t Target) Decision {
	staff := p.IsStaff
	allow := false
	switch op {
	case ListCustomers:
		allow = staff
	case GetCustomer:
		allow = staff || owns(p, t)
	case UpdateCustomer, DeleteCustomer:
		allow = owns(p, t)
	case ListEmployees, GetEmployee:
		allow = true
	case MutateEmployee:
		allow = false
	case CreateTicket:
		allow = !staff
	case ListTickets:
		allow = true
	case GetTicket:
		allow = staff || owns(p, t)
	case EditTicket:
		allow = staff || (owns(p, t) && t.Status == model.StatusOpen)
	case UpdateTicket, DeleteTicket:
		allow = staff
	}
	if allow {
		return Allow
	}
	return Deny
}

// Check authorizes op and returns nil, errs.ErrUnauthorized, errs.ErrNotFound
// or errs.ErrForbidden. A missing target is reported before any denial.
// Non-staff callers denied on a target they do not own see ErrNotFound.
func Check(p *model.Principal, op Op, t *Target) error {
	if p == nil {
		return errs.ErrUnauthorized
	}
	var tgt Target
	if t != nil {
		if !t.Exists {
			return errs.ErrNotFound
		}
		tgt = *t
	}
	if Authorize(p, op, tgt) == Allow {
		return nil
	}
	if t != nil && !p.IsStaff && !owns(p, tgt) && tgt.CustomerID != 0 {
		return errs.ErrNotFound
	}
	return errs.ErrForbidden
}
