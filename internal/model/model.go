// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"
)

// Account types accepted at registration.
const (
	AccountCustomer = "customer"
	AccountEmployee = "employee"
)

// Principal is an authenticated identity with exactly one profile.
type Principal struct {
	ID        int64
	Email     string // registration casing; compared case-insensitively
	PwdHash   []byte // Argon2id(password, PwdSalt)
	PwdSalt   []byte
	FirstName string
	LastName  string
	IsStaff   bool
	ProfileID int64 // customers.id when !IsStaff, employees.id otherwise
	CreatedAt time.Time
}

// FullName joins first and last name the way every JSON shape shows it.
func (p Principal) FullName() string { return FullName(p.FirstName, p.LastName) }

// FullName is first + " " + last.
func FullName(first, last string) string { return first + " " + last }

// NewPrincipal is a registration intent. Exactly one of Address/Specialty is
// meaningful depending on AccountType.
type NewPrincipal struct {
	Email       string
	PwdHash     []byte
	PwdSalt     []byte
	FirstName   string
	LastName    string
	AccountType string
	Address     string
	Specialty   string
}

// IsStaff reports the staff flag derived from the account type.
func (n NewPrincipal) IsStaff() bool { return n.AccountType == AccountEmployee }

// Customer is a non-staff principal's profile.
type Customer struct {
	ID          int64
	PrincipalID int64
	Address     string
	FirstName   string
	LastName    string
}

// Employee is a staff principal's profile.
type Employee struct {
	ID          int64
	PrincipalID int64
	Specialty   string
	FirstName   string
	LastName    string
}

// TicketStatus is derived from (EmployeeID, DateCompleted).
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusDone       TicketStatus = "DONE"
	StatusIllegal    TicketStatus = "ILLEGAL"
)

// StatusOf projects the lifecycle fields onto a status.
func StatusOf(employeeID *int64, dateCompleted *time.Time) TicketStatus {
	switch {
	case employeeID == nil && dateCompleted == nil:
		return StatusOpen
	case employeeID != nil && dateCompleted == nil:
		return StatusInProgress
	case employeeID != nil && dateCompleted != nil:
		return StatusDone
	default:
		return StatusIllegal
	}
}

// Ticket is a repair request. Customer and Employee carry display data
// joined on read; EmployeeID and Employee are nil for unassigned tickets.
type Ticket struct {
	ID            int64
	CustomerID    int64
	EmployeeID    *int64
	Description   string
	Emergency     bool
	DateCompleted *time.Time
	CreatedAt     time.Time

	Customer CustomerRef
	Employee *EmployeeRef
}

// Status returns the derived lifecycle status.
func (t Ticket) Status() TicketStatus { return StatusOf(t.EmployeeID, t.DateCompleted) }

// CustomerRef is the customer summary embedded in a ticket.
type CustomerRef struct {
	ID       int64
	FullName string
}

// EmployeeRef is the employee summary embedded in a ticket.
type EmployeeRef struct {
	ID        int64
	Specialty string
	FullName  string
}

// NewTicket is a creation intent after validation.
type NewTicket struct {
	CustomerID  int64
	Description string
	Emergency   bool
}

// StatusFilter is the list filter chosen by the status query parameter.
type StatusFilter string

const (
	FilterNone       StatusFilter = ""
	FilterAll        StatusFilter = "all"
	FilterDone       StatusFilter = "done"
	FilterUnclaimed  StatusFilter = "unclaimed"
	FilterInProgress StatusFilter = "inprogress"
)

// ParseStatusFilter accepts the documented values; ok is false otherwise.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch f := StatusFilter(strings.TrimSpace(s)); f {
	case FilterNone, FilterAll, FilterDone, FilterUnclaimed, FilterInProgress:
		return f, true
	default:
		return FilterNone, false
	}
}

// TicketQuery is what the ticket store needs to list tickets.
// CustomerID restricts the result to one customer when set.
type TicketQuery struct {
	CustomerID *int64
	Status     StatusFilter
}

// TicketPatch is a partial update. A Set flag distinguishes "absent" from
// "present and null" for the nullable lifecycle fields.
type TicketPatch struct {
	EmployeeSet bool
	EmployeeID  *int64

	DateCompletedSet bool
	DateCompleted    *time.Time
	CompletedNow     bool // client sent the "now" sentinel

	Description *string
	Emergency   *bool
}

// TouchesLifecycle reports whether the patch changes assignment or completion.
func (p TicketPatch) TouchesLifecycle() bool { return p.EmployeeSet || p.DateCompletedSet }

// Empty reports whether the patch carries no field at all.
func (p TicketPatch) Empty() bool {
	return !p.TouchesLifecycle() && p.Description == nil && p.Emergency == nil
}
