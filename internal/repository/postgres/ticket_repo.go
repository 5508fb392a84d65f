package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/jackc/pgx/v5"
)

// TicketRepo implements TicketRepository using PostgreSQL.
type TicketRepo struct{ db *DB }

// NewTicketRepo constructs a ticket repository.
func NewTicketRepo(db *DB) *TicketRepo { return &TicketRepo{db: db} }

const selectTicket = `
SELECT t.id, t.customer_id, t.employee_id, t.description, t.emergency, t.date_completed, t.created_at,
       cp.first_name, cp.last_name, e.specialty, ep.first_name, ep.last_name
FROM tickets t
JOIN customers c ON c.id = t.customer_id
JOIN principals cp ON cp.id = c.principal_id
LEFT JOIN employees e ON e.id = t.employee_id
LEFT JOIN principals ep ON ep.id = e.principal_id`

const ticketOrder = ` ORDER BY t.date_completed ASC NULLS FIRST, t.emergency DESC, t.created_at ASC, t.id ASC`

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(s scanner) (model.Ticket, error) {
	var (
		t                        model.Ticket
		cFirst, cLast            string
		specialty, eFirst, eLast *string
	)
	err := s.Scan(&t.ID, &t.CustomerID, &t.EmployeeID, &t.Description, &t.Emergency, &t.DateCompleted, &t.CreatedAt,
		&cFirst, &cLast, &specialty, &eFirst, &eLast)
	if err != nil {
		return model.Ticket{}, err
	}
	t.Customer = model.CustomerRef{ID: t.CustomerID, FullName: model.FullName(cFirst, cLast)}
	if t.EmployeeID != nil {
		ref := &model.EmployeeRef{ID: *t.EmployeeID}
		if specialty != nil {
			ref.Specialty = *specialty
		}
		if eFirst != nil && eLast != nil {
			ref.FullName = model.FullName(*eFirst, *eLast)
		}
		t.Employee = ref
	}
	return t, nil
}

// buildListQuery renders the filtered, ordered list statement.
func buildListQuery(q model.TicketQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.CustomerID != nil {
		args = append(args, *q.CustomerID)
		conds = append(conds, fmt.Sprintf("t.customer_id = $%d", len(args)))
	}
	switch q.Status {
	case model.FilterDone:
		conds = append(conds, "t.date_completed IS NOT NULL")
	case model.FilterUnclaimed:
		conds = append(conds, "t.employee_id IS NULL AND t.date_completed IS NULL")
	case model.FilterInProgress:
		conds = append(conds, "t.employee_id IS NOT NULL AND t.date_completed IS NULL")
	}
	sql := selectTicket
	if len(conds) > 0 {
		sql += "\nWHERE " + strings.Join(conds, " AND ")
	}
	return sql + ticketOrder, args
}

// List returns tickets matching q.
func (r *TicketRepo) List(ctx context.Context, q model.TicketQuery) ([]model.Ticket, error) {
	sql, args := buildListQuery(q)
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID selects one ticket with display data.
func (r *TicketRepo) GetByID(ctx context.Context, id int64) (*model.Ticket, error) {
	t, err := scanTicket(r.db.Pool.QueryRow(ctx, selectTicket+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create inserts an unassigned, incomplete ticket.
func (r *TicketRepo) Create(ctx context.Context, nt model.NewTicket) (*model.Ticket, error) {
	const q = `INSERT INTO tickets (customer_id, description, emergency) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, nt.CustomerID, nt.Description, nt.Emergency).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("customer %d: %w", nt.CustomerID, errs.ErrNotFound)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Mutate locks the ticket row, applies fn and persists the result.
func (r *TicketRepo) Mutate(ctx context.Context, id int64, fn func(t *model.Ticket) error) (*model.Ticket, error) {
	const sel = `
SELECT id, customer_id, employee_id, description, emergency, date_completed, created_at
FROM tickets WHERE id = $1 FOR UPDATE`
	const upd = `
UPDATE tickets SET employee_id = $2, description = $3, emergency = $4, date_completed = $5
WHERE id = $1`

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		var t model.Ticket
		err := tx.QueryRow(ctx, sel, id).
			Scan(&t.ID, &t.CustomerID, &t.EmployeeID, &t.Description, &t.Emergency, &t.DateCompleted, &t.CreatedAt)
		if err != nil {
			return notFound(err)
		}
		if err = fn(&t); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, upd, t.ID, t.EmployeeID, t.Description, t.Emergency, t.DateCompleted)
		return err
	})
	switch {
	case isForeignKeyViolation(err):
		return nil, errs.BadRequest("unknown employee")
	case isCheckViolation(err):
		return nil, errs.Invariant("a completed ticket must have an employee")
	case err != nil:
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a ticket.
func (r *TicketRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
