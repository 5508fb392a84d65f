package postgres

import (
	"context"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
)

// CustomerRepo implements CustomerRepository using PostgreSQL.
type CustomerRepo struct{ db *DB }

// NewCustomerRepo constructs a customer repository.
func NewCustomerRepo(db *DB) *CustomerRepo { return &CustomerRepo{db: db} }

const selectCustomer = `
SELECT c.id, c.principal_id, c.address, p.first_name, p.last_name
FROM customers c
JOIN principals p ON p.id = c.principal_id`

// List returns all customers.
func (r *CustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.db.Pool.Query(ctx, selectCustomer+` ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err = rows.Scan(&c.ID, &c.PrincipalID, &c.Address, &c.FirstName, &c.LastName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID selects a customer by profile id.
func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.Pool.QueryRow(ctx, selectCustomer+` WHERE c.id = $1`, id).
		Scan(&c.ID, &c.PrincipalID, &c.Address, &c.FirstName, &c.LastName)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// UpdateAddress overwrites the address of one customer.
func (r *CustomerRepo) UpdateAddress(ctx context.Context, id int64, address string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE customers SET address = $2 WHERE id = $1`, id, address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the owning principal; the schema cascades to the profile,
// the token row and the customer's tickets.
func (r *CustomerRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM principals WHERE id = (SELECT principal_id FROM customers WHERE id = $1)`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
