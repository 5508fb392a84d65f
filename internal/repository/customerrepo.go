package repository

import (
	"context"

	"github.com/and161185/honeyrae/internal/model"
)

// CustomerRepository provides access to customer profiles.
type CustomerRepository interface {
	// List returns all customers ordered by id.
	List(ctx context.Context) ([]model.Customer, error)
	// GetByID loads a customer by profile id.
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	// UpdateAddress replaces the customer's address.
	UpdateAddress(ctx context.Context, id int64, address string) error
	// Delete removes the customer's principal with its profile, token and tickets.
	Delete(ctx context.Context, id int64) error
}

// EmployeeRepository provides read access to employee profiles.
type EmployeeRepository interface {
	// List returns all employees ordered by id.
	List(ctx context.Context) ([]model.Employee, error)
	// GetByID loads an employee by profile id.
	GetByID(ctx context.Context, id int64) (*model.Employee, error)
}
