package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/and161185/honeyrae/internal/policy"
	"github.com/and161185/honeyrae/internal/repository"
)

// CustomerService exposes customer profiles under the access policy.
type CustomerService interface {
	List(ctx context.Context, p *model.Principal) ([]model.Customer, error)
	Get(ctx context.Context, p *model.Principal, id int64) (*model.Customer, error)
	// UpdateAddress lets a customer change their own address.
	UpdateAddress(ctx context.Context, p *model.Principal, id int64, address string) error
	// Delete removes the caller's own account with everything it owns.
	Delete(ctx context.Context, p *model.Principal, id int64) error
}

type CustomerServiceImpl struct {
	customers repository.CustomerRepository
}

// NewCustomerService constructs CustomerService.
func NewCustomerService(customers repository.CustomerRepository) *CustomerServiceImpl {
	return &CustomerServiceImpl{customers: customers}
}

// List returns every customer; staff only.
func (s *CustomerServiceImpl) List(ctx context.Context, p *model.Principal) ([]model.Customer, error) {
	if err := policy.Check(p, policy.ListCustomers, nil); err != nil {
		return nil, err
	}
	out, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// load fetches a customer and applies the policy for op.
func (s *CustomerServiceImpl) load(ctx context.Context, p *model.Principal, op policy.Op, id int64) (*model.Customer, error) {
	if p == nil {
		return nil, errs.ErrUnauthorized
	}
	c, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, policy.Check(p, op, policy.Missing())
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	if err := policy.Check(p, op, policy.CustomerTarget(c)); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one customer.
func (s *CustomerServiceImpl) Get(ctx context.Context, p *model.Principal, id int64) (*model.Customer, error) {
	return s.load(ctx, p, policy.GetCustomer, id)
}

// UpdateAddress replaces the address of the caller's own profile.
func (s *CustomerServiceImpl) UpdateAddress(ctx context.Context, p *model.Principal, id int64, address string) error {
	if _, err := s.load(ctx, p, policy.UpdateCustomer, id); err != nil {
		return err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return errs.BadRequest("address is required")
	}
	if err := s.customers.UpdateAddress(ctx, id, address); err != nil {
		return fmt.Errorf("update customer %d: %w", id, err)
	}
	return nil
}

// Delete removes the caller's account.
func (s *CustomerServiceImpl) Delete(ctx context.Context, p *model.Principal, id int64) error {
	if _, err := s.load(ctx, p, policy.DeleteCustomer, id); err != nil {
		return err
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	return nil
}
