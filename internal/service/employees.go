package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/and161185/honeyrae/internal/policy"
	"github.com/and161185/honeyrae/internal/repository"
)

// EmployeeService exposes the read-only employee directory.
type EmployeeService interface {
	List(ctx context.Context, p *model.Principal) ([]model.Employee, error)
	Get(ctx context.Context, p *model.Principal, id int64) (*model.Employee, error)
	// Mutate answers every create, update or delete attempt. Employees are
	// managed only through registration.
	Mutate(ctx context.Context, p *model.Principal) error
}

type EmployeeServiceImpl struct {
	employees repository.EmployeeRepository
}

// NewEmployeeService constructs EmployeeService.
func NewEmployeeService(employees repository.EmployeeRepository) *EmployeeServiceImpl {
	return &EmployeeServiceImpl{employees: employees}
}

// List returns every employee.
func (s *EmployeeServiceImpl) List(ctx context.Context, p *model.Principal) ([]model.Employee, error) {
	if err := policy.Check(p, policy.ListEmployees, nil); err != nil {
		return nil, err
	}
	out, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// Get returns one employee.
func (s *EmployeeServiceImpl) Get(ctx context.Context, p *model.Principal, id int64) (*model.Employee, error) {
	if p == nil {
		return nil, errs.ErrUnauthorized
	}
	e, err := s.employees.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, policy.Check(p, policy.GetEmployee, policy.Missing())
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	if err := policy.Check(p, policy.GetEmployee, policy.EmployeeTarget()); err != nil {
		return nil, err
	}
	return e, nil
}

// Mutate is denied for everyone; authenticated callers learn that the
// method is not supported rather than that they lack permission.
func (s *EmployeeServiceImpl) Mutate(_ context.Context, p *model.Principal) error {
	err := policy.Check(p, policy.MutateEmployee, policy.EmployeeTarget())
	if errors.Is(err, errs.ErrForbidden) {
		return errs.ErrMethodNotAllowed
	}
	return err
}
