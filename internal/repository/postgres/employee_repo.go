package postgres

import (
	"context"

	"github.com/and161185/honeyrae/internal/model"
)

// EmployeeRepo implements EmployeeRepository using PostgreSQL.
type EmployeeRepo struct{ db *DB }

// NewEmployeeRepo constructs an employee repository.
func NewEmployeeRepo(db *DB) *EmployeeRepo { return &EmployeeRepo{db: db} }

const selectEmployee = `
SELECT e.id, e.principal_id, e.specialty, p.first_name, p.last_name
FROM employees e
JOIN principals p ON p.id = e.principal_id`

// List returns all employees.
func (r *EmployeeRepo) List(ctx context.Context) ([]model.Employee, error) {
	rows, err := r.db.Pool.Query(ctx, selectEmployee+` ORDER BY e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Employee{}
	for rows.Next() {
		var e model.Employee
		if err = rows.Scan(&e.ID, &e.PrincipalID, &e.Specialty, &e.FirstName, &e.LastName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID selects an employee by profile id.
func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*model.Employee, error) {
	var e model.Employee
	err := r.db.Pool.QueryRow(ctx, selectEmployee+` WHERE e.id = $1`, id).
		Scan(&e.ID, &e.PrincipalID, &e.Specialty, &e.FirstName, &e.LastName)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}
