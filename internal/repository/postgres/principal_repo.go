package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/jackc/pgx/v5"
)

// PrincipalRepo implements PrincipalRepository using PostgreSQL.
type PrincipalRepo struct{ db *DB }

// NewPrincipalRepo constructs a principal repository.
func NewPrincipalRepo(db *DB) *PrincipalRepo { return &PrincipalRepo{db: db} }

const selectPrincipal = `
SELECT p.id, p.email, p.pwd_hash, p.pwd_salt, p.first_name, p.last_name, p.is_staff,
       COALESCE(c.id, e.id, 0), p.created_at
FROM principals p
LEFT JOIN customers c ON c.principal_id = p.id
LEFT JOIN employees e ON e.principal_id = p.id`

// Register inserts the principal, its profile row and its token row.
func (r *PrincipalRepo) Register(ctx context.Context, np model.NewPrincipal, tokenHash []byte) (*model.Principal, error) {
	const insPrincipal = `
INSERT INTO principals (email, pwd_hash, pwd_salt, first_name, last_name, is_staff)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`
	const insCustomer = `INSERT INTO customers (principal_id, address) VALUES ($1, $2) RETURNING id`
	const insEmployee = `INSERT INTO employees (principal_id, specialty) VALUES ($1, $2) RETURNING id`
	const insToken = `INSERT INTO tokens (principal_id, token_hash, rotated_at) VALUES ($1, $2, now())`

	var p model.Principal
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		p = model.Principal{
			Email:     np.Email,
			PwdHash:   np.PwdHash,
			PwdSalt:   np.PwdSalt,
			FirstName: np.FirstName,
			LastName:  np.LastName,
			IsStaff:   np.IsStaff(),
		}
		err := tx.QueryRow(ctx, insPrincipal, np.Email, np.PwdHash, np.PwdSalt, np.FirstName, np.LastName, p.IsStaff).
			Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return err
		}
		if p.IsStaff {
			err = tx.QueryRow(ctx, insEmployee, p.ID, np.Specialty).Scan(&p.ProfileID)
		} else {
			err = tx.QueryRow(ctx, insCustomer, p.ID, np.Address).Scan(&p.ProfileID)
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, insToken, p.ID, tokenHash)
		return err
	})
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("email %q: %w", np.Email, errs.ErrAlreadyExists)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail selects a principal by email, ignoring case.
func (r *PrincipalRepo) GetByEmail(ctx context.Context, email string) (*model.Principal, error) {
	return r.get(ctx, selectPrincipal+` WHERE lower(p.email) = lower($1)`, email)
}

// GetByID selects a principal by id.
func (r *PrincipalRepo) GetByID(ctx context.Context, id int64) (*model.Principal, error) {
	return r.get(ctx, selectPrincipal+` WHERE p.id = $1`, id)
}

func (r *PrincipalRepo) get(ctx context.Context, q string, arg any) (*model.Principal, error) {
	var p model.Principal
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(
		&p.ID, &p.Email, &p.PwdHash, &p.PwdSalt, &p.FirstName, &p.LastName, &p.IsStaff, &p.ProfileID, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
