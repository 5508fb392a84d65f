// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/honeyrae/internal/model"
)

// PrincipalRepository stores identities together with their profile.
type PrincipalRepository interface {
	// Register creates the principal, its profile and its first token in one
	// transaction. Returns errs.ErrAlreadyExists when the email is taken.
	Register(ctx context.Context, np model.NewPrincipal, tokenHash []byte) (*model.Principal, error)
	// GetByEmail loads a principal by case-insensitive email.
	GetByEmail(ctx context.Context, email string) (*model.Principal, error)
	// GetByID loads a principal by id.
	GetByID(ctx context.Context, id int64) (*model.Principal, error)
}

// TokenRepository stores the single bearer token row of each principal.
type TokenRepository interface {
	// Rotate installs tokenHash as the principal's current token. The old
	// current hash becomes the previous one; the hash that falls out of the
	// row entirely is returned (nil if none).
	Rotate(ctx context.Context, principalID int64, tokenHash []byte) (evicted []byte, err error)
	// Resolve returns the principal owning tokenHash. A previous hash only
	// resolves while it was rotated out less than grace ago.
	Resolve(ctx context.Context, tokenHash []byte, grace time.Duration) (int64, error)
}
