// Package service contains application services for identity, customers,
// employees and tickets.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/honeyrae/internal/cache"
	pkgcrypto "github.com/and161185/honeyrae/internal/crypto"
	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/and161185/honeyrae/internal/repository"
)

// DefaultTokenGrace is how long a rotated-out token keeps resolving.
const DefaultTokenGrace = 5 * time.Minute

// AuthService defines registration, login and token resolution.
type AuthService interface {
	// Register creates a principal with its profile and returns its first token.
	Register(ctx context.Context, in RegisterInput) (token string, err error)
	// Login checks credentials and rotates the token on success. Bad
	// credentials yield ok=false with a nil error.
	Login(ctx context.Context, email, password string) (token string, ok bool, err error)
	// ResolveToken maps a raw bearer value to its principal.
	ResolveToken(ctx context.Context, raw string) (*model.Principal, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	AccountType string
	Address     string
	Specialty   string
}

// AuthOptions tunes AuthServiceImpl.
type AuthOptions struct {
	TokenGrace          time.Duration
	AllowEmployeeSignup bool
}

type AuthServiceImpl struct {
	principals repository.PrincipalRepository
	tokens     repository.TokenRepository
	cache      *cache.TokenCache
	opts       AuthOptions
	verify     func(password string, salt, hash []byte) bool
}

// Unknown emails are checked against these so every failed login costs one
// Argon2 run.
var (
	dummySalt = make([]byte, pkgcrypto.SaltLen)
	dummyHash = make([]byte, 32)
)

// NewAuthService constructs AuthService. tc may be nil.
func NewAuthService(principals repository.PrincipalRepository, tokens repository.TokenRepository,
	tc *cache.TokenCache, opts AuthOptions) *AuthServiceImpl {
	if opts.TokenGrace < 0 {
		opts.TokenGrace = 0
	}
	return &AuthServiceImpl{principals: principals, tokens: tokens, cache: tc, opts: opts, verify: pkgcrypto.VerifyPassword}
}

func (in *RegisterInput) normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Address = strings.TrimSpace(in.Address)
	in.Specialty = strings.TrimSpace(in.Specialty)
	in.AccountType = strings.ToLower(strings.TrimSpace(in.AccountType))

	switch in.AccountType {
	case model.AccountCustomer, model.AccountEmployee:
	case "":
		return errs.BadRequest("account_type is required")
	default:
		return errs.BadRequest("account_type must be %q or %q", model.AccountCustomer, model.AccountEmployee)
	}
	required := []struct{ name, val string }{
		{"email", in.Email},
		{"password", in.Password},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
	}
	if in.AccountType == model.AccountCustomer {
		required = append(required, struct{ name, val string }{"address", in.Address})
	} else {
		required = append(required, struct{ name, val string }{"specialty", in.Specialty})
	}
	for _, f := range required {
		if f.val == "" {
			return errs.BadRequest("%s is required", f.name)
		}
	}
	if !strings.Contains(in.Email, "@") {
		return errs.BadRequest("email is malformed")
	}
	return nil
}

// Register validates the form, hashes the password and stores everything in
// one transaction.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := in.normalize(); err != nil {
		return "", err
	}
	if in.AccountType == model.AccountEmployee && !s.opts.AllowEmployeeSignup {
		return "", fmt.Errorf("employee signup disabled: %w", errs.ErrForbidden)
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return "", err
	}
	token, err := pkgcrypto.NewToken()
	if err != nil {
		return "", err
	}
	np := model.NewPrincipal{
		Email:       in.Email,
		PwdHash:     pkgcrypto.HashPassword(in.Password, salt),
		PwdSalt:     salt,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		AccountType: in.AccountType,
		Address:     in.Address,
		Specialty:   in.Specialty,
	}
	if _, err := s.principals.Register(ctx, np, pkgcrypto.HashToken(token)); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return token, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", false, nil
	}
	p, err := s.principals.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		_ = s.verify(password, dummySalt, dummyHash)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("login: %w", err)
	}
	if !s.verify(password, p.PwdSalt, p.PwdHash) {
		return "", false, nil
	}

	token, err := pkgcrypto.NewToken()
	if err != nil {
		return "", false, err
	}
	evicted, err := s.tokens.Rotate(ctx, p.ID, pkgcrypto.HashToken(token))
	if err != nil {
		return "", false, fmt.Errorf("rotate token: %w", err)
	}
	s.cache.Invalidate(ctx, p.ID, evicted)
	return token, true, nil
}

// ResolveToken looks the token hash up in the cache, then in the store.
func (s *AuthServiceImpl) ResolveToken(ctx context.Context, raw string) (*model.Principal, error) {
	if raw == "" {
		return nil, errs.ErrUnauthorized
	}
	hash := pkgcrypto.HashToken(raw)

	id, cached := s.cache.Get(ctx, hash)
	if !cached {
		var err error
		id, err = s.tokens.Resolve(ctx, hash, s.opts.TokenGrace)
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		if err != nil {
			return nil, fmt.Errorf("resolve token: %w", err)
		}
	}

	p, err := s.principals.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load principal %d: %w", id, err)
	}
	if !cached {
		s.cache.Put(ctx, hash, id)
	}
	return p, nil
}
