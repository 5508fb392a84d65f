package service

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/honeyrae/internal/model"
)

type env struct {
	clock     *fakeClock
	st        *store
	pub       *recordingPublisher
	auth      *AuthServiceImpl
	customers *CustomerServiceImpl
	employees *EmployeeServiceImpl
	tickets   *TicketServiceImpl
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	st := newStore(clock.Now)
	pub := &recordingPublisher{}
	return &env{
		clock: clock,
		st:    st,
		pub:   pub,
		auth: NewAuthService(fakePrincipals{st}, fakeTokens{st}, nil,
			AuthOptions{TokenGrace: DefaultTokenGrace, AllowEmployeeSignup: true}),
		customers: NewCustomerService(fakeCustomers{st}),
		employees: NewEmployeeService(fakeEmployees{st}),
		tickets:   NewTicketService(fakeTickets{st}, pub, clock.Now),
	}
}

// signup registers an account and returns its resolved principal.
func (e *env) signup(t *testing.T, email, accountType string) *model.Principal {
	t.Helper()
	ctx := context.Background()
	in := RegisterInput{
		Email: email, Password: "pw-" + email, FirstName: "F", LastName: email,
		AccountType: accountType, Address: "1 Main", Specialty: "fridges",
	}
	tok, err := e.auth.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	p, err := e.auth.ResolveToken(ctx, tok)
	if err != nil {
		t.Fatalf("ResolveToken(%s): %v", email, err)
	}
	return p
}

func ptr[T any](v T) *T { return &v }
