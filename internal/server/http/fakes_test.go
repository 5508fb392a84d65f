package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
	"github.com/and161185/honeyrae/internal/service"
)

var (
	custA = &model.Principal{ID: 1, ProfileID: 10, FirstName: "Ann", LastName: "Lee"}
	staff = &model.Principal{ID: 2, ProfileID: 7, IsStaff: true, FirstName: "Sam", LastName: "Fix"}
)

type fakeAuth struct {
	registered []service.RegisterInput
	err        error
}

func (f *fakeAuth) Register(_ context.Context, in service.RegisterInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.registered = append(f.registered, in)
	return "tok-new", nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, bool, error) {
	if email == "a@x.com" && password == "p" {
		return "tok-login", true, nil
	}
	return "", false, nil
}

func (f *fakeAuth) ResolveToken(_ context.Context, raw string) (*model.Principal, error) {
	switch raw {
	case "tok-a":
		return custA, nil
	case "tok-staff":
		return staff, nil
	}
	return nil, errs.ErrUnauthorized
}

type fakeCustomers struct{ address string }

func (f *fakeCustomers) List(_ context.Context, p *model.Principal) ([]model.Customer, error) {
	if !p.IsStaff {
		return nil, errs.ErrForbidden
	}
	return []model.Customer{{ID: 10, Address: "1 Main", FirstName: "Ann", LastName: "Lee"}}, nil
}

func (f *fakeCustomers) Get(_ context.Context, p *model.Principal, id int64) (*model.Customer, error) {
	if id != 10 {
		return nil, errs.ErrNotFound
	}
	return &model.Customer{ID: 10, Address: "1 Main", FirstName: "Ann", LastName: "Lee"}, nil
}

func (f *fakeCustomers) UpdateAddress(_ context.Context, p *model.Principal, id int64, address string) error {
	f.address = address
	return nil
}

func (f *fakeCustomers) Delete(context.Context, *model.Principal, int64) error { return nil }

type fakeEmployees struct{}

func (fakeEmployees) List(context.Context, *model.Principal) ([]model.Employee, error) {
	return []model.Employee{{ID: 7, Specialty: "ovens", FirstName: "Sam", LastName: "Fix"}}, nil
}

func (fakeEmployees) Get(_ context.Context, _ *model.Principal, id int64) (*model.Employee, error) {
	return &model.Employee{ID: id, Specialty: "ovens", FirstName: "Sam", LastName: "Fix"}, nil
}

func (fakeEmployees) Mutate(context.Context, *model.Principal) error { return errs.ErrMethodNotAllowed }

type fakeTickets struct {
	status    string
	patch     model.TicketPatch
	created   []string
	updateErr error
	panicOn   int64
}

var doneAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleTicket() model.Ticket {
	emp := int64(7)
	return model.Ticket{
		ID: 5, CustomerID: 10, EmployeeID: &emp, Description: "leak", Emergency: true, DateCompleted: &doneAt,
		Customer: model.CustomerRef{ID: 10, FullName: "Ann Lee"},
		Employee: &model.EmployeeRef{ID: 7, Specialty: "ovens", FullName: "Sam Fix"},
	}
}

func (f *fakeTickets) List(_ context.Context, _ *model.Principal, status string) ([]model.Ticket, error) {
	f.status = status
	if _, ok := model.ParseStatusFilter(status); !ok {
		return nil, errs.BadRequest("unknown status filter %q", status)
	}
	return []model.Ticket{sampleTicket()}, nil
}

func (f *fakeTickets) Get(_ context.Context, _ *model.Principal, id int64) (*model.Ticket, error) {
	if id == f.panicOn {
		panic("boom")
	}
	if id != 5 {
		return nil, errs.ErrNotFound
	}
	t := sampleTicket()
	return &t, nil
}

func (f *fakeTickets) Create(_ context.Context, p *model.Principal, description string, emergency bool) (*model.Ticket, error) {
	f.created = append(f.created, description)
	return &model.Ticket{ID: 6, CustomerID: p.ProfileID, Description: description, Emergency: emergency,
		Customer: model.CustomerRef{ID: p.ProfileID, FullName: p.FullName()}}, nil
}

func (f *fakeTickets) Update(_ context.Context, _ *model.Principal, id int64, patch model.TicketPatch) (*model.Ticket, error) {
	f.patch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	t := sampleTicket()
	return &t, nil
}

func (f *fakeTickets) Delete(context.Context, *model.Principal, int64) error { return nil }

type harness struct {
	e         *echo.Echo
	auth      *fakeAuth
	customers *fakeCustomers
	tickets   *fakeTickets
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{auth: &fakeAuth{}, customers: &fakeCustomers{}, tickets: &fakeTickets{panicOn: -1}}
	srv := New(h.auth, h.customers, fakeEmployees{}, h.tickets, zaptest.NewLogger(t), Options{RequestTimeout: time.Second})
	h.e = srv.Handler()
	return h
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Token "+token)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}
