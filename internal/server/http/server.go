// Package httpserver exposes the service desk HTTP/JSON API on echo.
package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/service"
)

// Options tunes the HTTP layer.
type Options struct {
	RequestTimeout time.Duration
	// Ping, when set, backs /healthz with a storage check.
	Ping func(ctx context.Context) error
}

// Server wires services into echo handlers.
type Server struct {
	auth      service.AuthService
	customers service.CustomerService
	employees service.EmployeeService
	tickets   service.TicketService
	log       *zap.Logger
	opts      Options
}

// New constructs a Server with injected services.
func New(auth service.AuthService, customers service.CustomerService, employees service.EmployeeService,
	tickets service.TicketService, log *zap.Logger, opts Options) *Server {
	return &Server{auth: auth, customers: customers, employees: employees, tickets: tickets, log: log, opts: opts}
}

// Handler builds the echo instance with middleware and routes.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(RequestID(), Logging(s.log), Recover(), Timeout(s.opts.RequestTimeout))

	e.GET("/healthz", s.health)
	e.POST("/register", s.register)
	e.POST("/login", s.login)

	e.GET("/customers", s.listCustomers, s.requireToken)
	e.GET("/customers/:id", s.getCustomer, s.requireToken)
	e.PUT("/customers/:id", s.updateCustomer, s.requireToken)
	e.DELETE("/customers/:id", s.deleteCustomer, s.requireToken)

	e.GET("/employees", s.listEmployees, s.requireToken)
	e.GET("/employees/:id", s.getEmployee, s.requireToken)
	mutating := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	e.Match(mutating, "/employees", s.mutateEmployee, s.requireToken)
	e.Match(mutating, "/employees/:id", s.mutateEmployee, s.requireToken)

	e.GET("/tickets", s.listTickets, s.requireToken)
	e.POST("/tickets", s.createTicket, s.requireToken)
	e.GET("/tickets/:id", s.getTicket, s.requireToken)
	e.PUT("/tickets/:id", s.updateTicket, s.requireToken)
	e.DELETE("/tickets/:id", s.deleteTicket, s.requireToken)
	return e
}

// pathID parses the :id parameter. Non-numeric ids name nothing.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.ErrNotFound
	}
	return id, nil
}

func (s *Server) health(c echo.Context) error {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(c.Request().Context()); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			return c.String(http.StatusServiceUnavailable, "unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
