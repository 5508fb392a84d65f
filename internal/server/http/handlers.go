package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/service"
)

// --- Auth ---

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return err
	}
	token, err := s.auth.Register(c.Request().Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		AccountType: req.AccountType,
		Address:     req.Address,
		Specialty:   req.Specialty,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return err
	}
	token, ok, err := s.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Valid: ok, Token: token})
}

// --- Customers ---

func (s *Server) listCustomers(c echo.Context) error {
	list, err := s.customers.List(c.Request().Context(), principal(c))
	if err != nil {
		return err
	}
	out := make([]customerJSON, 0, len(list))
	for _, cu := range list {
		out = append(out, toCustomerJSON(cu))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getCustomer(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cu, err := s.customers.Get(c.Request().Context(), principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerJSON(*cu))
}

func (s *Server) updateCustomer(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req customerUpdateRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return err
	}
	if req.Address == nil {
		return errs.BadRequest("address is required")
	}
	if err := s.customers.UpdateAddress(c.Request().Context(), principal(c), id, *req.Address); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteCustomer(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.customers.Delete(c.Request().Context(), principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Employees ---

func (s *Server) listEmployees(c echo.Context) error {
	list, err := s.employees.List(c.Request().Context(), principal(c))
	if err != nil {
		return err
	}
	out := make([]employeeJSON, 0, len(list))
	for _, e := range list {
		out = append(out, toEmployeeJSON(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	e, err := s.employees.Get(c.Request().Context(), principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeJSON(*e))
}

func (s *Server) mutateEmployee(c echo.Context) error {
	return s.employees.Mutate(c.Request().Context(), principal(c))
}

// --- Tickets ---

func (s *Server) listTickets(c echo.Context) error {
	list, err := s.tickets.List(c.Request().Context(), principal(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	out := make([]ticketJSON, 0, len(list))
	for _, t := range list {
		out = append(out, toTicketJSON(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createTicket(c echo.Context) error {
	in, err := parseTicketCreate(c.Request().Body)
	if err != nil {
		return err
	}
	t, err := s.tickets.Create(c.Request().Context(), principal(c), in.Description, in.Emergency)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTicketJSON(*t))
}

func (s *Server) getTicket(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := s.tickets.Get(c.Request().Context(), principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTicketJSON(*t))
}

func (s *Server) updateTicket(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	patch, err := parseTicketPatch(c.Request().Body)
	if err != nil {
		return err
	}
	if _, err := s.tickets.Update(c.Request().Context(), principal(c), id, patch); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteTicket(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(c.Request().Context(), principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
