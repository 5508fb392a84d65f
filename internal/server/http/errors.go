package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/honeyrae/internal/errs"
)

type errorBody struct {
	Message string `json:"message"`
}

// classify maps an error to a status code and a client-safe message.
func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}
	kinds := []struct {
		sentinel error
		status   int
	}{
		{errs.ErrBadRequest, http.StatusBadRequest},
		{errs.ErrUnauthorized, http.StatusUnauthorized},
		{errs.ErrForbidden, http.StatusForbidden},
		{errs.ErrNotFound, http.StatusNotFound},
		{errs.ErrAlreadyExists, http.StatusConflict},
		{errs.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			if reason, ok := errs.Reason(err); ok {
				return k.status, reason
			}
			if errors.Is(err, errs.ErrInvariant) {
				return k.status, errs.ErrInvariant.Error()
			}
			return k.status, k.sentinel.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// handleError is the echo HTTPErrorHandler. It only writes the response;
// the access log records the cause.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := classify(err)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorBody{Message: msg})
	}
	if err != nil {
		s.log.Warn("write error response", zap.Error(err))
	}
}
