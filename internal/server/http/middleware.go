package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/honeyrae/internal/errs"
)

// HeaderRequestID carries the correlation id.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns a correlation id to every request and echoes it in the
// response, except on credential-bearing endpoints and 401 answers.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderRequestID)
			if id == "" || len(id) > 64 {
				id = uuid.Must(uuid.NewV4()).String()
			}
			c.Set(requestIDKey, id)

			res := c.Response()
			res.Before(func() {
				if res.Status == http.StatusUnauthorized || credentialPath(c.Path()) {
					return
				}
				res.Header().Set(HeaderRequestID, id)
			})
			return next(c)
		}
	}
}

func credentialPath(p string) bool { return p == "/register" || p == "/login" }

func requestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// Logging logs one line per request: method, route, status, duration, peer
// and correlation id. Server errors go on the same line at error level with
// the cause. Bodies are never logged.
func Logging(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", c.RealIP()),
				zap.String("request_id", requestID(c)),
			}
			if p := principal(c); p != nil {
				fields = append(fields, zap.Int64("principal_id", p.ID))
			}
			if err != nil && status >= http.StatusInternalServerError {
				fields = append(fields, zap.Error(err))
				var pe *panicError
				if errors.As(err, &pe) {
					fields = append(fields, zap.ByteString("stack", pe.stack))
				}
				log.Error("http", fields...)
				return nil
			}
			log.Info("http", fields...)
			return nil
		}
	}
}

// panicError carries a recovered panic to the access log.
type panicError struct {
	reason any
	stack  []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.reason) }

// Recover turns a handler panic into an error, which becomes a 500.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &panicError{reason: r, stack: debug.Stack()}
				}
			}()
			return next(c)
		}
	}
}

// Timeout bounds the request context. Zero disables it.
func Timeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// tokenFromHeader extracts the value of "Authorization: Token <value>".
func tokenFromHeader(h string) (string, error) {
	scheme, value, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Token") {
		return "", errs.ErrUnauthorized
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errs.ErrUnauthorized
	}
	return value, nil
}

// requireToken resolves the caller and stores it in the request context.
func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := tokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return err
		}
		p, err := s.auth.ResolveToken(c.Request().Context(), raw)
		if err != nil {
			return err
		}
		c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
		return next(c)
	}
}
