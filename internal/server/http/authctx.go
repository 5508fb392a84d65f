package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/and161185/honeyrae/internal/model"
)

type ctxKey string

const principalKey ctxKey = "hr.principal"

// WithPrincipal stores the authenticated principal in context.
func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx fetches the authenticated principal from context.
func PrincipalFromCtx(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*model.Principal)
	return p, ok && p != nil
}

// principal returns the caller or nil for anonymous requests.
func principal(c echo.Context) *model.Principal {
	p, _ := PrincipalFromCtx(c.Request().Context())
	return p
}
