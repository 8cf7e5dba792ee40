package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/social-auth/internal/tokenverify"
	res "github.com/example/social-auth/pkg/http"
)

type AuthMiddleware struct {
	parser tokenverify.Parser
}

func NewAuthMiddleware(parser tokenverify.Parser) *AuthMiddleware {
	return &AuthMiddleware{parser: parser}
}

// Handler extracts the bearer session token, verifies it, and stashes the
// authenticated claims in the request context.
func (m *AuthMiddleware) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return res.Unauthorized(c, requestIDFromCtx(c))
		}
		result, err := tokenverify.Verify(m.parser, parts[1], time.Now)
		if err != nil {
			return res.Unauthorized(c, requestIDFromCtx(c))
		}
		c.Set("account_id", result.AccountID)
		c.Set("username", result.Username)
		c.Set("email", result.Email)
		return next(c)
	}
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
