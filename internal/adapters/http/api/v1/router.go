package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/example/social-auth/internal/adapters/http/api/v1/handlers"
)

type Router struct {
	handlers *handlers.AccountHandler
	authMW   echo.MiddlewareFunc
}

func NewRouter(h *handlers.AccountHandler, authMW echo.MiddlewareFunc) *Router {
	return &Router{handlers: h, authMW: authMW}
}

func (r *Router) Register(g *echo.Group) {
	account := g.Group("/account")
	account.POST("/login", r.handlers.Login)
	account.POST("/register", r.handlers.Register)
	account.POST("/fbLogin", r.handlers.FacebookLogin)

	protected := account.Group("", r.authMW)
	protected.GET("", r.handlers.GetCurrentUser)
	protected.POST("/refreshToken", r.handlers.RefreshToken)
}
