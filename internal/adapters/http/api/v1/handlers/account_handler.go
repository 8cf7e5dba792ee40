package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/example/social-auth/config"
	"github.com/example/social-auth/internal/domain"
	"github.com/example/social-auth/internal/usecase"
	res "github.com/example/social-auth/pkg/http"
)

type AccountHandler struct {
	cfg          *config.Config
	orchestrator usecase.Orchestrator
}

func NewAccountHandler(cfg *config.Config, o usecase.Orchestrator) *AccountHandler {
	return &AccountHandler{cfg: cfg, orchestrator: o}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type facebookLoginRequest struct {
	AccessToken string `json:"accessToken"`
}

func (h *AccountHandler) Login(c echo.Context) error {
	req := new(loginRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	session, token, err := h.orchestrator.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	h.setRefreshCookie(c, token)
	return c.JSON(http.StatusOK, session)
}

func (h *AccountHandler) Register(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	session, token, err := h.orchestrator.Register(c.Request().Context(), req.Email, req.Username, req.DisplayName, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	h.setRefreshCookie(c, token)
	return c.JSON(http.StatusOK, session)
}

func (h *AccountHandler) GetCurrentUser(c echo.Context) error {
	session, token, err := h.orchestrator.CurrentSession(c.Request().Context(), principalFromCtx(c))
	if err != nil {
		return h.fail(c, err)
	}
	h.setRefreshCookie(c, token)
	return c.JSON(http.StatusOK, session)
}

func (h *AccountHandler) FacebookLogin(c echo.Context) error {
	req := new(facebookLoginRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c), nil)
	}
	session, token, err := h.orchestrator.FacebookLogin(c.Request().Context(), req.AccessToken)
	if err != nil {
		return h.fail(c, err)
	}
	h.setRefreshCookie(c, token)
	return c.JSON(http.StatusOK, session)
}

func (h *AccountHandler) RefreshToken(c echo.Context) error {
	cookie, err := c.Cookie(h.cfg.RefreshCookieName)
	if err != nil {
		return res.Unauthorized(c, requestIDFromCtx(c))
	}
	session, token, err := h.orchestrator.RefreshSession(c.Request().Context(), principalFromCtx(c), cookie.Value)
	if err != nil {
		return h.fail(c, err)
	}
	h.setRefreshCookie(c, token)
	return c.JSON(http.StatusOK, session)
}

func (h *AccountHandler) setRefreshCookie(c echo.Context, token *domain.RefreshToken) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.RefreshCookieName,
		Value:    token.Value,
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.RefreshCookieSecure,
		Path:     "/",
	})
}

// fail maps the usecase taxonomy onto HTTP statuses. Credential failures stay
// opaque: the body never says which check tripped.
func (h *AccountHandler) fail(c echo.Context, err error) error {
	if ve, ok := usecase.AsValidationError(err); ok {
		return res.ErrorJSON(c, http.StatusBadRequest, "validation_failed", "validation failed", requestIDFromCtx(c), ve.Fields)
	}
	switch {
	case errors.Is(err, usecase.ErrUpstreamUnavailable):
		return res.ErrorJSON(c, http.StatusBadGateway, "upstream_unavailable", "identity provider unavailable", requestIDFromCtx(c), nil)
	case errors.Is(err, usecase.ErrProvisioningFailed):
		return res.ErrorJSON(c, http.StatusInternalServerError, "provisioning_failed", "problem creating user account", requestIDFromCtx(c), nil)
	default:
		return res.Unauthorized(c, requestIDFromCtx(c))
	}
}

func principalFromCtx(c echo.Context) *usecase.Principal {
	id, _ := c.Get("account_id").(string)
	username, _ := c.Get("username").(string)
	email, _ := c.Get("email").(string)
	return &usecase.Principal{AccountID: id, Username: username, Email: email}
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
