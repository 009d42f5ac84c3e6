package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

// Handler serves login and current-caller lookup.
type Handler struct {
	tokens    *TokenIssuer
	users     UserStore
	passwords *PasswordManager
}

func NewHandler(tokens *TokenIssuer, users UserStore, passwords *PasswordManager) *Handler {
	return &Handler{tokens: tokens, users: users, passwords: passwords}
}

// RegisterRoutes mounts /auth under api. /auth/login is public; /auth/me
// relies on the JWT middleware having run.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/login", h.Login)
	g.GET("/me", h.Me)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password are required")
	}

	user, err := Authenticate(c.Request().Context(), h.users, h.passwords, req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return apperrors.NewUnauthorizedError("Incorrect email or password")
	}
	if err != nil {
		return apperrors.NewInternalError("authenticate", err)
	}

	token, _, err := h.tokens.Issue(user.Email)
	if err != nil {
		return apperrors.NewInternalError("issue token", err)
	}
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// MeResponse is the current caller plus the tiers its role grants.
type MeResponse struct {
	Caller
	Tiers []Tier `json:"tiers"`
}

func (h *Handler) Me(c echo.Context) error {
	caller := CallerFromContext(c.Request().Context())
	if caller == nil {
		return apperrors.NewUnauthorizedError("Not authenticated")
	}
	tiers := caller.Tiers()
	if tiers == nil {
		tiers = []Tier{}
	}
	return c.JSON(http.StatusOK, MeResponse{Caller: *caller, Tiers: tiers})
}
