package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/shutterbloom/booking-api/internal/auth"
	"github.com/shutterbloom/booking-api/internal/config"
	"github.com/shutterbloom/booking-api/internal/repository"
	"github.com/shutterbloom/booking-api/internal/utils"
)

// refreshCookieName is the HTTP-only cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

// UserRegistrar creates user accounts. Satisfied by *repository.UserRepo.
type UserRegistrar interface {
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
}

// AuthHandler bundles dependencies for the account and session endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserRegistrar
	Sessions *auth.SessionManager
}

func NewAuthHandler(cfg config.Config, users UserRegistrar, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResp struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        auth.UserSummary `json:"user"`
}

// Register handles POST /api/users/ and creates an account. The password
// must pass the strength policy and the email must be unused.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Name) < 3 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be at least 3 characters"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid email is required"})
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		log.Error().Err(err).Msg("create user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": req.Email})
}

// Login handles POST /api/login. On success it returns the access token and
// user summary, and sets the refresh token as an HTTP-only cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	s, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	h.setRefreshCookie(c, s.RefreshRaw, s.RefreshExp)
	return c.JSON(http.StatusOK, sessionResp{AccessToken: s.AccessToken, TokenType: "bearer", User: s.User})
}

// Refresh handles POST /api/refresh-token. The refresh token is read from
// the cookie, with a JSON body fallback for cookie-less clients. A valid
// token is rotated: the old record is consumed and a new cookie is set.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token not supplied"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	s, err := h.Sessions.Refresh(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
		case errors.Is(err, auth.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error().Err(err).Msg("refresh failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	h.setRefreshCookie(c, s.RefreshRaw, s.RefreshExp)
	return c.JSON(http.StatusOK, sessionResp{AccessToken: s.AccessToken, TokenType: "bearer", User: s.User})
}

// Logout handles POST /api/logout (protected). Every refresh token the user
// holds is revoked server-side and the cookie is cleared.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, userID); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("logout failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
}
