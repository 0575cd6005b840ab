package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/shutterbloom/booking-api/internal/auth"
	"github.com/shutterbloom/booking-api/internal/model"
	"github.com/shutterbloom/booking-api/internal/repository"
)

// Context keys under which the access guard stores the resolved identity.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserName  = "user_name"
)

// UserLookup resolves a token subject to a persisted user. Satisfied by
// *repository.UserRepo.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AccessGuard returns an Echo middleware that authenticates every request
// before the handler body runs. It extracts the bearer token, verifies it
// with the codec and resolves the subject to an active user. The request
// short-circuits at the first failing condition; every verification failure
// looks the same to the client. Responses advertise the bearer scheme.
func AccessGuard(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				c.Response().Header().Set("WWW-Authenticate", "Bearer")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "credential not supplied"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := auth.VerifyAccessToken(secret, raw)
			if err != nil {
				c.Response().Header().Set("WWW-Authenticate", "Bearer")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired credential"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
				}
				log.Error().Err(err).Uint64("user_id", claims.UserID).Msg("access guard user lookup failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}

			c.Set(ContextUserID, u.ID)
			c.Set(ContextUserEmail, u.Email)
			c.Set(ContextUserName, u.Name)
			return next(c)
		}
	}
}
