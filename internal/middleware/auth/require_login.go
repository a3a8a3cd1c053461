// Package auth guards routes with the session cookies.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/tokens"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"

	deniedMessage = "Akses ditolak. Silakan login terlebih dahulu."
)

var ErrNoUser = errors.New("no authenticated user")

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

// AutoRefresh accepts a valid access cookie and, when it has expired,
// silently rotates the refresh cookie before letting the request through.
type AutoRefresh struct {
	Tokens    *tokens.Issuer
	Refresher Refresher
}

func NewAutoRefresh(issuer *tokens.Issuer, refresher Refresher) *AutoRefresh {
	return &AutoRefresh{Tokens: issuer, Refresher: refresher}
}

func (m *AutoRefresh) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "require_auth")

		if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
			claims, err := m.Tokens.ParseAccess(ck.Value)
			if err == nil {
				setUserContext(c, claims)
				return next(c)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				l.Warn("access_token_invalid", "status", 401, "error", err)
				return deny(c)
			}
		}

		ck, err := c.Cookie(tokens.RefreshCookie)
		if err != nil || ck.Value == "" {
			return deny(c)
		}

		pair, err := m.Refresher.Refresh(c.Request().Context(), ck.Value)
		if err != nil {
			l.Warn("auto_refresh_failed", "status", 401, "error", err)
			return deny(c)
		}
		for _, cookie := range tokens.SessionCookies(pair) {
			c.SetCookie(cookie)
		}

		claims, err := m.Tokens.ParseAccess(pair.AccessToken)
		if err != nil {
			return deny(c)
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func deny(c echo.Context) error {
	for _, cookie := range tokens.ClearSessionCookies() {
		c.SetCookie(cookie)
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": deniedMessage})
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(userIDKey, claims.Subject)
	c.Set(emailKey, claims.Email)
}

// UserID returns the id stored by RequireAuth.
func UserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(userIDKey).(string)
	if !ok || s == "" {
		return uuid.Nil, ErrNoUser
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}
