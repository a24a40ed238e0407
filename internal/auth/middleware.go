package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"shortlink-backend/internal/models"
)

// Context keys for storing user data
const (
	ContextKeyUser    = "user"
	ContextKeySession = "session"
)

// WithAuth resolves the caller's identity on every request. The outcome is
// always anonymous or authenticated-as-user, possibly with rotated cookies;
// the middleware itself never produces an error response.
//
// Resolution order:
//  1. No token cookies: anonymous.
//  2. Access cookie present: verify it, then cross-check the referenced user
//     and session. A failed verification clears both cookies and resolves
//     anonymous without consulting the refresh token (fail-closed).
//  3. Refresh cookie only: verify, re-resolve session and user, rotate both
//     tokens for the same session, set fresh cookies.
//
// Any unexpected failure, storage errors included, clears the cookies and
// falls through to anonymous.
func WithAuth(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			resolveAuthentication(c, svc)
			return next(c)
		}
	}
}

func resolveAuthentication(c echo.Context, svc *Service) {
	accessToken := readCookie(c, CookieAccessToken)
	refreshToken := readCookie(c, CookieRefreshToken)

	if accessToken == "" && refreshToken == "" {
		return
	}

	if accessToken != "" {
		claims, err := svc.Issuer().VerifyAccessToken(accessToken)
		if err != nil {
			ClearTokenCookies(c)
			return
		}

		user, session, err := svc.Authenticate(claims)
		if err != nil {
			ClearTokenCookies(c)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeySession, session)
		return
	}

	user, session, pair, err := svc.Refresh(refreshToken)
	if err != nil {
		ClearTokenCookies(c)
		return
	}

	SetTokenCookies(c, svc.Issuer(), pair.AccessToken, pair.RefreshToken)
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeySession, session)
}

// RequireAuth rejects requests that did not resolve to a user. Must run after
// WithAuth; the denial lives here, never in the gate itself.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUserFromContext(c) == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "please log in",
				})
			}
			return next(c)
		}
	}
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionFromContext retrieves the current session from the context
func GetSessionFromContext(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
