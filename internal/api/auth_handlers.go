package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"shortlink-backend/internal/auth"
	"shortlink-backend/internal/database"
	"shortlink-backend/internal/models"
)

// registerHandler handles POST /api/auth/register
func registerHandler(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "username, email and password are required",
		})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "password should have at least 6 characters",
		})
	}

	user, err := authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "email already exists",
			})
		}
		c.Logger().Error("register error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "registration failed",
		})
	}

	authService.Audit(user.ID, user.Username, models.ActionRegister, user.Email, nil, c.RealIP())

	return c.JSON(http.StatusCreated, user)
}

// loginHandler handles POST /api/auth/login
func loginHandler(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "email and password are required",
		})
	}

	user, pair, err := authService.Login(req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid email or password",
			})
		}
		c.Logger().Error("login error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "authentication failed",
		})
	}

	auth.SetTokenCookies(c, authService.Issuer(), pair.AccessToken, pair.RefreshToken)
	auth.LoginRateLimiter.RecordSuccess(c.RealIP())
	authService.Audit(user.ID, user.Username, models.ActionLogin, "", nil, c.RealIP())

	return c.JSON(http.StatusOK, user)
}

// logoutHandler handles POST /api/auth/logout
func logoutHandler(c echo.Context) error {
	user := getUserFromContext(c)

	auth.ClearTokenCookies(c)

	if err := authService.Logout(user.ID); err != nil {
		c.Logger().Error("logout error: ", err)
	}
	authService.Audit(user.ID, user.Username, models.ActionLogout, "", nil, c.RealIP())

	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// meHandler handles GET /api/auth/me
func meHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":    getUserFromContext(c),
		"session": auth.GetSessionFromContext(c),
	})
}

// sendVerificationHandler handles POST /api/auth/send-verification
func sendVerificationHandler(c echo.Context) error {
	user := getUserFromContext(c)

	if err := authService.SendVerificationEmail(user.ID); err != nil {
		if errors.Is(err, auth.ErrAlreadyVerified) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "email already verified",
			})
		}
		c.Logger().Error("send verification error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to send verification email",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "verification email sent",
	})
}

// verifyEmailHandler handles GET /api/auth/verify-email?code=...
// Verification revokes every session, so the client must log in again.
func verifyEmailHandler(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "missing verification code",
		})
	}

	user, err := authService.VerifyEmail(code)
	if err != nil {
		if errors.Is(err, database.ErrVerificationNotFound) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid or expired verification code",
			})
		}
		c.Logger().Error("verify email error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "email verification failed",
		})
	}

	auth.ClearTokenCookies(c)
	authService.Audit(user.ID, user.Username, models.ActionEmailVerify, user.Email, nil, c.RealIP())

	return c.JSON(http.StatusOK, map[string]string{
		"message": "account verified, please log in again",
	})
}

// listSessionsHandler handles GET /api/auth/sessions
func listSessionsHandler(c echo.Context) error {
	user := getUserFromContext(c)

	sessions, err := authService.Sessions(user.ID)
	if err != nil {
		c.Logger().Error("list sessions error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list sessions",
		})
	}

	return c.JSON(http.StatusOK, sessions)
}

// revokeSessionHandler handles DELETE /api/auth/sessions/:id
func revokeSessionHandler(c echo.Context) error {
	user := getUserFromContext(c)
	sessionID := c.Param("id")

	if err := authService.RevokeSession(sessionID, user.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "session not found",
			})
		case errors.Is(err, auth.ErrNotSessionOwner):
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "cannot revoke another user's session",
			})
		default:
			c.Logger().Error("revoke session error: ", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to revoke session",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "session revoked",
	})
}
