package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"shortlink-backend/internal/auth"
	"shortlink-backend/internal/models"
)

// updateProfileHandler handles PUT /api/profile
func updateProfileHandler(c echo.Context) error {
	user := getUserFromContext(c)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "username cannot be empty",
		})
	}

	if err := authService.UpdateProfile(user.ID, req.Username); err != nil {
		c.Logger().Error("update profile error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to update profile",
		})
	}

	authService.Audit(user.ID, req.Username, models.ActionProfileUpdate, "", map[string]string{
		"old_username": user.Username,
	}, c.RealIP())

	user.Username = req.Username
	return c.JSON(http.StatusOK, user)
}

// changePasswordHandler handles PUT /api/profile/password.
// A successful change revokes every session; the client must log in again.
func changePasswordHandler(c echo.Context) error {
	user := getUserFromContext(c)

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "password should have at least 6 characters",
		})
	}
	if req.NewPassword != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "passwords don't match",
		})
	}

	if err := authService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid current password",
			})
		}
		c.Logger().Error("change password error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to change password",
		})
	}

	auth.ClearTokenCookies(c)
	authService.Audit(user.ID, user.Username, models.ActionPasswordChange, "", nil, c.RealIP())

	return c.JSON(http.StatusOK, map[string]string{
		"message": "password updated, please log in again",
	})
}
