package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"shortlink-backend/internal/auth"
	"shortlink-backend/internal/database"
	"shortlink-backend/internal/models"
	"shortlink-backend/internal/oauth"
)

const oauthStateCookie = "oauth_state"

// googleLoginHandler handles GET /auth/google
func googleLoginHandler(c echo.Context) error {
	if oidcClient == nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "OIDC sign-in is not configured",
		})
	}

	state := oauth.GenerateState()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	return c.Redirect(http.StatusFound, oidcClient.AuthURL(state))
}

// googleCallbackHandler handles GET /auth/google/callback.
// The identity provider vouches for the email, so the account is created
// pre-verified; afterwards the flow joins the normal session + token path.
func googleCallbackHandler(c echo.Context) error {
	if oidcClient == nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "OIDC sign-in is not configured",
		})
	}

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "state mismatch",
		})
	}
	c.SetCookie(&http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "missing authorization code",
		})
	}

	info, err := oidcClient.Exchange(c.Request().Context(), code)
	if err != nil {
		c.Logger().Error("OIDC exchange error: ", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "sign-in failed",
		})
	}

	user, err := findOrCreateOAuthUser(info)
	if err != nil {
		c.Logger().Error("OIDC user resolution error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "sign-in failed",
		})
	}

	pair, err := authService.IssueSession(user, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		c.Logger().Error("OIDC session error: ", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "sign-in failed",
		})
	}

	auth.SetTokenCookies(c, authService.Issuer(), pair.AccessToken, pair.RefreshToken)
	authService.Audit(user.ID, user.Username, models.ActionLogin, "oidc", nil, c.RealIP())

	return c.Redirect(http.StatusFound, "/")
}

// findOrCreateOAuthUser resolves the local account for a verified identity
func findOrCreateOAuthUser(info *oauth.UserInfo) (*models.User, error) {
	user, err := userRepo.GetByEmail(info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	// No local password; an unguessable hash keeps password login closed
	// for this account until the user sets one.
	passwordHash, err := auth.HashPassword(oauth.GenerateState())
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Username:      info.Name,
		Email:         info.Email,
		PasswordHash:  passwordHash,
		EmailVerified: info.EmailVerified,
	}
	if err := userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
