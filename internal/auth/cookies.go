package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Cookie names carried by every authenticated client
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
)

// SetTokenCookies sets both token cookies with max-ages matching the
// corresponding token lifetimes.
func SetTokenCookies(c echo.Context, issuer *TokenIssuer, accessToken, refreshToken string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieAccessToken,
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(issuer.AccessTTL().Seconds()),
	})
	c.SetCookie(&http.Cookie{
		Name:     CookieRefreshToken,
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(issuer.RefreshTTL().Seconds()),
	})
}

// ClearTokenCookies clears both token cookies. Used on every invalidation
// path, not just logout.
func ClearTokenCookies(c echo.Context) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   -1,
		})
	}
}

// readCookie returns the named cookie value or empty string
func readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
