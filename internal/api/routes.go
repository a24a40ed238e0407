package api

import (
	"github.com/labstack/echo/v4"

	"shortlink-backend/internal/auth"
	"shortlink-backend/internal/database"
	"shortlink-backend/internal/oauth"
)

var (
	authService *auth.Service
	oidcClient  *oauth.Client
	userRepo    *database.UserRepo
	linkRepo    *database.LinkRepo
)

// RegisterRoutes sets up all routes. The authentication gate is expected to
// run globally before any of these; RequireAuth only turns an anonymous
// resolution into a 401.
func RegisterRoutes(e *echo.Echo, authSvc *auth.Service, oidc *oauth.Client) {
	authService = authSvc
	oidcClient = oidc
	userRepo = database.NewUserRepo()
	linkRepo = database.NewLinkRepo()

	// Health check (public)
	e.GET("/healthz", healthCheck)

	// Public short link redirect
	e.GET("/:code", redirectHandler)

	// OIDC sign-in (public)
	e.GET("/auth/google", googleLoginHandler)
	e.GET("/auth/google/callback", googleCallbackHandler)

	api := e.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", registerHandler, auth.LoginRateLimiter.Middleware())
	authGroup.POST("/login", loginHandler, auth.LoginRateLimiter.Middleware())
	authGroup.GET("/verify-email", verifyEmailHandler)

	// Protected auth routes
	authProtected := authGroup.Group("")
	authProtected.Use(auth.RequireAuth())
	authProtected.POST("/logout", logoutHandler)
	authProtected.GET("/me", meHandler)
	authProtected.POST("/send-verification", sendVerificationHandler)
	authProtected.GET("/sessions", listSessionsHandler)
	authProtected.DELETE("/sessions/:id", revokeSessionHandler)

	// Profile routes
	profile := api.Group("/profile")
	profile.Use(auth.RequireAuth())
	profile.PUT("", updateProfileHandler)
	profile.PUT("/password", changePasswordHandler)

	// Link routes
	links := api.Group("/links")
	links.Use(auth.RequireAuth())
	links.GET("", listLinksHandler)
	links.POST("", createLinkHandler)
	links.GET("/:id", getLinkHandler)
	links.PUT("/:id", updateLinkHandler)
	links.DELETE("/:id", deleteLinkHandler)
}
