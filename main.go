package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"shortlink-backend/internal/api"
	"shortlink-backend/internal/auth"
	"shortlink-backend/internal/certs"
	"shortlink-backend/internal/database"
	"shortlink-backend/internal/mailer"
	"shortlink-backend/internal/oauth"
)

// Token lifetimes used when the corresponding env vars are unset
const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

func main() {
	// Get database path from environment or default
	dbPath := os.Getenv("SHORTLINK_DB_PATH")
	if dbPath == "" {
		// Default to current directory for development
		dbPath = "./shortlink.db"
	}
	if !filepath.IsAbs(dbPath) {
		cwd, _ := os.Getwd()
		dbPath = filepath.Join(cwd, dbPath)
	}

	// Initialize database
	log.Printf("Initializing database at %s", dbPath)
	if err := database.Open(database.Config{Path: dbPath}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Signing secret is loaded once at startup; rotating it invalidates every
	// outstanding token at once.
	secret := os.Getenv("SHORTLINK_JWT_SECRET")
	if secret == "" {
		log.Fatal("SHORTLINK_JWT_SECRET is required")
	}

	issuer := auth.NewTokenIssuer(
		[]byte(secret),
		durationEnv("SHORTLINK_ACCESS_TTL", defaultAccessTTL),
		durationEnv("SHORTLINK_REFRESH_TTL", defaultRefreshTTL),
	)

	baseURL := os.Getenv("SHORTLINK_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	authSvc := auth.NewService(issuer, buildMailer(), baseURL)

	// OIDC sign-in is optional; skipped when no client ID is configured
	var oidcClient *oauth.Client
	oidcCfg := oauth.Config{
		IssuerURL:    os.Getenv("SHORTLINK_OIDC_ISSUER"),
		ClientID:     os.Getenv("SHORTLINK_OIDC_CLIENT_ID"),
		ClientSecret: os.Getenv("SHORTLINK_OIDC_CLIENT_SECRET"),
		RedirectURL:  baseURL + "/auth/google/callback",
	}
	if oidcCfg.Enabled() {
		var err error
		oidcClient, err = oauth.NewClient(context.Background(), oidcCfg)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC sign-in: %v", err)
		}
		log.Println("OIDC sign-in enabled")
	}

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	// Authentication gate runs on every request; it resolves the caller to
	// anonymous or a user and never fails the request itself.
	e.Use(auth.WithAuth(authSvc))

	api.RegisterRoutes(e, authSvc, oidcClient)

	// Get port from environment or default
	port := os.Getenv("SHORTLINK_PORT")
	if port == "" {
		port = "8080"
	}

	// Serve TLS directly when a cert directory is configured; token cookies
	// are Secure, so something must terminate TLS.
	if certDir := os.Getenv("SHORTLINK_TLS_DIR"); certDir != "" {
		certPath, keyPath, err := certs.EnsureCertificates(certDir)
		if err != nil {
			log.Fatalf("Failed to prepare TLS certificates: %v", err)
		}
		log.Printf("Starting shortlink backend with TLS on port %s", port)
		e.Logger.Fatal(e.StartTLS(":"+port, certPath, keyPath))
	}

	log.Printf("Starting shortlink backend on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}

// buildMailer returns the SMTP mailer when configured, otherwise a log-only
// fallback so verification flows still work in development
func buildMailer() mailer.Mailer {
	host := os.Getenv("SHORTLINK_SMTP_HOST")
	if host == "" {
		log.Println("SMTP not configured, verification emails are logged only")
		return mailer.NewLogMailer()
	}

	port := os.Getenv("SHORTLINK_SMTP_PORT")
	if port == "" {
		port = "587"
	}

	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SHORTLINK_SMTP_USERNAME"),
		Password: os.Getenv("SHORTLINK_SMTP_PASSWORD"),
		From:     os.Getenv("SHORTLINK_SMTP_FROM"),
	})
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
