package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the default OIDC issuer. Any spec-compliant issuer works;
// only the discovery URL changes.
const GoogleIssuer = "https://accounts.google.com"

// Config holds OIDC sign-in settings. Sign-in is disabled when ClientID is
// empty.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether OIDC sign-in is configured
func (c Config) Enabled() bool {
	return c.ClientID != ""
}

// UserInfo represents identity claims extracted from a verified ID token
type UserInfo struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Client wraps the go-oidc provider for the sign-in flow
type Client struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewClient initializes the OIDC provider via discovery
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	issuer := cfg.IssuerURL
	if issuer == "" {
		issuer = GoogleIssuer
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(initCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	return &Client{
		oauth2Config: oauth2Config,
		verifier:     verifier,
	}, nil
}

// AuthURL generates the authorization URL for the given state
func (c *Client) AuthURL(state string) string {
	return c.oauth2Config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a verified identity
func (c *Client) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	token, err := c.oauth2Config.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("token response missing id_token")
	}

	idToken, err := c.verifier.Verify(exchangeCtx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("ID token carries no email claim")
	}

	name := claims.Name
	if name == "" {
		name = claims.GivenName
	}
	if name == "" {
		name = claims.Email
	}

	return &UserInfo{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          name,
	}, nil
}

// GenerateState generates a random state parameter for the OAuth2 flow
func GenerateState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
