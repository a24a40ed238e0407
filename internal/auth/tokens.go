package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers bad signature, expiry, and malformed input. Callers
// treat it as absence of a credential, never as a request failure.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims is the access-token claim set. Tokens are stateless; every use
// is still cross-checked against the live user and session rows.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID        int64  `json:"uid"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	SessionID     string `json:"sid"`
}

// RefreshClaims carries only the session reference
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// TokenIssuer signs and verifies the access/refresh token pair with a single
// process-wide secret loaded at startup. Rotating the secret invalidates all
// outstanding tokens at once; validity is re-derived from session state on
// every use anyway.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer with the given secret and lifetimes
func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL returns the configured refresh token lifetime
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccessToken signs a short-lived access token for the given identity
func (t *TokenIssuer) IssueAccessToken(claims AccessClaims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(t.accessTTL))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// IssueRefreshToken signs a long-lived refresh token bound to a session
func (t *TokenIssuer) IssueRefreshToken(sessionID string) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// VerifyAccessToken parses and validates an access token
func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.verify(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token
func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.verify(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
