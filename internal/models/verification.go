package models

import "time"

// EmailVerification represents a pending email verification code.
// At most one live code exists per user; issuing a new one replaces it.
type EmailVerification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Code      string    `json:"-"` // Never expose in JSON
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
