package database

import (
	"database/sql"
	"errors"
	"time"

	"shortlink-backend/internal/models"
)

var ErrVerificationNotFound = errors.New("verification code not found or expired")

// VerificationRepo handles email verification code storage
type VerificationRepo struct{}

// NewVerificationRepo creates a new verification repository
func NewVerificationRepo() *VerificationRepo {
	return &VerificationRepo{}
}

// Replace stores a fresh code for the user. Any previous code for the user and
// any expired codes are removed first, so at most one live code exists per user.
func (r *VerificationRepo) Replace(userID int64, code string, ttl time.Duration) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM email_verifications WHERE expires_at < ?", time.Now()); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM email_verifications WHERE user_id = ?", userID); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO email_verifications (user_id, code, expires_at) VALUES (?, ?, ?)",
		userID, code, time.Now().Add(ttl),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByCode retrieves an unexpired verification record by its code
func (r *VerificationRepo) GetByCode(code string) (*models.EmailVerification, error) {
	v := &models.EmailVerification{}

	err := DB.QueryRow(`
		SELECT id, user_id, code, expires_at, created_at
		FROM email_verifications WHERE code = ? AND expires_at >= ?
	`, code, time.Now()).Scan(
		&v.ID, &v.UserID, &v.Code, &v.ExpiresAt, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

// DeleteAllForUser removes every verification code for the user
func (r *VerificationRepo) DeleteAllForUser(userID int64) error {
	_, err := DB.Exec("DELETE FROM email_verifications WHERE user_id = ?", userID)
	return err
}
