package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"shortlink-backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInvalid  = errors.New("session invalidated")
)

// SessionRepo handles session database operations
type SessionRepo struct{}

// NewSessionRepo creates a new session repository
func NewSessionRepo() *SessionRepo {
	return &SessionRepo{}
}

// Create inserts a new valid session. There is no per-user limit; every login
// gets its own row.
func (r *SessionRepo) Create(userID int64, ipAddress, userAgent string) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Valid:     true,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err := DB.Exec(`
		INSERT INTO sessions (id, user_id, valid, ip_address, user_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.UserID, session.Valid, session.IPAddress, session.UserAgent, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// GetByID retrieves a session by ID
func (r *SessionRepo) GetByID(id string) (*models.Session, error) {
	session := &models.Session{}

	err := DB.QueryRow(`
		SELECT id, user_id, valid, ip_address, user_agent, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(
		&session.ID, &session.UserID, &session.Valid,
		&session.IPAddress, &session.UserAgent, &session.CreatedAt, &session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return session, nil
}

// GetByUserID retrieves all sessions for a user, newest first
func (r *SessionRepo) GetByUserID(userID int64) ([]*models.Session, error) {
	rows, err := DB.Query(`
		SELECT id, user_id, valid, ip_address, user_agent, created_at, updated_at
		FROM sessions WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		err := rows.Scan(
			&session.ID, &session.UserID, &session.Valid,
			&session.IPAddress, &session.UserAgent, &session.CreatedAt, &session.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// Invalidate marks a single session invalid without deleting the row.
// Externally equivalent to deletion: the session no longer authenticates.
func (r *SessionRepo) Invalidate(id string) error {
	result, err := DB.Exec(
		"UPDATE sessions SET valid = 0, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(result, ErrSessionNotFound)
}

// DeleteAllForUser deletes every session owned by the user. Used as blanket
// revocation on logout, password change, and email verification. Deleting
// zero rows is not an error.
func (r *SessionRepo) DeleteAllForUser(userID int64) error {
	_, err := DB.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// CountByUserID returns the number of sessions for a user
func (r *SessionRepo) CountByUserID(userID int64) (int, error) {
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM sessions WHERE user_id = ?", userID).Scan(&count)
	return count, err
}
