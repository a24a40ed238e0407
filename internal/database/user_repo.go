package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"shortlink-backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepo handles user database operations
type UserRepo struct{}

// NewUserRepo creates a new user repository
func NewUserRepo() *UserRepo {
	return &UserRepo{}
}

// Create creates a new user
func (r *UserRepo) Create(user *models.User) error {
	result, err := DB.Exec(`
		INSERT INTO users (username, email, password_hash, email_verified)
		VALUES (?, ?, ?, ?)
	`, user.Username, user.Email, user.PasswordHash, user.EmailVerified)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepo) GetByID(id int64) (*models.User, error) {
	return r.getOne("SELECT id, username, email, password_hash, email_verified, created_at, updated_at FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepo) GetByEmail(email string) (*models.User, error) {
	return r.getOne("SELECT id, username, email, password_hash, email_verified, created_at, updated_at FROM users WHERE email = ?", email)
}

func (r *UserRepo) getOne(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}

	err := DB.QueryRow(query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUsername updates a user's display name
func (r *UserRepo) UpdateUsername(id int64, username string) error {
	result, err := DB.Exec(
		"UPDATE users SET username = ?, updated_at = ? WHERE id = ?",
		username, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(result, ErrUserNotFound)
}

// UpdatePassword replaces a user's password hash
func (r *UserRepo) UpdatePassword(id int64, passwordHash string) error {
	result, err := DB.Exec(
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(result, ErrUserNotFound)
}

// UpdateEmailVerified sets the email-verified flag
func (r *UserRepo) UpdateEmailVerified(id int64, verified bool) error {
	result, err := DB.Exec(
		"UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?",
		verified, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(result, ErrUserNotFound)
}

// Count returns the total number of users
func (r *UserRepo) Count() (int, error) {
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// requireRow converts a zero-row update into the given sentinel error
func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
