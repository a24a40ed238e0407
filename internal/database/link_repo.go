package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"shortlink-backend/internal/models"
)

var (
	ErrLinkNotFound   = errors.New("link not found")
	ErrShortCodeTaken = errors.New("short code already exists")
)

// LinkRepo handles short link database operations
type LinkRepo struct{}

// NewLinkRepo creates a new link repository
func NewLinkRepo() *LinkRepo {
	return &LinkRepo{}
}

// Create creates a new short link
func (r *LinkRepo) Create(link *models.Link) error {
	result, err := DB.Exec(`
		INSERT INTO links (short_code, url, user_id)
		VALUES (?, ?, ?)
	`, link.ShortCode, link.URL, link.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrShortCodeTaken
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id

	return nil
}

// GetByID retrieves a link by ID
func (r *LinkRepo) GetByID(id int64) (*models.Link, error) {
	return r.getOne("SELECT id, short_code, url, user_id, created_at, updated_at FROM links WHERE id = ?", id)
}

// GetByShortCode retrieves a link by its short code
func (r *LinkRepo) GetByShortCode(shortCode string) (*models.Link, error) {
	return r.getOne("SELECT id, short_code, url, user_id, created_at, updated_at FROM links WHERE short_code = ?", shortCode)
}

func (r *LinkRepo) getOne(query string, arg interface{}) (*models.Link, error) {
	link := &models.Link{}

	err := DB.QueryRow(query, arg).Scan(
		&link.ID, &link.ShortCode, &link.URL, &link.UserID,
		&link.CreatedAt, &link.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	return link, nil
}

// GetByUserID retrieves all links owned by a user, newest first
func (r *LinkRepo) GetByUserID(userID int64) ([]*models.Link, error) {
	rows, err := DB.Query(`
		SELECT id, short_code, url, user_id, created_at, updated_at
		FROM links WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.Link
	for rows.Next() {
		link := &models.Link{}
		err := rows.Scan(
			&link.ID, &link.ShortCode, &link.URL, &link.UserID,
			&link.CreatedAt, &link.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// Update modifies a link's destination and short code, scoped to the owner
func (r *LinkRepo) Update(id, userID int64, url, shortCode string) error {
	result, err := DB.Exec(`
		UPDATE links SET url = ?, short_code = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, url, shortCode, time.Now(), id, userID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrShortCodeTaken
		}
		return err
	}
	return requireRow(result, ErrLinkNotFound)
}

// Delete removes a link, scoped to the owner
func (r *LinkRepo) Delete(id, userID int64) error {
	result, err := DB.Exec("DELETE FROM links WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrLinkNotFound)
}
