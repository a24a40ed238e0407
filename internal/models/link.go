package models

import "time"

// Link represents a user-owned short link
type Link struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	URL       string    `json:"url"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLinkRequest represents the request body for creating a short link
type CreateLinkRequest struct {
	URL       string `json:"url"`
	ShortCode string `json:"short_code,omitempty"` // generated when empty
}

// UpdateLinkRequest represents the request body for updating a short link
type UpdateLinkRequest struct {
	URL       string `json:"url"`
	ShortCode string `json:"short_code"`
}
