package models

import "time"

// Session represents one authenticated login. A user may hold any number of
// concurrent sessions; revocation deletes or invalidates the row, never the
// tokens that reference it.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Valid     bool      `json:"valid"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
