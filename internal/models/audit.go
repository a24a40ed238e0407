package models

import "time"

// AuditLog represents a record of user actions
type AuditLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Details   string    `json:"details"` // JSON string
	IPAddress string    `json:"ip_address"`
}

// Common audit actions
const (
	ActionRegister       = "user.register"
	ActionLogin          = "user.login"
	ActionLogout         = "user.logout"
	ActionEmailVerify    = "user.verify_email"
	ActionPasswordChange = "user.change_password"
	ActionProfileUpdate  = "user.update_profile"
	ActionLinkCreate     = "link.create"
	ActionLinkUpdate     = "link.update"
	ActionLinkDelete     = "link.delete"
)
