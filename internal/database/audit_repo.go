package database

import (
	"encoding/json"
	"time"

	"shortlink-backend/internal/models"
)

// AuditRepo handles audit log database operations
type AuditRepo struct{}

// NewAuditRepo creates a new audit repository
func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

// Create creates a new audit log entry
func (r *AuditRepo) Create(log *models.AuditLog) error {
	result, err := DB.Exec(`
		INSERT INTO audit_logs (timestamp, user_id, username, action, target, details, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.Timestamp, log.UserID, log.Username, log.Action, log.Target, log.Details, log.IPAddress)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

// Log is a convenience method to create an audit log entry with current timestamp
func (r *AuditRepo) Log(userID int64, username, action, target string, details interface{}, ipAddress string) error {
	var detailsJSON string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			detailsJSON = "{}"
		} else {
			detailsJSON = string(b)
		}
	}

	log := &models.AuditLog{
		Timestamp: time.Now(),
		UserID:    userID,
		Username:  username,
		Action:    action,
		Target:    target,
		Details:   detailsJSON,
		IPAddress: ipAddress,
	}
	return r.Create(log)
}

// ListRecent returns the most recent audit entries for a user
func (r *AuditRepo) ListRecent(userID int64, limit int) ([]*models.AuditLog, error) {
	rows, err := DB.Query(`
		SELECT id, timestamp, user_id, username, action, target, details, ip_address
		FROM audit_logs WHERE user_id = ? ORDER BY timestamp DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		err := rows.Scan(
			&log.ID, &log.Timestamp, &log.UserID, &log.Username,
			&log.Action, &log.Target, &log.Details, &log.IPAddress,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
