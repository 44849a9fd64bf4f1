// Package models defines the persisted record types.
package models

import "time"

// SubmissionRecord is the audit entry for one submitted copy operation.
// The session and all rate data live in memory only; this row is the
// durable trace of what was sent upstream and how it went.
type SubmissionRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	PropertyID string    `json:"property_id"`
	RoomTypeID string    `json:"room_type_id"`
	SourceDate string    `json:"source_date"`
	TargetDate string    `json:"target_date"`
	TargetYear int       `json:"target_year"`
	RateAmount float64   `json:"rate_amount"`
	Success    bool      `json:"success"`
	Error      *string   `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
