package model

import "time"

// TestSession is the server-side timer for one candidate's test run. StartTime
// is immutable once written; Completed is flipped exactly once, and only by
// the submission transaction.
type TestSession struct {
	ID string `gorm:"primarykey;size:36" json:"id"`
	// The partial unique index enforces at most one active session per dni
	// at the schema level; the service serializes creation on the dni lock.
	DNI         string     `json:"dni" gorm:"size:8;index;not null;uniqueIndex:idx_test_sessions_active_dni,where:completed = false"`
	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	Completed   bool       `json:"completed" gorm:"not null;default:false;index"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
