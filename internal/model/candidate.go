package model

import "time"

// Candidate is the externally provisioned eligibility record. This service
// only ever reads it.
type Candidate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	DNI       string    `json:"dni" gorm:"size:8;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
