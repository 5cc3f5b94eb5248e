package model

import "time"

// Attempt is an append-only record of one eligibility check. Attempts are
// never updated or deleted.
type Attempt struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	DNI       string    `json:"dni" gorm:"size:8;index;not null"`
	IP        string    `json:"ip" gorm:"size:64"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
