package model

import "time"

// AccessToken is a single-use bearer credential exchanged once for the
// candidate's dni and name. Tokens are retained after use for audit.
type AccessToken struct {
	Token     string     `gorm:"primarykey;size:64" json:"token"`
	DNI       string     `json:"dni" gorm:"size:8;index;not null"`
	Name      string     `json:"name" gorm:"not null"`
	Used      bool       `json:"used" gorm:"not null;default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
}
