package models

import "time"

// Profile holds the display identity and rewards balance of a user.
type Profile struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Callsign  string    `json:"callsign"`
	Avatar    string    `json:"avatar"`
	XP        int64     `json:"xp" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
