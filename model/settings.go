package model

import "time"

// ParentSettings is a single-row table (id = "1") holding the global toggles
// the decision engine consumes as a per-call snapshot.
type ParentSettings struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text;not null"`
	ShortsEnabled bool      `json:"shorts_enabled" gorm:"default:true;not null"`
	BlockedWords  string    `json:"blocked_words" gorm:"type:text"` // comma-separated, case-insensitive
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}
