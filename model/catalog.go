package model

import "time"

type Category struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text;not null"`
	Name              string    `json:"name" gorm:"not null;size:100"`
	Enabled           bool      `json:"enabled" gorm:"default:true;not null"`
	DailyLimitMinutes *int      `json:"daily_limit_minutes,omitempty"` // fallback when no per-kid override exists
	CreatedAt         time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"not null"`
}

type Channel struct {
	ID         string     `json:"id" gorm:"primaryKey;type:text;not null"`
	YoutubeID  string     `json:"youtube_id" gorm:"uniqueIndex;not null;size:64"`
	Title      *string    `json:"title,omitempty"`
	CategoryID *string    `json:"category_id,omitempty" gorm:"index"`
	Allowed    bool       `json:"allowed" gorm:"default:false;not null"`
	Blocked    bool       `json:"blocked" gorm:"default:false;not null"`
	Enabled    bool       `json:"enabled" gorm:"default:true;not null"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null"`
}

type Video struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text;not null"`
	YoutubeID    string    `json:"youtube_id" gorm:"uniqueIndex;not null;size:64"`
	ChannelID    string    `json:"channel_id" gorm:"not null;index"`
	Title        string    `json:"title" gorm:"not null"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsShorts     bool      `json:"is_shorts" gorm:"default:false;not null"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
}

// VideoApproval is an ad-hoc per-video allow, independent of the channel's
// allowed flag.
type VideoApproval struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text;not null"`
	YoutubeID string    `json:"youtube_id" gorm:"uniqueIndex;not null;size:64"`
	RequestID *string   `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}
