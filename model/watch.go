package model

import "time"

// WatchLog is append-only: playback log and heartbeat calls insert rows,
// nothing in this service ever updates or deletes them.
type WatchLog struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text;not null"`
	KidID          string    `json:"kid_id" gorm:"not null;index:idx_watch_kid_started"`
	VideoID        string    `json:"video_id" gorm:"not null;index"`
	CategoryID     *string   `json:"category_id,omitempty" gorm:"index"`
	SecondsWatched int       `json:"seconds_watched" gorm:"not null"`
	StartedAt      time.Time `json:"started_at" gorm:"not null;index:idx_watch_kid_started"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null"`
}
