package model

import "time"

type Kid struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text;not null"`
	Name              string    `json:"name" gorm:"not null;size:100"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	DailyLimitMinutes *int      `json:"daily_limit_minutes,omitempty"` // nil = unlimited
	BedtimeStart      *string   `json:"bedtime_start,omitempty" gorm:"size:5"`
	BedtimeEnd        *string   `json:"bedtime_end,omitempty" gorm:"size:5"`
	Pin               string    `json:"-" gorm:"size:64"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"not null"`
}

// KidSchedule is one allowed playback window for a weekday. A kid may have
// several rows per day; having none for a day means that day is unrestricted.
type KidSchedule struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text;not null"`
	KidID     string    `json:"kid_id" gorm:"not null;index"`
	DayOfWeek int       `json:"day_of_week" gorm:"not null"` // 0 = Monday .. 6 = Sunday
	StartTime string    `json:"start_time" gorm:"not null;size:5"`
	EndTime   string    `json:"end_time" gorm:"not null;size:5"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// KidCategoryLimit overrides the kid's daily limit for one category.
type KidCategoryLimit struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text;not null"`
	KidID             string    `json:"kid_id" gorm:"not null;index:idx_kid_category,unique"`
	CategoryID        string    `json:"category_id" gorm:"not null;index:idx_kid_category,unique"`
	DailyLimitMinutes int       `json:"daily_limit_minutes" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null"`
}

// KidBonusTime is an additive minute grant on top of the base budget.
// A nil ExpiresAt never expires.
type KidBonusTime struct {
	ID        string     `json:"id" gorm:"primaryKey;type:text;not null"`
	KidID     string     `json:"kid_id" gorm:"not null;index"`
	Minutes   int        `json:"minutes" gorm:"not null"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" gorm:"index"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null"`
}
