package model

import "time"

// Request is a pending channel/video/bonus ask. Transitions are monotonic:
// pending -> approved|denied, both terminal.
//
// SubjectID is type-dependent: a channel or video youtube id, or for bonus
// requests either a literal minute count or the "today" sentinel.
type Request struct {
	ID         string     `json:"id" gorm:"primaryKey;type:text;not null"`
	Type       string     `json:"type" gorm:"not null;size:20"`
	SubjectID  string     `json:"subject_id" gorm:"not null;size:64"`
	KidID      *string    `json:"kid_id,omitempty" gorm:"index"`
	Status     string     `json:"status" gorm:"not null;default:pending;size:20;index"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;index"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (r *Request) Resolved() bool {
	return r.Status != "pending"
}
