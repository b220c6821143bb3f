package dto

import "time"

type CreateRequestRequest struct {
	KidID     string `json:"kid_id" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=channel video bonus"`
	SubjectID string `json:"subject_id" validate:"required,max=64"`
}

func (r CreateRequestRequest) Validate() error {
	return GetValidator().Struct(r)
}

type RequestResponse struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	SubjectID  string     `json:"subject_id"`
	KidID      *string    `json:"kid_id,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type GrantBonusRequest struct {
	Minutes   int        `json:"minutes" validate:"required,gt=0"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (r GrantBonusRequest) Validate() error {
	return GetValidator().Struct(r)
}
