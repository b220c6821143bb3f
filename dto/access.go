package dto

// AccessCheckRequest carries everything the decision engine may need.
// Optional fields left nil are resolved by video lookup where possible.
type AccessCheckRequest struct {
	KidID      string  `json:"kid_id" validate:"required"`
	VideoID    *string `json:"video_id,omitempty"`
	ChannelID  *string `json:"channel_id,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	IsShorts   *bool   `json:"is_shorts,omitempty"`
	Title      *string `json:"title,omitempty"`
}

func (r AccessCheckRequest) Validate() error {
	return GetValidator().Struct(r)
}

// SettingsSnapshot is the per-call copy of the global parent settings the
// engine evaluates against. Injected, never read from a process-wide
// singleton, so the engine stays pure.
type SettingsSnapshot struct {
	ShortsEnabled bool   `json:"shorts_enabled"`
	BlockedWords  string `json:"blocked_words"`
}

// AccessDecision is the engine verdict. Reason is nil when allowed and one
// of the canonical reason codes otherwise. Details carries reason-specific
// context (remaining_seconds, word, request_status).
type AccessDecision struct {
	Allowed bool                   `json:"allowed"`
	Reason  *string                `json:"reason,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type AccessCheckResponse struct {
	AccessDecision
	Message string `json:"message,omitempty"`
}

// RemainingResponse distinguishes "unlimited" from a numeric remainder;
// RemainingSeconds may be negative once the budget is exceeded.
type RemainingResponse struct {
	KidID            string  `json:"kid_id"`
	CategoryID       *string `json:"category_id,omitempty"`
	Unlimited        bool    `json:"unlimited"`
	RemainingSeconds *int    `json:"remaining_seconds,omitempty"`
}
