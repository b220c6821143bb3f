package dto

import "time"

type PlaybackLogRequest struct {
	KidID          string     `json:"kid_id" validate:"required"`
	YoutubeID      string     `json:"youtube_id" validate:"required"`
	SecondsWatched int        `json:"seconds_watched" validate:"required,gte=1"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
}

func (r PlaybackLogRequest) Validate() error {
	return GetValidator().Struct(r)
}

// PlaybackHeartbeatRequest is the periodic watch ping. A nil SecondsDelta
// defaults to 10 seconds; a nil IsPlaying defaults to true.
type PlaybackHeartbeatRequest struct {
	KidID           string     `json:"kid_id" validate:"required"`
	VideoID         string     `json:"video_id" validate:"required"`
	SecondsDelta    *int       `json:"seconds_delta,omitempty" validate:"omitempty,gte=1,lte=120"`
	PositionSeconds *int       `json:"position_seconds,omitempty" validate:"omitempty,gte=0"`
	IsPlaying       *bool      `json:"is_playing,omitempty"`
	CategoryID      *string    `json:"category_id,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
}

func (r PlaybackHeartbeatRequest) Validate() error {
	return GetValidator().Struct(r)
}

func (r PlaybackHeartbeatRequest) Playing() bool {
	return r.IsPlaying == nil || *r.IsPlaying
}

func (r PlaybackHeartbeatRequest) Delta() int {
	if r.SecondsDelta != nil {
		return *r.SecondsDelta
	}
	return 10
}
