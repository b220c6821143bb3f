package handlers

import (
	"time"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/model"
)

type AccessServiceInterface interface {
	CheckAccess(req dto.AccessCheckRequest, now time.Time) (*dto.AccessDecision, error)
	LogPlayback(req dto.PlaybackLogRequest, now time.Time) error
	Heartbeat(req dto.PlaybackHeartbeatRequest, now time.Time) (bool, error)
}

type LimitsServiceInterface interface {
	RemainingSeconds(kidID string, categoryID *string, now time.Time) (*int, error)
	GrantBonus(kidID string, minutes int, expiresAt *time.Time) (*model.KidBonusTime, error)
}

type ApprovalServiceInterface interface {
	CreateRequest(req dto.CreateRequestRequest, now time.Time) (*model.Request, error)
	ApplyAction(requestID, action string, now time.Time) (*model.Request, error)
}

type DiscordServiceInterface interface {
	VerifySignature(timestamp, signatureHex string, body []byte) error
	HandleInteraction(body []byte, now time.Time) (map[string]interface{}, error)
}
