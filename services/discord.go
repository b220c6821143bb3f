package services

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/kidtube-labs/kidtube_api/shared"
)

// DiscordService is the remote action gateway: it authenticates signed
// interaction payloads and routes the embedded action into the approval
// workflow or the bonus ledger. Verification fails closed: any error during
// it is a rejection, never "no opinion".
type DiscordService struct {
	context.DefaultService

	approvalSvc *ApprovalService
	limitsSvc   *LimitsService

	publicKey ed25519.PublicKey
}

const DISCORD_SVC = "discord_svc"

func (svc DiscordService) Id() string {
	return DISCORD_SVC
}

func (svc *DiscordService) Configure(ctx *context.Context) error {
	if keyHex := os.Getenv("DISCORD_PUBLIC_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return fmt.Errorf("invalid DISCORD_PUBLIC_KEY: %w", err)
		}
		svc.publicKey = key
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *DiscordService) Start() error {
	svc.approvalSvc = svc.Service(APPROVAL_SVC).(*ApprovalService)
	svc.limitsSvc = svc.Service(LIMITS_SVC).(*LimitsService)
	return nil
}

// VerifySignature checks the ed25519 signature over timestamp || body.
// Missing headers, a misconfigured key, or a bad signature all reject the
// call before any state change.
func (svc *DiscordService) VerifySignature(timestamp, signatureHex string, body []byte) error {
	if timestamp == "" || signatureHex == "" {
		return shared.NewAuthenticationError(fmt.Errorf("missing signature headers"), "Missing signature headers")
	}
	if len(svc.publicKey) != ed25519.PublicKeySize {
		return shared.NewAuthenticationError(fmt.Errorf("verification key not configured"), "Signature verification unavailable")
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return shared.NewAuthenticationError(err, "Invalid request signature")
	}

	message := append([]byte(timestamp), body...)
	if !ed25519.Verify(svc.publicKey, message, signature) {
		return shared.NewAuthenticationError(fmt.Errorf("signature mismatch"), "Invalid request signature")
	}
	return nil
}

// ==================== ACTION DECODING ====================

type RemoteActionKind int

const (
	RemoteActionUnknown RemoteActionKind = iota
	RemoteActionResolveRequest
	RemoteActionGrantBonus
)

// RemoteAction is the decoded form of a <domain>:<id>:<verb> identifier.
// Anything that fails to decode lands on the Unknown kind, which dispatch
// treats as inert rather than "probably harmless".
type RemoteAction struct {
	Kind      RemoteActionKind
	SubjectID string // request id or kid id, depending on kind
	Verb      string // approve|deny, or a bonus code
}

func parseRemoteAction(customID string) RemoteAction {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return RemoteAction{Kind: RemoteActionUnknown}
	}

	domain, subjectID, verb := parts[0], parts[1], parts[2]
	if subjectID == "" {
		return RemoteAction{Kind: RemoteActionUnknown}
	}

	switch domain {
	case "request":
		if verb != shared.RequestActionApprove && verb != shared.RequestActionDeny {
			return RemoteAction{Kind: RemoteActionUnknown}
		}
		return RemoteAction{Kind: RemoteActionResolveRequest, SubjectID: subjectID, Verb: verb}
	case "bonus":
		return RemoteAction{Kind: RemoteActionGrantBonus, SubjectID: subjectID, Verb: verb}
	}
	return RemoteAction{Kind: RemoteActionUnknown}
}

// ==================== INTERACTION HANDLING ====================

type interactionPayload struct {
	Type int `json:"type"`
	Data struct {
		CustomID string `json:"custom_id"`
	} `json:"data"`
}

const (
	interactionTypePing = 1

	responseTypePong      = 1
	responseTypeEphemeral = 4
	ephemeralFlag         = 64
)

// HandleInteraction processes an already-verified interaction body. The
// caller must have run VerifySignature first.
func (svc *DiscordService) HandleInteraction(body []byte, now time.Time) (map[string]interface{}, error) {
	var payload interactionPayload
	if err := shared.UnmarshalJSON(body, &payload); err != nil {
		return nil, shared.NewValidationError(err, "Malformed interaction payload")
	}

	if payload.Type == interactionTypePing {
		return map[string]interface{}{"type": responseTypePong}, nil
	}

	svc.dispatch(parseRemoteAction(payload.Data.CustomID), now)

	return map[string]interface{}{
		"type": responseTypeEphemeral,
		"data": map[string]interface{}{
			"content": "Action processed",
			"flags":   ephemeralFlag,
		},
	}, nil
}

func (svc *DiscordService) dispatch(action RemoteAction, now time.Time) {
	switch action.Kind {
	case RemoteActionResolveRequest:
		// Idempotent by construction: resolved requests are terminal, so a
		// replayed button press changes nothing.
		if _, err := svc.approvalSvc.ApplyAction(action.SubjectID, action.Verb, now); err != nil {
			remoteActionsTotal.WithLabelValues("resolve", "error").Inc()
			log.WithFields(log.Fields{"request_id": action.SubjectID, "error": err.Error()}).
				Warn("Remote request resolution failed")
			return
		}
		remoteActionsTotal.WithLabelValues("resolve", "ok").Inc()

	case RemoteActionGrantBonus:
		// Deliberately not idempotent: each valid decoded bonus action
		// grants again, replays included.
		minutes, err := bonusMinutesFromCode(action.Verb, now)
		if err != nil {
			remoteActionsTotal.WithLabelValues("bonus", "unrecognized").Inc()
			log.WithFields(log.Fields{"code": action.Verb}).Warn("Unrecognized bonus code ignored")
			return
		}
		if _, err := svc.limitsSvc.GrantBonus(action.SubjectID, minutes, nil); err != nil {
			remoteActionsTotal.WithLabelValues("bonus", "error").Inc()
			log.WithFields(log.Fields{"kid_id": action.SubjectID, "error": err.Error()}).
				Warn("Remote bonus grant failed")
			return
		}
		remoteActionsTotal.WithLabelValues("bonus", "ok").Inc()

	default:
		remoteActionsTotal.WithLabelValues("unknown", "ignored").Inc()
	}
}
