package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

// AccessService is the decision engine. Checks run in a fixed priority
// order and the first failure wins, so a kid outside allowed hours always
// sees a schedule or bedtime denial before any budget or approval message:
//
//	schedule -> bedtime -> budget -> shorts -> blocked channel
//	         -> word filter -> approval
type AccessService struct {
	context.DefaultService

	sqlSvc      *SqliteService
	scheduleSvc *ScheduleService
	limitsSvc   *LimitsService
}

const ACCESS_SVC = "access_svc"

func (svc AccessService) Id() string {
	return ACCESS_SVC
}

func (svc *AccessService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AccessService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.scheduleSvc = svc.Service(SCHEDULE_SVC).(*ScheduleService)
	svc.limitsSvc = svc.Service(LIMITS_SVC).(*LimitsService)
	return nil
}

// CheckAccess evaluates with a settings snapshot read at call time.
func (svc *AccessService) CheckAccess(req dto.AccessCheckRequest, now time.Time) (*dto.AccessDecision, error) {
	settings, err := svc.sqlSvc.GetParentSettings()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	snapshot := dto.SettingsSnapshot{
		ShortsEnabled: settings.ShortsEnabled,
		BlockedWords:  settings.BlockedWords,
	}
	return svc.CheckAccessWithSettings(req, snapshot, now)
}

// CheckAccessWithSettings is the engine proper. The settings snapshot is
// injected so the evaluation is reproducible and independently testable.
func (svc *AccessService) CheckAccessWithSettings(req dto.AccessCheckRequest, settings dto.SettingsSnapshot, now time.Time) (*dto.AccessDecision, error) {
	kid, err := svc.sqlSvc.GetKid(req.KidID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if kid == nil {
		return nil, shared.NewNotFoundError(fmt.Errorf("kid %s", req.KidID), "Kid not found")
	}

	inSchedule, err := svc.scheduleSvc.InSchedule(req.KidID, now)
	if err != nil {
		return nil, err
	}
	if !inSchedule {
		return svc.deny(shared.ReasonSchedule, nil), nil
	}

	if svc.scheduleSvc.InBedtime(kid, now) {
		return svc.deny(shared.ReasonBedtime, nil), nil
	}

	resolved, err := svc.resolveVideoContext(req)
	if err != nil {
		return nil, err
	}

	remaining, err := svc.limitsSvc.RemainingSeconds(req.KidID, resolved.categoryID, now)
	if err != nil {
		return nil, err
	}
	if remaining != nil && *remaining <= 0 {
		reason := shared.ReasonDailyLimit
		hasOverride, err := svc.limitsSvc.HasCategoryOverride(req.KidID, resolved.categoryID)
		if err != nil {
			return nil, err
		}
		if hasOverride {
			reason = shared.ReasonCategoryLimit
		}
		return svc.deny(reason, map[string]interface{}{"remaining_seconds": *remaining}), nil
	}

	if resolved.isShorts && !settings.ShortsEnabled {
		return svc.deny(shared.ReasonShortsDisabled, nil), nil
	}

	if resolved.channel != nil && resolved.channel.Blocked {
		return svc.deny(shared.ReasonBlockedChannel, nil), nil
	}

	if word := matchBlockedWord(resolved.title, settings.BlockedWords); word != "" {
		return svc.deny(shared.ReasonWordFilter, map[string]interface{}{"word": word}), nil
	}

	if req.VideoID != nil {
		decision, err := svc.checkVideoApproval(*req.VideoID, resolved.channel)
		if err != nil {
			return nil, err
		}
		if decision != nil {
			return decision, nil
		}
	}

	accessDecisionsTotal.WithLabelValues("allowed").Inc()
	return &dto.AccessDecision{Allowed: true}, nil
}

// resolvedContext is the video-centric view after lookups. Values supplied
// by the caller are never overwritten by lookup results, except is_shorts:
// when the video record can answer, the record is authoritative.
type resolvedContext struct {
	channel    *model.Channel
	categoryID *string
	title      string
	isShorts   bool
}

func (svc *AccessService) resolveVideoContext(req dto.AccessCheckRequest) (*resolvedContext, error) {
	resolved := &resolvedContext{
		categoryID: req.CategoryID,
	}
	if req.Title != nil {
		resolved.title = *req.Title
	}
	if req.IsShorts != nil {
		resolved.isShorts = *req.IsShorts
	}

	if req.VideoID != nil {
		video, err := svc.sqlSvc.GetVideoByYoutubeID(*req.VideoID)
		if err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		if video != nil {
			resolved.isShorts = video.IsShorts
			if req.Title == nil {
				resolved.title = video.Title
			}

			channel, err := svc.sqlSvc.GetChannel(video.ChannelID)
			if err != nil {
				return nil, svc.sqlSvc.HandleError(err)
			}
			resolved.channel = channel
			if req.CategoryID == nil && channel != nil {
				resolved.categoryID = channel.CategoryID
			}
		}
	}

	if resolved.channel == nil && req.ChannelID != nil {
		channel, err := svc.sqlSvc.GetChannelByYoutubeID(*req.ChannelID)
		if err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		resolved.channel = channel
		if req.CategoryID == nil && channel != nil {
			resolved.categoryID = channel.CategoryID
		}
	}

	return resolved, nil
}

// checkVideoApproval enforces that a concrete video needs an allowed channel
// or an ad-hoc per-video approval. Returns nil when the video passes.
func (svc *AccessService) checkVideoApproval(videoID string, channel *model.Channel) (*dto.AccessDecision, error) {
	if channel != nil && channel.Allowed {
		return nil, nil
	}

	approval, err := svc.sqlSvc.GetVideoApproval(videoID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if approval != nil {
		return nil, nil
	}

	// "none" lets the caller distinguish never-asked from asked-and-waiting
	// and asked-and-denied.
	requestStatus := "none"
	latest, err := svc.sqlSvc.GetLatestRequestForSubject(shared.RequestTypeVideo, videoID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if latest != nil {
		requestStatus = latest.Status
	}

	return svc.deny(shared.ReasonPendingApproval, map[string]interface{}{
		"request_status": requestStatus,
	}), nil
}

func (svc *AccessService) deny(reason string, details map[string]interface{}) *dto.AccessDecision {
	accessDecisionsTotal.WithLabelValues(reason).Inc()
	log.WithFields(log.Fields{"reason": reason}).Debug("Playback denied")
	r := reason
	return &dto.AccessDecision{Allowed: false, Reason: &r, Details: details}
}

// ==================== PLAYBACK ORCHESTRATION ====================

// LogPlayback records a watch event after a full access evaluation.
func (svc *AccessService) LogPlayback(req dto.PlaybackLogRequest, now time.Time) error {
	video, categoryID, err := svc.lookupVideo(req.YoutubeID)
	if err != nil {
		return err
	}

	if err := svc.assertAllowed(req.KidID, video.YoutubeID, categoryID, now); err != nil {
		return err
	}

	return svc.limitsSvc.LogWatch(req.KidID, video.ID, req.SecondsWatched, categoryID, req.StartedAt, now)
}

// Heartbeat records a periodic watch ping, subject to the dedupe window.
// Returns false when the ping was acknowledged without recording (paused
// playback or a too-recent previous event).
func (svc *AccessService) Heartbeat(req dto.PlaybackHeartbeatRequest, now time.Time) (bool, error) {
	video, categoryID, err := svc.lookupVideo(req.VideoID)
	if err != nil {
		return false, err
	}

	if err := svc.assertAllowed(req.KidID, video.YoutubeID, categoryID, now); err != nil {
		return false, err
	}

	if !req.Playing() {
		return false, nil
	}

	if req.CategoryID != nil {
		categoryID = req.CategoryID
	}
	return svc.limitsSvc.RecordHeartbeat(req.KidID, video.ID, req.Delta(), categoryID, req.StartedAt, now)
}

func (svc *AccessService) lookupVideo(youtubeID string) (*model.Video, *string, error) {
	video, err := svc.sqlSvc.GetVideoByYoutubeID(youtubeID)
	if err != nil {
		return nil, nil, svc.sqlSvc.HandleError(err)
	}
	if video == nil {
		return nil, nil, shared.NewNotFoundError(fmt.Errorf("video %s", youtubeID), "Video not found")
	}

	var categoryID *string
	channel, err := svc.sqlSvc.GetChannel(video.ChannelID)
	if err != nil {
		return nil, nil, svc.sqlSvc.HandleError(err)
	}
	if channel != nil {
		categoryID = channel.CategoryID
	}
	return video, categoryID, nil
}

func (svc *AccessService) assertAllowed(kidID, videoYoutubeID string, categoryID *string, now time.Time) error {
	videoID := videoYoutubeID
	decision, err := svc.CheckAccess(dto.AccessCheckRequest{
		KidID:      kidID,
		VideoID:    &videoID,
		CategoryID: categoryID,
	}, now)
	if err != nil {
		return err
	}
	if !decision.Allowed && decision.Reason != nil {
		return shared.NewAccessDeniedError(*decision.Reason, decision.Details)
	}
	return nil
}

// matchBlockedWord returns the first configured term found in title as a
// case-insensitive substring, or "" when the title is clean. The list is
// comma-separated; blank entries are ignored.
func matchBlockedWord(title, blockedWords string) string {
	if title == "" || blockedWords == "" {
		return ""
	}

	loweredTitle := strings.ToLower(title)
	for _, word := range strings.Split(blockedWords, ",") {
		term := strings.ToLower(strings.TrimSpace(word))
		if term == "" {
			continue
		}
		if strings.Contains(loweredTitle, term) {
			return term
		}
	}
	return ""
}
