package services

import (
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

// LimitsService owns the daily time budget: limit resolution, the watch
// ledger, and the bonus-minute ledger. Day boundaries are always UTC,
// never kid-local. That is a deliberate simplification, not a bug.
type LimitsService struct {
	context.DefaultService

	sqlSvc *SqliteService
}

const LIMITS_SVC = "limits_svc"

// A heartbeat for the same (kid, video) within this window of the previous
// one is acknowledged but not recorded. Soft guard only: two racing calls
// may both pass the check and double-count, which is tolerated.
const heartbeatDedupeWindow = 8 * time.Second

func (svc LimitsService) Id() string {
	return LIMITS_SVC
}

func (svc *LimitsService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *LimitsService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	return nil
}

// RemainingSeconds computes limit + active bonus - watched for the current
// UTC day. A nil result means unlimited, which is distinct from any numeric
// value; negative values mean the budget is exceeded.
func (svc *LimitsService) RemainingSeconds(kidID string, categoryID *string, now time.Time) (*int, error) {
	kid, err := svc.sqlSvc.GetKid(kidID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if kid == nil {
		return nil, shared.NewNotFoundError(fmt.Errorf("kid %s", kidID), "Kid not found")
	}

	limitMinutes, _, err := svc.resolveLimitMinutes(kid, categoryID)
	if err != nil {
		return nil, err
	}
	if limitMinutes == nil {
		return nil, nil
	}

	dayStart, dayEnd := utcDayBounds(now)
	watchedSeconds, err := svc.sqlSvc.SumWatchedSeconds(kidID, categoryID, dayStart, dayEnd)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	bonusMinutes, err := svc.sqlSvc.SumActiveBonusMinutes(kidID, now.UTC())
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	remaining := (*limitMinutes+bonusMinutes)*60 - watchedSeconds
	return &remaining, nil
}

// AssertUnderLimit fails exactly when a numeric limit exists and the
// remaining budget is zero or negative.
func (svc *LimitsService) AssertUnderLimit(kidID string, categoryID *string, now time.Time) error {
	remaining, err := svc.RemainingSeconds(kidID, categoryID, now)
	if err != nil {
		return err
	}
	if remaining == nil || *remaining > 0 {
		return nil
	}

	reason := shared.ReasonDailyLimit
	if override, err := svc.categoryOverride(kidID, categoryID); err == nil && override != nil {
		reason = shared.ReasonCategoryLimit
	}

	return shared.NewAccessDeniedError(reason, map[string]interface{}{
		"remaining_seconds": *remaining,
	})
}

// HasCategoryOverride reports whether a (kid, category) limit row exists;
// the decision engine keys the category_limit reason code on it.
func (svc *LimitsService) HasCategoryOverride(kidID string, categoryID *string) (bool, error) {
	override, err := svc.categoryOverride(kidID, categoryID)
	if err != nil {
		return false, err
	}
	return override != nil, nil
}

func (svc *LimitsService) categoryOverride(kidID string, categoryID *string) (*model.KidCategoryLimit, error) {
	if categoryID == nil {
		return nil, nil
	}
	override, err := svc.sqlSvc.GetCategoryLimitOverride(kidID, *categoryID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return override, nil
}

// resolveLimitMinutes applies the precedence hierarchy: per-kid category
// override, then the category's own fallback limit, then the kid's daily
// limit. A nil result at the end of the chain means unlimited.
func (svc *LimitsService) resolveLimitMinutes(kid *model.Kid, categoryID *string) (*int, bool, error) {
	if categoryID == nil {
		return kid.DailyLimitMinutes, false, nil
	}

	override, err := svc.sqlSvc.GetCategoryLimitOverride(kid.ID, *categoryID)
	if err != nil {
		return nil, false, svc.sqlSvc.HandleError(err)
	}
	if override != nil {
		limit := override.DailyLimitMinutes
		return &limit, true, nil
	}

	category, err := svc.sqlSvc.GetCategory(*categoryID)
	if err != nil {
		return nil, false, svc.sqlSvc.HandleError(err)
	}
	if category != nil && category.DailyLimitMinutes != nil {
		return category.DailyLimitMinutes, false, nil
	}

	return kid.DailyLimitMinutes, false, nil
}

// ==================== WATCH LEDGER ====================

// LogWatch appends a watch event unconditionally.
func (svc *LimitsService) LogWatch(kidID, videoID string, seconds int, categoryID *string, startedAt *time.Time, now time.Time) error {
	if seconds <= 0 {
		return shared.NewValidationError(fmt.Errorf("seconds_watched=%d", seconds), "seconds_watched must be positive")
	}

	entry := &model.WatchLog{
		KidID:          kidID,
		VideoID:        videoID,
		CategoryID:     categoryID,
		SecondsWatched: seconds,
		StartedAt:      watchStart(startedAt, now),
	}
	if err := svc.sqlSvc.CreateWatchLog(entry); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

// RecordHeartbeat appends a watch event unless the most recent event for
// this (kid, video) is younger than the dedupe window. Returns false when
// the heartbeat was absorbed.
func (svc *LimitsService) RecordHeartbeat(kidID, videoID string, seconds int, categoryID *string, startedAt *time.Time, now time.Time) (bool, error) {
	latest, err := svc.sqlSvc.GetLatestWatchLog(kidID, videoID)
	if err != nil {
		return false, svc.sqlSvc.HandleError(err)
	}
	if latest != nil && now.UTC().Sub(latest.CreatedAt.UTC()) < heartbeatDedupeWindow {
		heartbeatsDeduplicatedTotal.Inc()
		return false, nil
	}

	if err := svc.LogWatch(kidID, videoID, seconds, categoryID, startedAt, now); err != nil {
		return false, err
	}
	heartbeatsRecordedTotal.Inc()
	return true, nil
}

// ==================== BONUS LEDGER ====================

func (svc *LimitsService) GrantBonus(kidID string, minutes int, expiresAt *time.Time) (*model.KidBonusTime, error) {
	if minutes <= 0 {
		return nil, shared.NewValidationError(fmt.Errorf("minutes=%d", minutes), "Bonus minutes must be positive")
	}

	kid, err := svc.sqlSvc.GetKid(kidID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if kid == nil {
		return nil, shared.NewNotFoundError(fmt.Errorf("kid %s", kidID), "Kid not found")
	}

	grant := &model.KidBonusTime{
		KidID:     kidID,
		Minutes:   minutes,
		ExpiresAt: expiresAt,
	}
	if err := svc.sqlSvc.CreateBonusTime(grant); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithFields(log.Fields{
		"kid_id":  kidID,
		"minutes": minutes,
	}).Info("Bonus time granted")
	return grant, nil
}

// ==================== HELPERS ====================

func utcDayBounds(now time.Time) (time.Time, time.Time) {
	utc := now.UTC()
	dayStart := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart, dayStart.AddDate(0, 0, 1)
}

func watchStart(startedAt *time.Time, now time.Time) time.Time {
	if startedAt != nil {
		return startedAt.UTC()
	}
	return now.UTC()
}
