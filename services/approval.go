package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

// ApprovalService is the request state machine: pending -> approved|denied,
// both terminal. Approving dispatches a side effect keyed by request type;
// re-applying any action to a resolved request is a no-op.
type ApprovalService struct {
	context.DefaultService

	sqlSvc    *SqliteService
	limitsSvc *LimitsService
	notifySvc *NotifyService
	emailSvc  *EmailService
}

const APPROVAL_SVC = "approval_svc"

// A kid may create at most one request per cooldown window, whatever the
// request type.
const requestCooldown = 30 * time.Second

func (svc ApprovalService) Id() string {
	return APPROVAL_SVC
}

func (svc *ApprovalService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ApprovalService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.limitsSvc = svc.Service(LIMITS_SVC).(*LimitsService)
	svc.notifySvc = svc.Service(NOTIFY_SVC).(*NotifyService)
	svc.emailSvc = svc.Service(EMAIL_SVC).(*EmailService)
	return nil
}

// ==================== REQUEST CREATION ====================

func (svc *ApprovalService) CreateRequest(req dto.CreateRequestRequest, now time.Time) (*model.Request, error) {
	kid, err := svc.sqlSvc.GetKid(req.KidID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if kid == nil {
		return nil, shared.NewNotFoundError(fmt.Errorf("kid %s", req.KidID), "Kid not found")
	}

	if req.Type == shared.RequestTypeBonus {
		if _, err := bonusMinutesFromCode(req.SubjectID, now); err != nil {
			return nil, shared.NewValidationError(err, "Invalid bonus subject id")
		}
	}

	if err := svc.assertOutsideCooldown(req.KidID, now); err != nil {
		return nil, err
	}

	kidID := req.KidID
	request := &model.Request{
		Type:      req.Type,
		SubjectID: req.SubjectID,
		KidID:     &kidID,
		Status:    shared.RequestStatusPending,
		CreatedAt: now.UTC(),
	}
	if err := svc.sqlSvc.CreateRequest(request); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	// Notification failures never fail the creation call: the relational
	// state machine is the source of truth, not the notification channel.
	notification := svc.buildNotification(request, kid.Name)
	if err := svc.notifySvc.NotifyApprovalRequest(notification); err != nil {
		log.WithFields(log.Fields{"request_id": request.ID, "error": err.Error()}).
			Warn("Approval webhook notification failed")
	}
	if err := svc.emailSvc.SendApprovalRequestEmail(notification); err != nil {
		log.WithFields(log.Fields{"request_id": request.ID, "error": err.Error()}).
			Warn("Approval email notification failed")
	}

	return request, nil
}

func (svc *ApprovalService) assertOutsideCooldown(kidID string, now time.Time) error {
	latest, err := svc.sqlSvc.GetLatestRequestByKid(kidID)
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if latest == nil {
		return nil
	}

	elapsed := now.UTC().Sub(latest.CreatedAt.UTC())
	if elapsed < requestCooldown {
		return shared.NewCooldownError(requestCooldown - elapsed)
	}
	return nil
}

func (svc *ApprovalService) buildNotification(request *model.Request, kidName string) ApprovalNotification {
	notification := ApprovalNotification{
		RequestID:   request.ID,
		RequestType: request.Type,
		SubjectID:   request.SubjectID,
		KidName:     kidName,
	}

	if request.Type == shared.RequestTypeBonus {
		return notification
	}

	video, err := svc.sqlSvc.GetVideoByYoutubeID(request.SubjectID)
	if err != nil || video == nil {
		return notification
	}
	notification.VideoTitle = &video.Title

	channel, err := svc.sqlSvc.GetChannel(video.ChannelID)
	if err == nil && channel != nil && channel.Title != nil {
		notification.ChannelName = channel.Title
	}
	return notification
}

// ==================== RESOLUTION ====================

// ApplyAction resolves a pending request. An unknown request id is a silent
// no-op, returning (nil, nil): the remote gateway may replay stale button
// presses long after an administrative purge. Resolved requests are never
// modified again, which makes every dispatch through here idempotent.
func (svc *ApprovalService) ApplyAction(requestID, action string, now time.Time) (*model.Request, error) {
	if action != shared.RequestActionApprove && action != shared.RequestActionDeny {
		return nil, shared.NewValidationError(fmt.Errorf("action %q", action), "Unknown request action")
	}

	request, err := svc.sqlSvc.GetRequest(requestID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if request == nil {
		return nil, nil
	}
	if request.Resolved() {
		return request, nil
	}

	resolvedAt := now.UTC()
	request.ResolvedAt = &resolvedAt

	if action == shared.RequestActionDeny {
		request.Status = shared.RequestStatusDenied
		if err := svc.sqlSvc.Db().Save(request).Error; err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		return request, nil
	}

	request.Status = shared.RequestStatusApproved
	err = svc.sqlSvc.Db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(request).Error; err != nil {
			return err
		}
		return svc.applyApprovalSideEffect(tx, request, now)
	})
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithFields(log.Fields{
		"request_id": request.ID,
		"type":       request.Type,
		"action":     action,
	}).Info("Approval request resolved")
	return request, nil
}

func (svc *ApprovalService) applyApprovalSideEffect(tx *gorm.DB, request *model.Request, now time.Time) error {
	switch request.Type {
	case shared.RequestTypeChannel:
		return upsertAllowedChannel(tx, request.SubjectID, now)

	case shared.RequestTypeVideo:
		var count int64
		if err := tx.Model(&model.VideoApproval{}).
			Where("youtube_id = ?", request.SubjectID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		id, _ := uuid.NewV7()
		requestID := request.ID
		return tx.Create(&model.VideoApproval{
			ID:        id.String(),
			YoutubeID: request.SubjectID,
			RequestID: &requestID,
			CreatedAt: now.UTC(),
		}).Error

	case shared.RequestTypeBonus:
		if request.KidID == nil {
			log.WithField("request_id", request.ID).Warn("Bonus request without kid, skipping grant")
			return nil
		}
		minutes, err := bonusMinutesFromCode(request.SubjectID, now)
		if err != nil {
			log.WithFields(log.Fields{"request_id": request.ID, "error": err.Error()}).
				Warn("Bonus request with invalid subject id, skipping grant")
			return nil
		}
		id, _ := uuid.NewV7()
		return tx.Create(&model.KidBonusTime{
			ID:        id.String(),
			KidID:     *request.KidID,
			Minutes:   minutes,
			CreatedAt: now.UTC(),
		}).Error
	}

	return nil
}

func upsertAllowedChannel(tx *gorm.DB, youtubeID string, now time.Time) error {
	var channel model.Channel
	err := tx.Where("youtube_id = ?", youtubeID).First(&channel).Error
	if err == nil {
		channel.Allowed = true
		channel.Blocked = false
		channel.UpdatedAt = now.UTC()
		return tx.Save(&channel).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	id, _ := uuid.NewV7()
	return tx.Create(&model.Channel{
		ID:        id.String(),
		YoutubeID: youtubeID,
		Allowed:   true,
		Blocked:   false,
		Enabled:   true,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}).Error
}

// bonusMinutesFromCode decodes a bonus subject id: either a literal minute
// count or the "today" sentinel meaning minutes left until the next UTC
// midnight (never less than one).
func bonusMinutesFromCode(code string, now time.Time) (int, error) {
	if code == shared.BonusCodeToday {
		_, nextMidnight := utcDayBounds(now)
		remaining := int(nextMidnight.Sub(now.UTC()).Minutes())
		if remaining < 1 {
			remaining = 1
		}
		return remaining, nil
	}

	minutes, err := strconv.Atoi(code)
	if err != nil {
		return 0, fmt.Errorf("unsupported bonus code %q", code)
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("bonus minutes must be positive, got %d", minutes)
	}
	return minutes, nil
}
