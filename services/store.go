package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidtube-labs/kidtube_api/model"
)

// Data access methods for the playback-authorization core. Lookups return
// (nil, nil) when no row exists; callers decide whether that is an error.

// ==================== KID METHODS ====================

func (ds *SqliteService) GetKid(id string) (*model.Kid, error) {
	var kid model.Kid
	err := ds.db.Where("id = ?", id).First(&kid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &kid, nil
}

func (ds *SqliteService) GetKidSchedules(kidID string, dayOfWeek int) ([]model.KidSchedule, error) {
	var schedules []model.KidSchedule
	err := ds.db.Where("kid_id = ? AND day_of_week = ?", kidID, dayOfWeek).Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (ds *SqliteService) GetCategoryLimitOverride(kidID, categoryID string) (*model.KidCategoryLimit, error) {
	var override model.KidCategoryLimit
	err := ds.db.Where("kid_id = ? AND category_id = ?", kidID, categoryID).First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

// ==================== CATALOG METHODS ====================

func (ds *SqliteService) GetCategory(id string) (*model.Category, error) {
	var category model.Category
	err := ds.db.Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (ds *SqliteService) GetChannel(id string) (*model.Channel, error) {
	var channel model.Channel
	err := ds.db.Where("id = ?", id).First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

func (ds *SqliteService) GetChannelByYoutubeID(youtubeID string) (*model.Channel, error) {
	var channel model.Channel
	err := ds.db.Where("youtube_id = ?", youtubeID).First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

func (ds *SqliteService) GetVideoByYoutubeID(youtubeID string) (*model.Video, error) {
	var video model.Video
	err := ds.db.Where("youtube_id = ?", youtubeID).First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}

func (ds *SqliteService) GetVideoApproval(youtubeID string) (*model.VideoApproval, error) {
	var approval model.VideoApproval
	err := ds.db.Where("youtube_id = ?", youtubeID).First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &approval, nil
}

// ==================== WATCH LOG METHODS ====================

func (ds *SqliteService) CreateWatchLog(entry *model.WatchLog) error {
	if entry.ID == "" {
		id, _ := uuid.NewV7()
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return ds.db.Create(entry).Error
}

func (ds *SqliteService) GetLatestWatchLog(kidID, videoID string) (*model.WatchLog, error) {
	var entry model.WatchLog
	err := ds.db.Where("kid_id = ? AND video_id = ?", kidID, videoID).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// SumWatchedSeconds aggregates seconds watched in [dayStart, dayEnd).
// Category matching is exact: a nil categoryID matches only rows whose
// category is also null, never any category.
func (ds *SqliteService) SumWatchedSeconds(kidID string, categoryID *string, dayStart, dayEnd time.Time) (int, error) {
	var total int64

	query := ds.db.Model(&model.WatchLog{}).
		Where("kid_id = ? AND started_at >= ? AND started_at < ?", kidID, dayStart, dayEnd)
	if categoryID == nil {
		query = query.Where("category_id IS NULL")
	} else {
		query = query.Where("category_id = ?", *categoryID)
	}

	err := query.Select("COALESCE(SUM(seconds_watched), 0)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// ==================== BONUS TIME METHODS ====================

func (ds *SqliteService) CreateBonusTime(grant *model.KidBonusTime) error {
	if grant.ID == "" {
		id, _ := uuid.NewV7()
		grant.ID = id.String()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	return ds.db.Create(grant).Error
}

// SumActiveBonusMinutes counts grants that never expire or expire after now.
func (ds *SqliteService) SumActiveBonusMinutes(kidID string, now time.Time) (int, error) {
	var total int64
	err := ds.db.Model(&model.KidBonusTime{}).
		Where("kid_id = ? AND (expires_at IS NULL OR expires_at > ?)", kidID, now).
		Select("COALESCE(SUM(minutes), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// ==================== REQUEST METHODS ====================

func (ds *SqliteService) CreateRequest(request *model.Request) error {
	if request.ID == "" {
		id, _ := uuid.NewV7()
		request.ID = id.String()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	return ds.db.Create(request).Error
}

func (ds *SqliteService) GetRequest(id string) (*model.Request, error) {
	var request model.Request
	err := ds.db.Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (ds *SqliteService) GetLatestRequestByKid(kidID string) (*model.Request, error) {
	var request model.Request
	err := ds.db.Where("kid_id = ?", kidID).
		Order("created_at DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (ds *SqliteService) GetLatestRequestForSubject(requestType, subjectID string) (*model.Request, error) {
	var request model.Request
	err := ds.db.Where("type = ? AND subject_id = ?", requestType, subjectID).
		Order("created_at DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// ==================== SETTINGS METHODS ====================

const settingsRowID = "1"

func (ds *SqliteService) ensureSettingsRow() error {
	var count int64
	if err := ds.db.Model(&model.ParentSettings{}).Where("id = ?", settingsRowID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return ds.db.Create(&model.ParentSettings{
		ID:            settingsRowID,
		ShortsEnabled: true,
		BlockedWords:  "",
		UpdatedAt:     time.Now().UTC(),
	}).Error
}

func (ds *SqliteService) GetParentSettings() (*model.ParentSettings, error) {
	var settings model.ParentSettings
	err := ds.db.Where("id = ?", settingsRowID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Settings row is seeded at startup; fall back to defaults if
			// it is missing rather than denying every check.
			return &model.ParentSettings{ID: settingsRowID, ShortsEnabled: true}, nil
		}
		return nil, err
	}
	return &settings, nil
}
