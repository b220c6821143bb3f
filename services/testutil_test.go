package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kidtube-labs/kidtube_api/model"
)

func newTestSqlite(t *testing.T) *SqliteService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Kid{},
		&model.KidSchedule{},
		&model.KidCategoryLimit{},
		&model.KidBonusTime{},
		&model.Category{},
		&model.Channel{},
		&model.Video{},
		&model.VideoApproval{},
		&model.WatchLog{},
		&model.Request{},
		&model.ParentSettings{},
	)
	require.NoError(t, err)

	sqlSvc := &SqliteService{db: db}
	require.NoError(t, sqlSvc.ensureSettingsRow())
	return sqlSvc
}

func newTestLimits(sqlSvc *SqliteService) *LimitsService {
	return &LimitsService{sqlSvc: sqlSvc}
}

func newTestSchedule(sqlSvc *SqliteService) *ScheduleService {
	return &ScheduleService{sqlSvc: sqlSvc}
}

func newTestApproval(sqlSvc *SqliteService) *ApprovalService {
	return &ApprovalService{
		sqlSvc:    sqlSvc,
		limitsSvc: newTestLimits(sqlSvc),
		notifySvc: &NotifyService{},
		emailSvc:  &EmailService{},
	}
}

func newTestAccess(sqlSvc *SqliteService) *AccessService {
	return &AccessService{
		sqlSvc:      sqlSvc,
		scheduleSvc: newTestSchedule(sqlSvc),
		limitsSvc:   newTestLimits(sqlSvc),
	}
}

func newID() string {
	id, _ := uuid.NewV7()
	return id.String()
}

func seedKid(t *testing.T, sqlSvc *SqliteService, mutate func(*model.Kid)) *model.Kid {
	t.Helper()

	kid := &model.Kid{
		ID:        newID(),
		Name:      "Alex",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(kid)
	}
	require.NoError(t, sqlSvc.Db().Create(kid).Error)
	return kid
}

func seedChannel(t *testing.T, sqlSvc *SqliteService, mutate func(*model.Channel)) *model.Channel {
	t.Helper()

	channel := &model.Channel{
		ID:        newID(),
		YoutubeID: "UC" + newID()[:20],
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(channel)
	}
	require.NoError(t, sqlSvc.Db().Create(channel).Error)
	return channel
}

func seedVideo(t *testing.T, sqlSvc *SqliteService, channelID string, mutate func(*model.Video)) *model.Video {
	t.Helper()

	video := &model.Video{
		ID:        newID(),
		YoutubeID: "vid" + newID()[:8],
		ChannelID: channelID,
		Title:     "Learning shapes",
		CreatedAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(video)
	}
	require.NoError(t, sqlSvc.Db().Create(video).Error)
	return video
}

func seedSchedule(t *testing.T, sqlSvc *SqliteService, kidID string, dayOfWeek int, startTime, endTime string) {
	t.Helper()

	require.NoError(t, sqlSvc.Db().Create(&model.KidSchedule{
		ID:        newID(),
		KidID:     kidID,
		DayOfWeek: dayOfWeek,
		StartTime: startTime,
		EndTime:   endTime,
		CreatedAt: time.Now().UTC(),
	}).Error)
}

func seedWatch(t *testing.T, sqlSvc *SqliteService, kidID, videoID string, seconds int, categoryID *string, startedAt time.Time) {
	t.Helper()

	require.NoError(t, sqlSvc.CreateWatchLog(&model.WatchLog{
		KidID:          kidID,
		VideoID:        videoID,
		CategoryID:     categoryID,
		SecondsWatched: seconds,
		StartedAt:      startedAt,
		CreatedAt:      startedAt,
	}))
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
