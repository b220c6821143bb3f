package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestRemainingSecondsUnlimitedKid(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	remaining, err := limitsSvc.RemainingSeconds(kid.ID, nil, noon)
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestRemainingSecondsCountsDownAndGoesNegative(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, func(k *model.Kid) {
		k.DailyLimitMinutes = intPtr(10)
	})

	remaining, err := limitsSvc.RemainingSeconds(kid.ID, nil, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, 600, *remaining)

	seedWatch(t, sqlSvc, kid.ID, "video-1", 700, nil, noon.Add(-time.Hour))

	remaining, err = limitsSvc.RemainingSeconds(kid.ID, nil, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, -100, *remaining)

	err = limitsSvc.AssertUnderLimit(kid.ID, nil, noon)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.StatusCode)
	data, _ := appErr.Data.(map[string]interface{})
	assert.Equal(t, shared.ReasonDailyLimit, data["reason"])
}

func TestRemainingSecondsIgnoresOtherDays(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, func(k *model.Kid) {
		k.DailyLimitMinutes = intPtr(10)
	})

	// Yesterday's watching never touches today's budget.
	seedWatch(t, sqlSvc, kid.ID, "video-1", 1200, nil, noon.AddDate(0, 0, -1))

	remaining, err := limitsSvc.RemainingSeconds(kid.ID, nil, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, 600, *remaining)
}

func TestRemainingSecondsCategoryPrecedence(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, func(k *model.Kid) {
		k.DailyLimitMinutes = intPtr(60)
	})

	category := &model.Category{
		ID:                newID(),
		Name:              "Fun",
		Enabled:           true,
		DailyLimitMinutes: intPtr(30),
		CreatedAt:         noon,
		UpdatedAt:         noon,
	}
	require.NoError(t, sqlSvc.Db().Create(category).Error)

	// Without an override the category fallback wins over the kid limit.
	remaining, err := limitsSvc.RemainingSeconds(kid.ID, &category.ID, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, 30*60, *remaining)

	require.NoError(t, sqlSvc.Db().Create(&model.KidCategoryLimit{
		ID:                newID(),
		KidID:             kid.ID,
		CategoryID:        category.ID,
		DailyLimitMinutes: 10,
		CreatedAt:         noon,
	}).Error)

	remaining, err = limitsSvc.RemainingSeconds(kid.ID, &category.ID, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, 10*60, *remaining)

	hasOverride, err := limitsSvc.HasCategoryOverride(kid.ID, &category.ID)
	require.NoError(t, err)
	assert.True(t, hasOverride)
}

func TestRemainingSecondsUnknownCategoryFallsBackToKid(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, func(k *model.Kid) {
		k.DailyLimitMinutes = intPtr(45)
	})

	categoryID := "no-such-category"
	remaining, err := limitsSvc.RemainingSeconds(kid.ID, &categoryID, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, 45*60, *remaining)
}

func TestRemainingSecondsBonusMinutes(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, func(k *model.Kid) {
		k.DailyLimitMinutes = intPtr(10)
	})

	_, err := limitsSvc.GrantBonus(kid.ID, 15, nil)
	require.NoError(t, err)

	remaining, err := limitsSvc.RemainingSeconds(kid.ID, nil, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, (10+15)*60, *remaining)

	// Expired grants contribute nothing.
	expired := noon.Add(-time.Minute)
	_, err = limitsSvc.GrantBonus(kid.ID, 30, &expired)
	require.NoError(t, err)

	remaining, err = limitsSvc.RemainingSeconds(kid.ID, nil, noon)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, (10+15)*60, *remaining)
}

func TestGrantBonusValidation(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	_, err := limitsSvc.GrantBonus(kid.ID, 0, nil)
	assert.Error(t, err)

	_, err = limitsSvc.GrantBonus("missing", 10, nil)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestLogWatchRejectsNonPositiveSeconds(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	err := limitsSvc.LogWatch(kid.ID, "video-1", 0, nil, nil, noon)
	assert.Error(t, err)

	err = limitsSvc.LogWatch(kid.ID, "video-1", -5, nil, nil, noon)
	assert.Error(t, err)
}

func TestRecordHeartbeatDedupeWindow(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	limitsSvc := newTestLimits(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	seedWatch(t, sqlSvc, kid.ID, "video-1", 10, nil, noon)

	// A heartbeat inside the window of the previous event is absorbed.
	recorded, err := limitsSvc.RecordHeartbeat(kid.ID, "video-1", 10, nil, nil, noon.Add(3*time.Second))
	require.NoError(t, err)
	assert.False(t, recorded)

	// Outside the window it records again.
	recorded, err = limitsSvc.RecordHeartbeat(kid.ID, "video-1", 10, nil, nil, noon.Add(9*time.Second))
	require.NoError(t, err)
	assert.True(t, recorded)

	// A different video is unaffected by the first one's window.
	recorded, err = limitsSvc.RecordHeartbeat(kid.ID, "video-2", 10, nil, nil, noon.Add(3*time.Second))
	require.NoError(t, err)
	assert.True(t, recorded)

	var count int64
	require.NoError(t, sqlSvc.Db().Model(&model.WatchLog{}).Where("kid_id = ?", kid.ID).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestUtcDayBounds(t *testing.T) {
	late := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	start, end := utcDayBounds(late)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), end)
}
