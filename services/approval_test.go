package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

var reqNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCreateRequestAndCooldown(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	request, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeVideo,
		SubjectID: "abc123",
	}, reqNow)
	require.NoError(t, err)
	assert.Equal(t, shared.RequestStatusPending, request.Status)
	require.NotNil(t, request.KidID)
	assert.Equal(t, kid.ID, *request.KidID)

	// Second ask inside the cooldown window is throttled.
	_, err = approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeChannel,
		SubjectID: "UCfoo",
	}, reqNow.Add(5*time.Second))
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 429, appErr.StatusCode)
	seconds, ok := appErr.RetryAfterSeconds()
	require.True(t, ok)
	assert.Greater(t, seconds, 0)

	// After the window a new request goes through.
	_, err = approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeChannel,
		SubjectID: "UCfoo",
	}, reqNow.Add(31*time.Second))
	require.NoError(t, err)
}

func TestCreateRequestUnknownKid(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)

	_, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     "missing",
		Type:      shared.RequestTypeVideo,
		SubjectID: "abc123",
	}, reqNow)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestCreateRequestRejectsBadBonusCode(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	_, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeBonus,
		SubjectID: "lots",
	}, reqNow)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestApplyActionApproveVideoIsIdempotent(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	request, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeVideo,
		SubjectID: "abc123",
	}, reqNow)
	require.NoError(t, err)

	resolved, err := approvalSvc.ApplyAction(request.ID, shared.RequestActionApprove, reqNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, shared.RequestStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	approval, err := sqlSvc.GetVideoApproval("abc123")
	require.NoError(t, err)
	require.NotNil(t, approval)

	// Replaying the button press changes nothing, including a flipped verb.
	again, err := approvalSvc.ApplyAction(request.ID, shared.RequestActionDeny, reqNow.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, shared.RequestStatusApproved, again.Status)

	var count int64
	require.NoError(t, sqlSvc.Db().Model(&model.VideoApproval{}).Where("youtube_id = ?", "abc123").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApplyActionDeny(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	request, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeVideo,
		SubjectID: "abc123",
	}, reqNow)
	require.NoError(t, err)

	resolved, err := approvalSvc.ApplyAction(request.ID, shared.RequestActionDeny, reqNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, shared.RequestStatusDenied, resolved.Status)

	// Denial never creates an approval row.
	approval, err := sqlSvc.GetVideoApproval("abc123")
	require.NoError(t, err)
	assert.Nil(t, approval)
}

func TestApplyActionUnknownRequestIsNoOp(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)

	request, err := approvalSvc.ApplyAction("no-such-request", shared.RequestActionApprove, reqNow)
	require.NoError(t, err)
	assert.Nil(t, request)
}

func TestApplyActionRejectsUnknownVerb(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)

	_, err := approvalSvc.ApplyAction("whatever", "escalate", reqNow)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestApplyActionApproveChannelUpserts(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	existing := seedChannel(t, sqlSvc, func(c *model.Channel) {
		c.YoutubeID = "UCknown"
		c.Blocked = true
	})

	request, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeChannel,
		SubjectID: existing.YoutubeID,
	}, reqNow)
	require.NoError(t, err)

	_, err = approvalSvc.ApplyAction(request.ID, shared.RequestActionApprove, reqNow.Add(time.Minute))
	require.NoError(t, err)

	updated, err := sqlSvc.GetChannelByYoutubeID(existing.YoutubeID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.Allowed)
	assert.False(t, updated.Blocked)

	// Approving an unseen channel creates its row.
	request2, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeChannel,
		SubjectID: "UCbrandnew",
	}, reqNow.Add(time.Minute))
	require.NoError(t, err)
	_, err = approvalSvc.ApplyAction(request2.ID, shared.RequestActionApprove, reqNow.Add(2*time.Minute))
	require.NoError(t, err)

	created, err := sqlSvc.GetChannelByYoutubeID("UCbrandnew")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, created.Allowed)
}

func TestApplyActionApproveBonusGrantsMinutes(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	approvalSvc := newTestApproval(sqlSvc)
	kid := seedKid(t, sqlSvc, nil)

	request, err := approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeBonus,
		SubjectID: "15",
	}, reqNow)
	require.NoError(t, err)

	_, err = approvalSvc.ApplyAction(request.ID, shared.RequestActionApprove, reqNow.Add(time.Minute))
	require.NoError(t, err)

	total, err := sqlSvc.SumActiveBonusMinutes(kid.ID, reqNow)
	require.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestBonusMinutesFromCode(t *testing.T) {
	minutes, err := bonusMinutesFromCode("45", reqNow)
	require.NoError(t, err)
	assert.Equal(t, 45, minutes)

	// "today" is the minutes left until the next UTC midnight.
	minutes, err = bonusMinutesFromCode(shared.BonusCodeToday, reqNow)
	require.NoError(t, err)
	assert.Equal(t, 12*60, minutes)

	// Never less than one, even right before midnight.
	almostMidnight := time.Date(2026, 3, 10, 23, 59, 40, 0, time.UTC)
	minutes, err = bonusMinutesFromCode(shared.BonusCodeToday, almostMidnight)
	require.NoError(t, err)
	assert.Equal(t, 1, minutes)

	_, err = bonusMinutesFromCode("-5", reqNow)
	assert.Error(t, err)

	_, err = bonusMinutesFromCode("soon", reqNow)
	assert.Error(t, err)
}
