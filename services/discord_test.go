package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

var gatewayNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDiscord(sqlSvc *SqliteService, publicKey ed25519.PublicKey) *DiscordService {
	return &DiscordService{
		approvalSvc: newTestApproval(sqlSvc),
		limitsSvc:   newTestLimits(sqlSvc),
		publicKey:   publicKey,
	}
}

func signedHeaders(t *testing.T, priv ed25519.PrivateKey, timestamp string, body []byte) string {
	t.Helper()
	signature := ed25519.Sign(priv, append([]byte(timestamp), body...))
	return hex.EncodeToString(signature)
}

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	discordSvc := newTestDiscord(newTestSqlite(t), pub)
	body := []byte(`{"type":1}`)
	timestamp := "1767787200"
	signature := signedHeaders(t, priv, timestamp, body)

	assert.NoError(t, discordSvc.VerifySignature(timestamp, signature, body))

	// Tampered body.
	assert.Error(t, discordSvc.VerifySignature(timestamp, signature, []byte(`{"type":2}`)))

	// Wrong timestamp.
	assert.Error(t, discordSvc.VerifySignature("1767787201", signature, body))

	// Truncated signature.
	assert.Error(t, discordSvc.VerifySignature(timestamp, signature[:16], body))

	// Not hex at all.
	assert.Error(t, discordSvc.VerifySignature(timestamp, "zz"+signature[2:], body))

	// Missing headers.
	assert.Error(t, discordSvc.VerifySignature("", signature, body))
	assert.Error(t, discordSvc.VerifySignature(timestamp, "", body))
}

func TestVerifySignatureWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	discordSvc := newTestDiscord(newTestSqlite(t), otherPub)
	body := []byte(`{"type":1}`)
	signature := signedHeaders(t, priv, "ts", body)

	assert.Error(t, discordSvc.VerifySignature("ts", signature, body))
}

func TestVerifySignatureUnconfiguredKeyFailsClosed(t *testing.T) {
	discordSvc := newTestDiscord(newTestSqlite(t), nil)
	assert.Error(t, discordSvc.VerifySignature("ts", "abcd", []byte("{}")))
}

func TestHandleInteractionPing(t *testing.T) {
	discordSvc := newTestDiscord(newTestSqlite(t), nil)

	resp, err := discordSvc.HandleInteraction([]byte(`{"type":1}`), gatewayNow)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"type": 1}, resp)
}

func TestHandleInteractionMalformedBody(t *testing.T) {
	discordSvc := newTestDiscord(newTestSqlite(t), nil)

	_, err := discordSvc.HandleInteraction([]byte(`{"type":`), gatewayNow)
	assert.Error(t, err)
}

func TestHandleInteractionResolvesRequest(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	discordSvc := newTestDiscord(sqlSvc, nil)
	kid := seedKid(t, sqlSvc, nil)

	request, err := discordSvc.approvalSvc.CreateRequest(dto.CreateRequestRequest{
		KidID:     kid.ID,
		Type:      shared.RequestTypeVideo,
		SubjectID: "abc123",
	}, gatewayNow)
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"type":3,"data":{"custom_id":"request:%s:approve"}}`, request.ID))
	resp, err := discordSvc.HandleInteraction(body, gatewayNow.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 4, resp["type"])

	updated, err := sqlSvc.GetRequest(request.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, shared.RequestStatusApproved, updated.Status)
}

func TestHandleInteractionMalformedCustomIDsAreInert(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	discordSvc := newTestDiscord(sqlSvc, nil)
	kid := seedKid(t, sqlSvc, nil)

	for _, customID := range []string{
		"",
		"request",
		"request:abc",
		"request:abc:escalate",
		"request::approve",
		"bonus:" + kid.ID + ":nope",
		"mystery:abc:approve",
		"request:abc:approve:extra",
	} {
		body := []byte(fmt.Sprintf(`{"type":3,"data":{"custom_id":"%s"}}`, customID))
		resp, err := discordSvc.HandleInteraction(body, gatewayNow)
		require.NoError(t, err, customID)
		assert.EqualValues(t, 4, resp["type"], customID)
	}

	// Nothing was granted or resolved along the way.
	total, err := sqlSvc.SumActiveBonusMinutes(kid.ID, gatewayNow)
	require.NoError(t, err)
	assert.Zero(t, total)

	var count int64
	require.NoError(t, sqlSvc.Db().Model(&model.Request{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleInteractionBonusGrantReplays(t *testing.T) {
	sqlSvc := newTestSqlite(t)
	discordSvc := newTestDiscord(sqlSvc, nil)
	kid := seedKid(t, sqlSvc, nil)

	body := []byte(fmt.Sprintf(`{"type":3,"data":{"custom_id":"bonus:%s:15"}}`, kid.ID))

	_, err := discordSvc.HandleInteraction(body, gatewayNow)
	require.NoError(t, err)
	_, err = discordSvc.HandleInteraction(body, gatewayNow)
	require.NoError(t, err)

	// Bonus grants replay on purpose: two presses mean two grants.
	total, err := sqlSvc.SumActiveBonusMinutes(kid.ID, gatewayNow)
	require.NoError(t, err)
	assert.Equal(t, 30, total)
}

func TestParseRemoteAction(t *testing.T) {
	action := parseRemoteAction("request:req-1:approve")
	assert.Equal(t, RemoteActionResolveRequest, action.Kind)
	assert.Equal(t, "req-1", action.SubjectID)
	assert.Equal(t, "approve", action.Verb)

	action = parseRemoteAction("bonus:kid-1:today")
	assert.Equal(t, RemoteActionGrantBonus, action.Kind)
	assert.Equal(t, "kid-1", action.SubjectID)
	assert.Equal(t, "today", action.Verb)

	assert.Equal(t, RemoteActionUnknown, parseRemoteAction("request:req-1:purge").Kind)
	assert.Equal(t, RemoteActionUnknown, parseRemoteAction("bonus:kid-1").Kind)
	assert.Equal(t, RemoteActionUnknown, parseRemoteAction("").Kind)
}
