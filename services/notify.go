package services

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/kidtube-labs/kidtube_api/shared"
)

// ApprovalNotification is everything the notification channels need about a
// freshly created approval request.
type ApprovalNotification struct {
	RequestID   string
	RequestType string
	SubjectID   string
	KidName     string
	VideoTitle  *string
	ChannelName *string
}

// NotifyService posts approval-request embeds to a chat webhook. It is
// strictly fire-and-forget: a failed delivery is logged and forgotten, the
// request row stays the source of truth.
type NotifyService struct {
	context.DefaultService

	httpClient *http.Client
	webhookURL string
}

const NOTIFY_SVC = "notify_svc"

func (svc NotifyService) Id() string {
	return NOTIFY_SVC
}

func (svc *NotifyService) Configure(ctx *context.Context) error {
	svc.webhookURL = os.Getenv("DISCORD_APPROVAL_WEBHOOK_URL")
	svc.httpClient = &http.Client{Timeout: 10 * time.Second}

	return svc.DefaultService.Configure(ctx)
}

func (svc *NotifyService) Start() error {
	if svc.webhookURL == "" {
		log.Println("Approval webhook not configured, chat notifications disabled")
	}
	return nil
}

func (svc *NotifyService) NotifyApprovalRequest(notification ApprovalNotification) error {
	if svc.webhookURL == "" {
		return nil
	}

	payload := buildApprovalEmbedPayload(notification)
	body, err := shared.MarshalJSON(payload)
	if err != nil {
		return err
	}

	resp, err := svc.httpClient.Post(svc.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.WithField("request_id", notification.RequestID).Info("Approval notification sent")
	return nil
}

// buildApprovalEmbedPayload renders the embed plus approve/deny buttons.
// The button custom ids are the same request:<id>:<verb> identifiers the
// gateway decodes on the way back in.
func buildApprovalEmbedPayload(n ApprovalNotification) map[string]interface{} {
	videoTitle := "Unknown video"
	if n.VideoTitle != nil && *n.VideoTitle != "" {
		videoTitle = *n.VideoTitle
	}
	channelName := "Unknown channel"
	if n.ChannelName != nil && *n.ChannelName != "" {
		channelName = *n.ChannelName
	}
	kidName := n.KidName
	if kidName == "" {
		kidName = "Unknown kid"
	}

	embed := map[string]interface{}{
		"title": fmt.Sprintf("New Request from %s", kidName),
		"description": fmt.Sprintf("Type: **%s**", n.RequestType),
		"color": 0x5F6DFF,
		"fields": []map[string]interface{}{
			{"name": "Video title", "value": videoTitle, "inline": false},
			{"name": "Channel name", "value": channelName, "inline": true},
			{"name": "Requested by", "value": kidName, "inline": true},
		},
	}
	if n.RequestType != shared.RequestTypeBonus && n.SubjectID != "" {
		embed["thumbnail"] = map[string]interface{}{
			"url": fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", n.SubjectID),
		}
	}

	return map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
		"components": []map[string]interface{}{
			{
				"type": 1,
				"components": []map[string]interface{}{
					{
						"type":      2,
						"style":     3,
						"label":     "Approve",
						"custom_id": fmt.Sprintf("request:%s:approve", n.RequestID),
					},
					{
						"type":      2,
						"style":     4,
						"label":     "Deny",
						"custom_id": fmt.Sprintf("request:%s:deny", n.RequestID),
					},
				},
			},
		},
	}
}
