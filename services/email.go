package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// EmailService mails approval-request notifications to the configured
// parent address. Like the webhook notifier it is fire-and-forget.
type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	approvalTo   string
	baseURL      string

	templates map[string]*template.Template
}

const EMAIL_SVC = "email_svc"

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	svc.smtpHost = os.Getenv("SMTP_HOST")
	svc.smtpPort = os.Getenv("SMTP_PORT")
	svc.smtpUsername = os.Getenv("SMTP_USERNAME")
	svc.smtpPassword = os.Getenv("SMTP_PASSWORD")
	svc.fromEmail = os.Getenv("FROM_EMAIL")
	svc.fromName = os.Getenv("FROM_NAME")
	svc.approvalTo = os.Getenv("APPROVAL_EMAIL_TO")
	svc.baseURL = os.Getenv("BASE_URL")

	// Set defaults if not provided
	if svc.smtpPort == "" {
		svc.smtpPort = "587"
	}
	if svc.fromName == "" {
		svc.fromName = "KidTube"
	}
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:2018"
	}

	svc.templates = make(map[string]*template.Template)

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	err := svc.loadTemplates()
	if err != nil {
		log.WithError(err).Error("Failed to load email templates")
		// Don't fail startup, just log the error
	}

	return nil
}

const approvalRequestEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Approval Request - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4F46E5; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; border-radius: 5px; margin: 15px 0; }
        .button { display: inline-block; padding: 12px 24px; background-color: #4F46E5; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .thumbnail { width: 100%; max-width: 560px; border-radius: 8px; display: block; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.AppName}} Approval Request</h1>
        </div>
        <div class="content">
            <h2>{{.KidName}} asked to watch new content</h2>
            <div class="details">
                <strong>Type:</strong> {{.RequestType}}<br>
                <strong>Title:</strong> {{.VideoTitle}}<br>
                <strong>Channel:</strong> {{.ChannelName}}
            </div>
            {{if .ThumbnailURL}}<img class="thumbnail" src="{{.ThumbnailURL}}" alt="Video thumbnail" />{{end}}
            <a href="{{.ApprovalsURL}}" class="button">Review Request</a>
        </div>
        <div class="footer">
            <p>Sent by {{.AppName}} parental controls</p>
        </div>
    </div>
</body>
</html>
`

type approvalRequestEmailData struct {
	AppName      string
	KidName      string
	RequestType  string
	VideoTitle   string
	ChannelName  string
	ThumbnailURL string
	ApprovalsURL string
}

func (svc *EmailService) loadTemplates() error {
	var err error

	svc.templates["approval_request"], err = template.New("approval_request").Parse(approvalRequestEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse approval request email template: %v", err)
	}

	return nil
}

// SendApprovalRequestEmail notifies the parent mailbox about a new request.
// A missing SMTP or recipient configuration silently disables the channel.
func (svc *EmailService) SendApprovalRequestEmail(notification ApprovalNotification) error {
	if svc.smtpHost == "" || svc.approvalTo == "" {
		return nil
	}

	videoTitle := notification.SubjectID
	if notification.VideoTitle != nil && *notification.VideoTitle != "" {
		videoTitle = *notification.VideoTitle
	}
	channelName := "Unknown"
	if notification.ChannelName != nil && *notification.ChannelName != "" {
		channelName = *notification.ChannelName
	}

	data := approvalRequestEmailData{
		AppName:      "KidTube",
		KidName:      notification.KidName,
		RequestType:  notification.RequestType,
		VideoTitle:   videoTitle,
		ChannelName:  channelName,
		ApprovalsURL: svc.baseURL + "/admin/approvals",
	}
	if notification.RequestType != "bonus" && notification.SubjectID != "" {
		data.ThumbnailURL = fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", notification.SubjectID)
	}

	subject := fmt.Sprintf("KidTube: %s wants to watch %s", notification.KidName, videoTitle)
	return svc.sendTemplateEmail(svc.approvalTo, subject, "approval_request", data)
}

func (svc *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	tmpl, exists := svc.templates[templateName]
	if !exists {
		return fmt.Errorf("template %s not found", templateName)
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("failed to execute template: %v", err)
	}

	return svc.sendEmail(to, subject, body.String())
}

// Send email using SMTP
func (svc *EmailService) sendEmail(to, subject, body string) error {
	if svc.smtpHost == "" {
		return fmt.Errorf("SMTP not configured")
	}

	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		svc.fromName, svc.fromEmail, to, subject, body))

	err := smtp.SendMail(
		svc.smtpHost+":"+svc.smtpPort,
		auth,
		svc.fromEmail,
		[]string{to},
		msg,
	)

	if err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email sent successfully")
	return nil
}
