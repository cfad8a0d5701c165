package mailer

import (
	"fmt"
	"html"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// HTML is optional; Text is the fallback body.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// AccountApprovedJob builds the notification sent when an administrator
// activates a pending account.
func AccountApprovedJob(to, name, appName string) EmailJob {
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("Hi %s,\n\nYour %s account has been approved. You can now sign in and start sharing shopping lists.\n", name, appName)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your <strong>%s</strong> account has been approved. You can now sign in and start sharing shopping lists.</p>",
		html.EscapeString(name), html.EscapeString(appName),
	)
	return EmailJob{
		To:      to,
		Subject: "Your account has been approved",
		Text:    text,
		HTML:    htmlBody,
	}
}
