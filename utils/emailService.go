package utils

import (
	"context"
	"fmt"
	"html"

	"learnhub/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "LearnHub"

// SendgridMailer delivers transactional email through the SendGrid v3 API
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *logger.Logger
}

func NewSendgridMailer(apiKey, sender string, log *logger.Logger) *SendgridMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(senderName, sender),
		log:    log.With("component", "SendgridMailer"),
	}
}

// WithBaseURL points the client at another API host
func (m *SendgridMailer) WithBaseURL(baseURL string) *SendgridMailer {
	m.client.BaseURL = baseURL + "/v3/mail/send"
	return m
}

func (m *SendgridMailer) SendEnrollmentConfirmation(ctx context.Context, to, name, courseTitle string) error {
	subject, plain, htmlBody := enrollmentEmail(name, courseTitle)
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, to), plain, htmlBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	m.log.Info("enrollment email sent", "course", courseTitle, "status", resp.StatusCode)
	return nil
}

// LogMailer only logs; used when no SendGrid key is configured
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log.With("component", "LogMailer")}
}

func (m *LogMailer) SendEnrollmentConfirmation(ctx context.Context, to, name, courseTitle string) error {
	subject, _, _ := enrollmentEmail(name, courseTitle)
	m.log.Info("email delivery disabled, skipping", "to", to, "subject", subject)
	return nil
}

func enrollmentEmail(name, courseTitle string) (subject, plain, htmlBody string) {
	subject = "You're enrolled: " + courseTitle
	plain = fmt.Sprintf("Dear %s,\n\nYou are now enrolled in %s. Happy learning!\n", name, courseTitle)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<p>Open your dashboard to start the first lesson.</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle))
	htmlBody = getEmailTemplate("Enrollment Confirmed", body)
	return subject, plain, htmlBody
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F4F5F7; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1D3557; padding: 24px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 22px; }
			.content { padding: 32px 28px; color: #1D3557; line-height: 1.6; }
			.footer { padding: 16px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>LEARNHUB</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">You are receiving this because you enrolled in a course on LearnHub.</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
