// Package mailer delivers membership reminder emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html"

	"gym_crm_backend/internal/config"
	"gym_crm_backend/pkg/membership"
	"gym_crm_backend/pkg/utils"

	"gopkg.in/gomail.v2"
)

const defaultSenderName = "Gym Management"

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends reminders through an authenticated SMTP relay (STARTTLS on 587).
type SMTPMailer struct {
	dialer     sender
	from       string
	senderName string
}

// NewSMTPMailer builds a mailer from configuration.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	name := cfg.SenderName
	if name == "" {
		name = defaultSenderName
	}
	return &SMTPMailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:       cfg.User,
		senderName: name,
	}
}

// SendMembershipReminder mails the 3-day or same-day reminder. Other
// values of daysLeft are ignored.
func (m *SMTPMailer) SendMembershipReminder(ctx context.Context, email, name string, daysLeft int) error {
	subject, body, ok := buildReminder(name, daysLeft, m.senderName)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.senderName)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending reminder to %s: %w", email, err)
	}
	utils.LogInfo("Membership reminder sent", map[string]interface{}{"to": email, "days_left": daysLeft})
	return nil
}

func buildReminder(name string, daysLeft int, senderName string) (subject, body string, ok bool) {
	name = html.EscapeString(name)
	switch daysLeft {
	case membership.ReminderDaysAhead:
		subject = "🔔 Your Gym Membership is Expiring in 3 Days!"
		body = fmt.Sprintf(`<p>Hello %s,</p>
<p>This is a friendly reminder that your gym membership is set to expire in <strong>3 days</strong>.</p>
<p>Please log in to your account or visit the front desk to renew your membership and continue enjoying all our facilities!</p>
<p>Thank you for being a valued member of %s.</p>`, name, html.EscapeString(senderName))
	case membership.ReminderDayOf:
		subject = "🛑 Action Required: Your Gym Membership Expires Today!"
		body = fmt.Sprintf(`<p>Hello %s,</p>
<p>Today is the <strong>last day</strong> of your gym membership.</p>
<p>Please renew today to keep your access to the gym from tomorrow on.</p>
<p>We look forward to seeing you again soon!</p>`, name)
	default:
		return "", "", false
	}
	return subject, body, true
}

// LogMailer stands in when SMTP credentials are missing. Reminders are
// logged and dropped.
type LogMailer struct{}

func (LogMailer) SendMembershipReminder(ctx context.Context, email, name string, daysLeft int) error {
	utils.LogWarn("Mailer skipped: MAIL_USER or MAIL_PASS is not set", map[string]interface{}{
		"to": email, "days_left": daysLeft,
	})
	return nil
}
