// Package email sends follow-up reminder mail over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	"salespipe_backend/platform/config"
	"salespipe_backend/platform/logger"

	"github.com/wneessen/go-mail"
)

// Sender delivers follow-up reminders. The scheduler worker depends on this
// interface so tests can fake delivery.
type Sender interface {
	SendFollowUpReminder(ctx context.Context, reminder FollowUpReminder) error
}

// FollowUpReminder is the content of one reminder mail.
type FollowUpReminder struct {
	To           string
	OwnerName    string
	Company      string
	Reason       string
	ReminderDate time.Time
}

// SMTPSender sends mail through the configured SMTP relay.
type SMTPSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

func (s *SMTPSender) SendFollowUpReminder(ctx context.Context, reminder FollowUpReminder) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(reminder.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}

	msg.Subject(fmt.Sprintf("Follow up with %s", reminder.Company))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\n%s was parked as a future opportunity (%s) and its reminder date %s has arrived.\n\nOpen the pipeline board to pick it back up.\n",
		reminder.OwnerName, reminder.Company, reminder.Reason, reminder.ReminderDate.Format("2006-01-02"),
	))

	client, err := mail.NewClient(s.cfg.GetSMTPHost(),
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.GetSMTPUsername()),
		mail.WithPassword(s.cfg.GetSMTPPassword()),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	s.log.Info("follow-up reminder sent", "to", reminder.To, "company", reminder.Company)
	return nil
}

// NopSender is used when email delivery is disabled; reminders are only
// logged.
type NopSender struct {
	log *logger.Logger
}

func NewNopSender(log *logger.Logger) *NopSender {
	return &NopSender{log: log}
}

func (s *NopSender) SendFollowUpReminder(ctx context.Context, reminder FollowUpReminder) error {
	s.log.Info("email disabled, skipping follow-up reminder",
		"to", reminder.To, "company", reminder.Company)
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*NopSender)(nil)
)
