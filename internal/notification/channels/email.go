package channels

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/notification"
)

// EmailSender delivers SLA events over SMTP.
type EmailSender struct {
	addr   string
	from   string
	auth   smtp.Auth
	logger *zap.Logger
}

// NewEmailSender builds the sender from notification config.
func NewEmailSender(cfg config.NotificationConfig, logger *zap.Logger) *EmailSender {
	var auth smtp.Auth
	if cfg.SMTPUser != "" || cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, smtpHost(cfg.SMTPAddr))
	}
	return &EmailSender{
		addr:   cfg.SMTPAddr,
		from:   cfg.EmailFrom,
		auth:   auth,
		logger: logger.With(zap.String("channel", "email")),
	}
}

// Channel identifies this sender.
func (s *EmailSender) Channel() domain.Channel {
	return domain.ChannelEmail
}

// Send delivers one event to one recipient.
func (s *EmailSender) Send(ctx context.Context, rec domain.Recipient, event domain.SlaEvent) error {
	if strings.TrimSpace(rec.Email) == "" {
		return notification.NewPermanentError("recipient %s has no email address", rec.UserID)
	}

	subject := EventSubject(event)
	body := EventBody(event, rec)
	msg := []byte(
		"From: " + s.from + "\r\n" +
			"To: " + rec.Email + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n")

	start := time.Now()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// the context only bounds the dial; the SMTP exchange itself needs a
	// connection deadline or a silent server blocks the whole pass
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, smtpHost(s.addr))
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = c.Close() }()

	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(s.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(s.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(rec.Email); err != nil {
		return notification.NewPermanentError("smtp RCPT TO rejected for %s: %v", rec.Email, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	s.logger.Debug("email sent",
		zap.String("to", rec.Email),
		zap.String("ticket_id", event.TicketID),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func smtpHost(addr string) string {
	if i := strings.Index(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
