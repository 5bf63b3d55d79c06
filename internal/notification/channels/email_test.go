package channels

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/notification"
)

func breachEvent() domain.SlaEvent {
	return domain.SlaEvent{
		ID:         "ev-1",
		TicketID:   "t-1",
		Subject:    "vpn gateway unreachable",
		Priority:   domain.TicketPriorityUrgent,
		Type:       domain.SlaTypeResponse,
		Severity:   domain.SlaSeverityBreach,
		Category:   domain.CategorySecurity,
		DueAt:      time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		DetectedAt: time.Date(2025, 1, 1, 1, 5, 0, 0, time.UTC),
	}
}

func TestEmailSendDeadlineCoversExchange(t *testing.T) {
	// a server that accepts the connection but never sends the SMTP
	// greeting must not hold Send past the context deadline
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Read(make([]byte, 1))
	}()

	sender := NewEmailSender(config.NotificationConfig{
		SMTPAddr:  ln.Addr().String(),
		EmailFrom: "noreply@example.com",
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sender.Send(ctx, domain.Recipient{UserID: "u-1", Email: "a@example.com"}, breachEvent())
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("send still blocked after the context deadline")
	}
}

func TestEmailSendMissingAddressIsPermanent(t *testing.T) {
	sender := NewEmailSender(config.NotificationConfig{
		SMTPAddr:  "127.0.0.1:2525",
		EmailFrom: "noreply@example.com",
	}, zap.NewNop())

	err := sender.Send(context.Background(), domain.Recipient{UserID: "u-1"}, breachEvent())
	require.Error(t, err)

	var permanent *notification.PermanentError
	assert.ErrorAs(t, err, &permanent)
}
