package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/notification"
)

// ChatWebhookSender posts SLA events to a chat webhook (Slack-style
// incoming webhook payload). Transient failures get one retry; the
// dispatcher itself never retries.
type ChatWebhookSender struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

type webhookMessage struct {
	Text string `json:"text"`
}

// NewChatWebhookSender builds the sender from notification config.
func NewChatWebhookSender(cfg config.NotificationConfig, logger *zap.Logger) *ChatWebhookSender {
	return &ChatWebhookSender{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.ChannelTimeout()},
		logger:     logger.With(zap.String("channel", "chat")),
	}
}

// Channel identifies this sender.
func (s *ChatWebhookSender) Channel() domain.Channel {
	return domain.ChannelChat
}

// Send delivers one event to the configured webhook, mentioning the
// recipient's chat handle when known.
func (s *ChatWebhookSender) Send(ctx context.Context, rec domain.Recipient, event domain.SlaEvent) error {
	if s.webhookURL == "" {
		return notification.NewPermanentError("chat webhook URL not configured")
	}

	text := EventSubject(event)
	if rec.ChatHandle != "" {
		text = fmt.Sprintf("%s: %s", rec.ChatHandle, text)
	}
	payload, err := json.Marshal(webhookMessage{Text: text})
	if err != nil {
		return notification.NewPermanentError("marshal webhook message: %v", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return notification.NewPermanentError("build webhook request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			s.logger.Debug("webhook delivered", zap.String("ticket_id", event.TicketID))
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return notification.NewPermanentError("webhook rejected request with status %d", resp.StatusCode)
		default:
			lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
	}
	return fmt.Errorf("webhook delivery failed: %w", lastErr)
}
