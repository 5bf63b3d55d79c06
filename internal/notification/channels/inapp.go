package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
)

// InAppStore records SLA events in a per-user Redis list consumed by
// the in-app notification feed.
type InAppStore struct {
	client     *redis.Client
	maxPerUser int
	ttl        time.Duration
	logger     *zap.Logger
}

type inAppRecord struct {
	EventID    string                      `json:"event_id"`
	TicketID   string                      `json:"ticket_id"`
	Subject    string                      `json:"subject"`
	Priority   domain.TicketPriority       `json:"priority"`
	SlaType    domain.SlaType              `json:"sla_type"`
	Severity   domain.SlaSeverity          `json:"severity"`
	Category   domain.NotificationCategory `json:"category"`
	DueAt      time.Time                   `json:"due_at"`
	DetectedAt time.Time                   `json:"detected_at"`
}

// NewInAppStore builds the store over a Redis client.
func NewInAppStore(client *redis.Client, cfg config.NotificationConfig, logger *zap.Logger) *InAppStore {
	ttl := time.Duration(cfg.InAppTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	maxPerUser := cfg.InAppMaxPerUser
	if maxPerUser <= 0 {
		maxPerUser = 200
	}
	return &InAppStore{
		client:     client,
		maxPerUser: maxPerUser,
		ttl:        ttl,
		logger:     logger.With(zap.String("channel", "in_app")),
	}
}

// Channel identifies this sender.
func (s *InAppStore) Channel() domain.Channel {
	return domain.ChannelInApp
}

// Send appends the event to the recipient's feed, trimming to the
// configured length.
func (s *InAppStore) Send(ctx context.Context, rec domain.Recipient, event domain.SlaEvent) error {
	record := inAppRecord{
		EventID:    event.ID,
		TicketID:   event.TicketID,
		Subject:    event.Subject,
		Priority:   event.Priority,
		SlaType:    event.Type,
		Severity:   event.Severity,
		Category:   event.Category,
		DueAt:      event.DueAt,
		DetectedAt: event.DetectedAt,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal in-app record: %w", err)
	}

	key := feedKey(rec.UserID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.maxPerUser-1))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record in-app notification: %w", err)
	}

	s.logger.Debug("in-app notification recorded",
		zap.String("user_id", rec.UserID),
		zap.String("ticket_id", event.TicketID))
	return nil
}

func feedKey(userID string) string {
	return "inapp:notifications:" + userID
}
