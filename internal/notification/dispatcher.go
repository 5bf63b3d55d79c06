package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/observability"
)

// Sender delivers one event to one recipient over a single channel.
type Sender interface {
	Channel() domain.Channel
	Send(ctx context.Context, rec domain.Recipient, event domain.SlaEvent) error
}

// Dispatcher fans one SLA event out to every channel the recipient's
// effective preference allows. Channels are independent failure
// domains: one broken channel never blocks the others, and each call
// runs under its own timeout. The dispatcher attempts once per channel
// per call; retry policy belongs to the channel clients.
type Dispatcher struct {
	senders []Sender
	prefs   *PreferenceResolver
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDispatcher builds the dispatcher over the given channel senders.
func NewDispatcher(senders []Sender, prefs *PreferenceResolver, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		senders: senders,
		prefs:   prefs,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Dispatch delivers the event to all recipients and reports every
// attempt, including skips.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.SlaEvent, recipients []domain.Recipient) []domain.DeliveryAttempt {
	var attempts []domain.DeliveryAttempt
	for _, rec := range recipients {
		attempts = append(attempts, d.dispatchTo(ctx, event, rec)...)
	}
	return attempts
}

func (d *Dispatcher) dispatchTo(ctx context.Context, event domain.SlaEvent, rec domain.Recipient) []domain.DeliveryAttempt {
	pref, err := d.prefs.Resolve(ctx, rec.UserID, event.Category)
	if err != nil {
		d.logger.Error("preference resolution failed",
			zap.String("user_id", rec.UserID),
			zap.String("category", string(event.Category)),
			zap.Error(err))
		attempts := make([]domain.DeliveryAttempt, 0, len(d.senders))
		for _, sender := range d.senders {
			attempts = append(attempts, d.record(domain.DeliveryAttempt{
				ID:        uuid.NewString(),
				EventID:   event.ID,
				Channel:   sender.Channel(),
				Recipient: rec.UserID,
				Outcome:   domain.DeliveryFailed,
				Error:     fmt.Sprintf("resolve preference: %v", err),
			}))
		}
		return attempts
	}

	attempts := make([]domain.DeliveryAttempt, 0, len(d.senders))
	for _, sender := range d.senders {
		attempts = append(attempts, d.attempt(ctx, sender, event, rec, pref))
	}
	return attempts
}

func (d *Dispatcher) attempt(ctx context.Context, sender Sender, event domain.SlaEvent, rec domain.Recipient, pref domain.EffectivePreference) domain.DeliveryAttempt {
	attempt := domain.DeliveryAttempt{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		Channel:   sender.Channel(),
		Recipient: rec.UserID,
	}

	if !pref.ShouldSend(sender.Channel()) || !pref.Inline() {
		attempt.Outcome = domain.DeliverySkipped
		return d.record(attempt)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.send(callCtx, sender, rec, event)
	attempt.Elapsed = time.Since(start)

	if err != nil {
		attempt.Outcome = domain.DeliveryFailed
		attempt.Error = err.Error()

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			d.logger.Error("permanent delivery failure",
				zap.String("channel", string(sender.Channel())),
				zap.String("recipient", rec.UserID),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		} else {
			d.logger.Warn("transient delivery failure",
				zap.String("channel", string(sender.Channel())),
				zap.String("recipient", rec.UserID),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	} else {
		attempt.Outcome = domain.DeliveryDelivered
	}
	return d.record(attempt)
}

// send wraps the channel call so a panicking client becomes a failed
// attempt instead of taking down the scan.
func (d *Dispatcher) send(ctx context.Context, sender Sender, rec domain.Recipient, event domain.SlaEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", sender.Channel(), r)
		}
	}()
	return sender.Send(ctx, rec, event)
}

func (d *Dispatcher) record(attempt domain.DeliveryAttempt) domain.DeliveryAttempt {
	if d.metrics != nil {
		d.metrics.RecordDelivery(string(attempt.Channel), string(attempt.Outcome))
	}
	return attempt
}
