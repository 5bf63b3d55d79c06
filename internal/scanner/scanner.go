package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/notification"
	"github.com/spec-kit/sla-monitor/internal/observability"
	"github.com/spec-kit/sla-monitor/internal/repository"
	"github.com/spec-kit/sla-monitor/internal/sla"
)

// Summary reports the outcome of one scan pass.
type Summary struct {
	TicketsExamined int           `json:"tickets_examined"`
	WarningsSent    int           `json:"warnings_sent"`
	BreachesSent    int           `json:"breaches_sent"`
	Errors          int           `json:"errors"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	Duration        time.Duration `json:"duration_ns"`
}

// Scanner performs one full pass over SLA-eligible tickets: classify,
// notify, and conditionally record the dedup marker. Failures are
// contained per ticket; the pass always completes.
type Scanner struct {
	tickets    repository.TicketRepository
	detector   *sla.Detector
	recipients notification.RecipientResolver
	dispatcher *notification.Dispatcher
	now        func() time.Time
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewScanner constructs the scanner. The clock is injectable for tests;
// nil means time.Now.
func NewScanner(
	tickets repository.TicketRepository,
	detector *sla.Detector,
	recipients notification.RecipientResolver,
	dispatcher *notification.Dispatcher,
	now func() time.Time,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Scanner {
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		tickets:    tickets,
		detector:   detector,
		recipients: recipients,
		dispatcher: dispatcher,
		now:        now,
		logger:     logger,
		metrics:    metrics,
	}
}

type crossing struct {
	slaType  domain.SlaType
	severity domain.SlaSeverity
	dueAt    time.Time
}

// Run executes one scan pass.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	now := s.now()
	summary := Summary{StartedAt: now}

	tickets, err := s.tickets.FindSlaEligible(ctx, now)
	if err != nil {
		summary.Errors++
		s.finish(&summary)
		return summary, fmt.Errorf("load sla-eligible tickets: %w", err)
	}

	for i := range tickets {
		ticket := &tickets[i]
		if err := s.processTicket(ctx, ticket, now, &summary); err != nil {
			summary.Errors++
			s.logger.Warn("ticket scan failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
		summary.TicketsExamined++
	}

	s.finish(&summary)
	s.logger.Info("sla scan complete",
		zap.Int("tickets_examined", summary.TicketsExamined),
		zap.Int("warnings_sent", summary.WarningsSent),
		zap.Int("breaches_sent", summary.BreachesSent),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

func (s *Scanner) finish(summary *Summary) {
	summary.FinishedAt = s.now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	if s.metrics != nil {
		s.metrics.RecordScan(summary.TicketsExamined, summary.WarningsSent, summary.BreachesSent, summary.Errors)
	}
}

func (s *Scanner) processTicket(ctx context.Context, ticket *domain.Ticket, now time.Time, summary *Summary) error {
	classification := s.detector.Classify(ticket, now)

	var crossings []crossing
	if due := dueCrossing(classification.Response, domain.SlaTypeResponse, ticket.ResponseDueAt); due != nil {
		crossings = append(crossings, *due)
	}
	if due := dueCrossing(classification.Resolution, domain.SlaTypeResolution, ticket.ResolutionDueAt); due != nil {
		crossings = append(crossings, *due)
	}

	var firstErr error
	for _, c := range crossings {
		if err := s.handleCrossing(ctx, ticket, c, now, summary); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func dueCrossing(state domain.SlaState, slaType domain.SlaType, dueAt *time.Time) *crossing {
	if dueAt == nil {
		return nil
	}
	switch state {
	case domain.SlaStateWarningDue:
		return &crossing{slaType: slaType, severity: domain.SlaSeverityWarning, dueAt: *dueAt}
	case domain.SlaStateBreachDue:
		return &crossing{slaType: slaType, severity: domain.SlaSeverityBreach, dueAt: *dueAt}
	default:
		return nil
	}
}

func (s *Scanner) handleCrossing(ctx context.Context, ticket *domain.Ticket, c crossing, now time.Time, summary *Summary) error {
	if err := validatePriority(ticket.Priority); err != nil {
		// misconfigured priority: skip without a marker so the ticket
		// is retried once configuration is fixed
		return err
	}

	event := domain.SlaEvent{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		OrgID:      ticket.OrgID,
		Subject:    ticket.Subject,
		Priority:   ticket.Priority,
		Type:       c.slaType,
		Severity:   c.severity,
		Category:   categoryFor(c.severity),
		DueAt:      c.dueAt,
		DetectedAt: now,
	}

	recipients, err := s.recipients.Resolve(ctx, ticket)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	attempts := s.dispatcher.Dispatch(ctx, event, recipients)
	for _, attempt := range attempts {
		if attempt.Failed() {
			// leave the marker unset so the next pass retries the send
			return fmt.Errorf("delivery failed on %s to %s: %s", attempt.Channel, attempt.Recipient, attempt.Error)
		}
	}

	// breach implies the warning threshold was also crossed; record the
	// warning marker too so the ledger stays monotonic even when the
	// warning itself was never sent
	if c.severity == domain.SlaSeverityBreach && ticket.SentAt(c.slaType, domain.SlaSeverityWarning) == nil {
		if _, err := s.tickets.MarkNotificationSent(ctx, ticket.ID, c.slaType, domain.SlaSeverityWarning, now); err != nil {
			return fmt.Errorf("record skipped warning marker: %w", err)
		}
		ticket.SetSentAt(c.slaType, domain.SlaSeverityWarning, now)
	}

	set, err := s.tickets.MarkNotificationSent(ctx, ticket.ID, c.slaType, c.severity, now)
	if err != nil {
		return fmt.Errorf("record %s %s marker: %w", c.slaType, c.severity, err)
	}
	if !set {
		// a concurrent scan won the conditional update; its send counts
		s.logger.Debug("dedup marker already set",
			zap.String("ticket_id", ticket.ID),
			zap.String("sla_type", string(c.slaType)),
			zap.String("severity", string(c.severity)))
		return nil
	}
	ticket.SetSentAt(c.slaType, c.severity, now)

	switch c.severity {
	case domain.SlaSeverityWarning:
		summary.WarningsSent++
	case domain.SlaSeverityBreach:
		summary.BreachesSent++
	}
	s.logger.Info("sla notification sent",
		zap.String("ticket_id", ticket.ID),
		zap.String("sla_type", string(c.slaType)),
		zap.String("severity", string(c.severity)),
		zap.Int("recipients", len(recipients)))
	return nil
}

func categoryFor(severity domain.SlaSeverity) domain.NotificationCategory {
	// breaches ride the security category so they can never be silenced
	if severity == domain.SlaSeverityBreach {
		return domain.CategorySecurity
	}
	return domain.CategorySlaAlerts
}

func validatePriority(priority domain.TicketPriority) error {
	switch priority {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
		return nil
	default:
		return sla.ErrNoPolicy{Priority: priority}
	}
}
