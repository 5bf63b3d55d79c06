package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/repository"
	"github.com/spec-kit/sla-monitor/internal/sla"
)

// TicketSlaService applies SLA clock transitions and persists them.
// The ticketing system calls these on its lifecycle events; everything
// else about tickets is owned elsewhere.
type TicketSlaService struct {
	tickets repository.TicketRepository
	clock   *sla.Clock
	now     func() time.Time
	logger  *zap.Logger
}

// NewTicketSlaService constructs the service. The time source is
// injectable for tests; nil means time.Now.
func NewTicketSlaService(tickets repository.TicketRepository, clock *sla.Clock, now func() time.Time, logger *zap.Logger) *TicketSlaService {
	if now == nil {
		now = time.Now
	}
	return &TicketSlaService{tickets: tickets, clock: clock, now: now, logger: logger}
}

// InitializeDeadlines sets both deadlines on a freshly created ticket,
// from its creation time and current priority.
func (s *TicketSlaService) InitializeDeadlines(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.clock.OnCreate(ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.ApplySlaFields(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ChangePriority recomputes deadlines and clears the dedup ledger.
func (s *TicketSlaService) ChangePriority(ctx context.Context, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	old := ticket.Priority
	if err := s.clock.OnPriorityChange(ticket, newPriority); err != nil {
		return nil, err
	}
	if err := s.tickets.ApplySlaFields(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("sla deadlines reset on priority change",
		zap.String("ticket_id", ticket.ID),
		zap.String("old_priority", string(old)),
		zap.String("new_priority", string(newPriority)))
	return ticket, nil
}

// RecordFirstResponse satisfies the response SLA. Idempotent.
func (s *TicketSlaService) RecordFirstResponse(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	s.clock.OnFirstResponse(ticket, s.now())
	return s.tickets.ApplySlaFields(ctx, ticket)
}

// Resolve stops both SLA clocks; markers and deadlines are retained
// for audit.
func (s *TicketSlaService) Resolve(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	s.clock.OnResolve(ticket, s.now())
	return s.tickets.ApplySlaFields(ctx, ticket)
}

// Close stops both SLA clocks.
func (s *TicketSlaService) Close(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	s.clock.OnClose(ticket, s.now())
	return s.tickets.ApplySlaFields(ctx, ticket)
}
