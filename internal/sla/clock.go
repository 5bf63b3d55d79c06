package sla

import (
	"time"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// Clock computes and resets ticket deadlines. It mutates the in-memory
// projection only; callers persist via the repository.
type Clock struct {
	policies *PolicyTable
}

// NewClock builds a clock over the policy table.
func NewClock(policies *PolicyTable) *Clock {
	return &Clock{policies: policies}
}

// OnCreate sets both deadlines from the creation timestamp.
func (c *Clock) OnCreate(ticket *domain.Ticket) error {
	policy, err := c.policies.Lookup(ticket.Priority)
	if err != nil {
		return err
	}
	responseDue := ticket.CreatedAt.Add(policy.ResponseTarget)
	resolutionDue := ticket.CreatedAt.Add(policy.ResolutionTarget)
	ticket.ResponseDueAt = &responseDue
	ticket.ResolutionDueAt = &resolutionDue
	return nil
}

// OnPriorityChange recomputes both deadlines from the original creation
// time and clears all four dedup markers: a priority change changes the
// meaning of "already warned/breached".
func (c *Clock) OnPriorityChange(ticket *domain.Ticket, newPriority domain.TicketPriority) error {
	policy, err := c.policies.Lookup(newPriority)
	if err != nil {
		return err
	}
	ticket.Priority = newPriority
	responseDue := ticket.CreatedAt.Add(policy.ResponseTarget)
	resolutionDue := ticket.CreatedAt.Add(policy.ResolutionTarget)
	ticket.ResponseDueAt = &responseDue
	ticket.ResolutionDueAt = &resolutionDue
	ticket.ResponseWarningSentAt = nil
	ticket.ResponseBreachSentAt = nil
	ticket.ResolutionWarningSentAt = nil
	ticket.ResolutionBreachSentAt = nil
	return nil
}

// OnFirstResponse marks the response SLA satisfied. Idempotent.
func (c *Clock) OnFirstResponse(ticket *domain.Ticket, at time.Time) {
	if ticket.FirstResponseAt == nil {
		ticket.FirstResponseAt = &at
	}
}

// OnResolve marks the ticket resolved. Idempotent.
func (c *Clock) OnResolve(ticket *domain.Ticket, at time.Time) {
	if ticket.ResolvedAt == nil {
		ticket.ResolvedAt = &at
	}
	ticket.Status = domain.TicketStatusResolved
}

// OnClose marks the ticket closed. Idempotent.
func (c *Clock) OnClose(ticket *domain.Ticket, at time.Time) {
	if ticket.ClosedAt == nil {
		ticket.ClosedAt = &at
	}
	ticket.Status = domain.TicketStatusClosed
}
