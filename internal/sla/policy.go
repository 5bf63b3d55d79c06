package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
)

// Policy holds the SLA targets for one priority.
type Policy struct {
	ResponseTarget   time.Duration
	ResolutionTarget time.Duration
}

// PolicyTable maps ticket priority to SLA targets. Built once from
// configuration, immutable afterwards.
type PolicyTable struct {
	policies map[domain.TicketPriority]Policy
}

// ErrNoPolicy indicates a priority without a configured SLA target.
type ErrNoPolicy struct {
	Priority domain.TicketPriority
}

func (e ErrNoPolicy) Error() string {
	return fmt.Sprintf("no SLA policy for priority %q", e.Priority)
}

// NewPolicyTable builds the table from configuration.
func NewPolicyTable(cfg config.SLAConfig) *PolicyTable {
	fromMinutes := func(p config.SLAPolicyConfig) Policy {
		return Policy{
			ResponseTarget:   time.Duration(p.ResponseMinutes) * time.Minute,
			ResolutionTarget: time.Duration(p.ResolutionMinutes) * time.Minute,
		}
	}
	return &PolicyTable{
		policies: map[domain.TicketPriority]Policy{
			domain.TicketPriorityUrgent: fromMinutes(cfg.Urgent),
			domain.TicketPriorityHigh:   fromMinutes(cfg.High),
			domain.TicketPriorityMedium: fromMinutes(cfg.Medium),
			domain.TicketPriorityLow:    fromMinutes(cfg.Low),
		},
	}
}

// Lookup returns the policy for a priority.
func (t *PolicyTable) Lookup(priority domain.TicketPriority) (Policy, error) {
	policy, ok := t.policies[priority]
	if !ok || policy.ResponseTarget <= 0 || policy.ResolutionTarget <= 0 {
		return Policy{}, ErrNoPolicy{Priority: priority}
	}
	return policy, nil
}
