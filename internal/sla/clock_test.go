package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
)

func testPolicies(t *testing.T) *PolicyTable {
	t.Helper()
	return NewPolicyTable(config.SLAConfig{
		Urgent: config.SLAPolicyConfig{ResponseMinutes: 60, ResolutionMinutes: 240},
		High:   config.SLAPolicyConfig{ResponseMinutes: 240, ResolutionMinutes: 1440},
		Medium: config.SLAPolicyConfig{ResponseMinutes: 480, ResolutionMinutes: 4320},
		Low:    config.SLAPolicyConfig{ResponseMinutes: 1440, ResolutionMinutes: 10080},
	})
}

func TestClockOnCreate(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(testPolicies(t))

	ticket := &domain.Ticket{
		ID:        "t-1",
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityHigh,
		CreatedAt: created,
	}
	require.NoError(t, clock.OnCreate(ticket))

	require.NotNil(t, ticket.ResponseDueAt)
	require.NotNil(t, ticket.ResolutionDueAt)
	assert.Equal(t, created.Add(4*time.Hour), *ticket.ResponseDueAt)
	assert.Equal(t, created.Add(24*time.Hour), *ticket.ResolutionDueAt)
}

func TestClockOnCreateUnknownPriority(t *testing.T) {
	clock := NewClock(testPolicies(t))
	ticket := &domain.Ticket{
		ID:       "t-1",
		Priority: domain.TicketPriority("BLOCKER"),
	}

	err := clock.OnCreate(ticket)
	require.Error(t, err)
	assert.ErrorAs(t, err, &ErrNoPolicy{})
	assert.Nil(t, ticket.ResponseDueAt)
}

func TestClockOnPriorityChangeResetsLedger(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(testPolicies(t))

	ticket := &domain.Ticket{
		ID:        "t-1",
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityLow,
		CreatedAt: created,
	}
	require.NoError(t, clock.OnCreate(ticket))

	sent := created.Add(20 * time.Hour)
	ticket.ResponseWarningSentAt = &sent
	ticket.ResponseBreachSentAt = &sent
	ticket.ResolutionWarningSentAt = &sent
	ticket.ResolutionBreachSentAt = &sent

	require.NoError(t, clock.OnPriorityChange(ticket, domain.TicketPriorityUrgent))

	assert.Equal(t, domain.TicketPriorityUrgent, ticket.Priority)
	// recomputed from the original creation time, not from now
	assert.Equal(t, created.Add(time.Hour), *ticket.ResponseDueAt)
	assert.Equal(t, created.Add(4*time.Hour), *ticket.ResolutionDueAt)

	assert.Nil(t, ticket.ResponseWarningSentAt)
	assert.Nil(t, ticket.ResponseBreachSentAt)
	assert.Nil(t, ticket.ResolutionWarningSentAt)
	assert.Nil(t, ticket.ResolutionBreachSentAt)
}

func TestClockFirstResponseIdempotent(t *testing.T) {
	clock := NewClock(testPolicies(t))
	ticket := &domain.Ticket{ID: "t-1", Status: domain.TicketStatusOpen}

	first := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	clock.OnFirstResponse(ticket, first)
	clock.OnFirstResponse(ticket, first.Add(time.Hour))

	require.NotNil(t, ticket.FirstResponseAt)
	assert.Equal(t, first, *ticket.FirstResponseAt)
}

func TestClockResolveAndClose(t *testing.T) {
	clock := NewClock(testPolicies(t))
	at := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)

	ticket := &domain.Ticket{ID: "t-1", Status: domain.TicketStatusInProgress}
	clock.OnResolve(ticket, at)
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, at, *ticket.ResolvedAt)

	clock.OnClose(ticket, at.Add(time.Hour))
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	require.NotNil(t, ticket.ClosedAt)

	// second resolve keeps the original timestamp
	clock.OnResolve(ticket, at.Add(2*time.Hour))
	assert.Equal(t, at, *ticket.ResolvedAt)
}

func TestPolicyTableLookup(t *testing.T) {
	policies := testPolicies(t)

	policy, err := policies.Lookup(domain.TicketPriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, policy.ResponseTarget)
	assert.Equal(t, 4*time.Hour, policy.ResolutionTarget)

	_, err = policies.Lookup(domain.TicketPriority("NONE"))
	require.Error(t, err)
}
