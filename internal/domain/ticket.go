package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// SlaType distinguishes the two deadlines attached to a ticket.
type SlaType string

const (
	SlaTypeResponse   SlaType = "RESPONSE"
	SlaTypeResolution SlaType = "RESOLUTION"
)

// SlaSeverity distinguishes the two threshold crossings per deadline.
type SlaSeverity string

const (
	SlaSeverityWarning SlaSeverity = "WARNING"
	SlaSeverityBreach  SlaSeverity = "BREACH"
)

// SlaState is the per-type classification produced by the detector.
type SlaState string

const (
	SlaStateNotApplicable   SlaState = "NOT_APPLICABLE"
	SlaStateOnTrack         SlaState = "ON_TRACK"
	SlaStateWarningDue      SlaState = "WARNING_DUE"
	SlaStateBreachDue       SlaState = "BREACH_DUE"
	SlaStateAlreadyWarned   SlaState = "ALREADY_WARNED"
	SlaStateAlreadyBreached SlaState = "ALREADY_BREACHED"
)

// Terminal reports whether the status stops both SLA clocks.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Ticket is the SLA-relevant projection of a support ticket.
type Ticket struct {
	ID          string
	OrgID       string
	RequesterID string
	AssigneeID  *string
	Subject     string
	Status      TicketStatus
	Priority    TicketPriority
	CreatedAt   time.Time

	ResponseDueAt   *time.Time
	ResolutionDueAt *time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time

	ResponseWarningSentAt   *time.Time
	ResponseBreachSentAt    *time.Time
	ResolutionWarningSentAt *time.Time
	ResolutionBreachSentAt  *time.Time
}

// SentAt returns the dedup marker for the given type and severity.
func (t *Ticket) SentAt(slaType SlaType, severity SlaSeverity) *time.Time {
	switch {
	case slaType == SlaTypeResponse && severity == SlaSeverityWarning:
		return t.ResponseWarningSentAt
	case slaType == SlaTypeResponse && severity == SlaSeverityBreach:
		return t.ResponseBreachSentAt
	case slaType == SlaTypeResolution && severity == SlaSeverityWarning:
		return t.ResolutionWarningSentAt
	default:
		return t.ResolutionBreachSentAt
	}
}

// SetSentAt records the dedup marker in the in-memory projection.
func (t *Ticket) SetSentAt(slaType SlaType, severity SlaSeverity, at time.Time) {
	switch {
	case slaType == SlaTypeResponse && severity == SlaSeverityWarning:
		t.ResponseWarningSentAt = &at
	case slaType == SlaTypeResponse && severity == SlaSeverityBreach:
		t.ResponseBreachSentAt = &at
	case slaType == SlaTypeResolution && severity == SlaSeverityWarning:
		t.ResolutionWarningSentAt = &at
	default:
		t.ResolutionBreachSentAt = &at
	}
}
