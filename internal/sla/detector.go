package sla

import (
	"time"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// DefaultWarningRatio is the elapsed fraction at which a warning becomes
// due. Overridable through configuration.
const DefaultWarningRatio = 0.75

// Classification is the detector result for one ticket.
type Classification struct {
	Response   domain.SlaState
	Resolution domain.SlaState
}

// Detector classifies tickets against their deadlines. Stateless: the
// result depends only on the ticket fields and the supplied time, so it
// is safe to re-run at any cadence. Correctness of delivery rests on the
// dedup markers, not on scan frequency.
type Detector struct {
	warningRatio float64
}

// NewDetector builds a detector with the given warning ratio, falling
// back to the default for out-of-range values.
func NewDetector(warningRatio float64) *Detector {
	if warningRatio <= 0 || warningRatio >= 1 {
		warningRatio = DefaultWarningRatio
	}
	return &Detector{warningRatio: warningRatio}
}

// Classify evaluates both SLA clocks of a ticket at the given instant.
func (d *Detector) Classify(ticket *domain.Ticket, now time.Time) Classification {
	return Classification{
		Response:   d.classifyResponse(ticket, now),
		Resolution: d.classifyResolution(ticket, now),
	}
}

func (d *Detector) classifyResponse(ticket *domain.Ticket, now time.Time) domain.SlaState {
	if ticket.FirstResponseAt != nil {
		return domain.SlaStateNotApplicable
	}
	return d.classify(ticket, now, ticket.ResponseDueAt,
		ticket.ResponseWarningSentAt, ticket.ResponseBreachSentAt)
}

func (d *Detector) classifyResolution(ticket *domain.Ticket, now time.Time) domain.SlaState {
	if ticket.ResolvedAt != nil || ticket.ClosedAt != nil {
		return domain.SlaStateNotApplicable
	}
	return d.classify(ticket, now, ticket.ResolutionDueAt,
		ticket.ResolutionWarningSentAt, ticket.ResolutionBreachSentAt)
}

func (d *Detector) classify(ticket *domain.Ticket, now time.Time, dueAt, warnedAt, breachedAt *time.Time) domain.SlaState {
	switch ticket.Status {
	case domain.TicketStatusResolved, domain.TicketStatusClosed:
		return domain.SlaStateNotApplicable
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusWaiting:
		// clock keeps running
	default:
		// unknown status: refuse to classify rather than fall through
		// to on_track
		return domain.SlaStateNotApplicable
	}
	if dueAt == nil {
		return domain.SlaStateNotApplicable
	}

	if !now.Before(*dueAt) {
		if breachedAt == nil {
			return domain.SlaStateBreachDue
		}
		return domain.SlaStateAlreadyBreached
	}

	interval := dueAt.Sub(ticket.CreatedAt)
	if interval <= 0 {
		return domain.SlaStateNotApplicable
	}
	elapsed := now.Sub(ticket.CreatedAt)
	if float64(elapsed)/float64(interval) >= d.warningRatio {
		if warnedAt == nil {
			return domain.SlaStateWarningDue
		}
		return domain.SlaStateAlreadyWarned
	}
	return domain.SlaStateOnTrack
}
