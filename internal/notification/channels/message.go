package channels

import (
	"fmt"
	"time"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// EventSubject builds the one-line summary for an SLA event.
func EventSubject(event domain.SlaEvent) string {
	verb := "approaching"
	if event.Severity == domain.SlaSeverityBreach {
		verb = "breached"
	}
	return fmt.Sprintf("[SLA %s] ticket %s %s %s deadline",
		event.Severity, event.TicketID, verb, event.Type)
}

// EventBody builds the plain-text body for an SLA event.
func EventBody(event domain.SlaEvent, rec domain.Recipient) string {
	return fmt.Sprintf(
		"Hello %s,\n\nTicket %q (%s, priority %s) has %s its %s SLA.\nDeadline: %s\nDetected: %s\n",
		rec.Name,
		event.Subject,
		event.TicketID,
		event.Priority,
		severityPhrase(event.Severity),
		event.Type,
		event.DueAt.Format(time.RFC3339),
		event.DetectedAt.Format(time.RFC3339),
	)
}

func severityPhrase(severity domain.SlaSeverity) string {
	if severity == domain.SlaSeverityBreach {
		return "breached"
	}
	return "nearly exhausted"
}
