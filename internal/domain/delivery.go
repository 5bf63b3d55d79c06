package domain

import "time"

// DeliveryOutcome classifies a single channel attempt.
type DeliveryOutcome string

const (
	DeliveryDelivered DeliveryOutcome = "DELIVERED"
	DeliveryFailed    DeliveryOutcome = "FAILED"
	DeliverySkipped   DeliveryOutcome = "SKIPPED"
)

// SlaEvent is one threshold crossing to be delivered.
type SlaEvent struct {
	ID         string
	TicketID   string
	OrgID      string
	Subject    string
	Priority   TicketPriority
	Type       SlaType
	Severity   SlaSeverity
	Category   NotificationCategory
	DueAt      time.Time
	DetectedAt time.Time
}

// DeliveryAttempt records the outcome of one channel call. Ephemeral,
// surfaced only through logs and the batch summary.
type DeliveryAttempt struct {
	ID        string
	EventID   string
	Channel   Channel
	Recipient string
	Outcome   DeliveryOutcome
	Error     string
	Elapsed   time.Duration
}

// Failed reports whether the attempt ended in failure.
func (a DeliveryAttempt) Failed() bool {
	return a.Outcome == DeliveryFailed
}

// Recipient is a user that should be notified about a ticket.
type Recipient struct {
	UserID     string
	Name       string
	Email      string
	ChatHandle string
}
