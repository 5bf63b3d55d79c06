package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

const ticketColumns = `id, org_id, requester_user_id, assignee_user_id, subject, status, priority, created_at,
               response_due_at, resolution_due_at, first_response_at, resolved_at, closed_at,
               response_warning_sent_at, response_breach_sent_at, resolution_warning_sent_at, resolution_breach_sent_at`

// TicketRepository encapsulates the SLA projection of ticket persistence.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// FindSlaEligible returns tickets with at least one running SLA clock.
	FindSlaEligible(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	// MarkNotificationSent performs the conditional dedup update. It
	// returns false when the marker was already set, which is the
	// idempotency primitive the scanner relies on.
	MarkNotificationSent(ctx context.Context, ticketID string, slaType domain.SlaType, severity domain.SlaSeverity, at time.Time) (bool, error)
	// ApplySlaFields persists deadline and lifecycle fields after a
	// clock mutation (creation, priority change, first response,
	// resolve, close).
	ApplySlaFields(ctx context.Context, ticket *domain.Ticket) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) FindSlaEligible(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status NOT IN ('RESOLVED','CLOSED')
          AND ((response_due_at IS NOT NULL AND first_response_at IS NULL)
               OR resolution_due_at IS NOT NULL)
        ORDER BY created_at ASC`, ticketColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) MarkNotificationSent(ctx context.Context, ticketID string, slaType domain.SlaType, severity domain.SlaSeverity, at time.Time) (bool, error) {
	column, err := sentAtColumn(slaType, severity)
	if err != nil {
		return false, err
	}
	// single atomic statement: two concurrent scans cannot both see NULL
	query := fmt.Sprintf(`UPDATE tickets SET %s=$1 WHERE id=$2 AND %s IS NULL`, column, column)
	cmd, err := r.pool.Exec(ctx, query, at, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) ApplySlaFields(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET priority=$1, status=$2, response_due_at=$3, resolution_due_at=$4,
            first_response_at=$5, resolved_at=$6, closed_at=$7,
            response_warning_sent_at=$8, response_breach_sent_at=$9,
            resolution_warning_sent_at=$10, resolution_breach_sent_at=$11,
            updated_at=NOW()
        WHERE id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Priority,
		ticket.Status,
		ticket.ResponseDueAt,
		ticket.ResolutionDueAt,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ResponseWarningSentAt,
		ticket.ResponseBreachSentAt,
		ticket.ResolutionWarningSentAt,
		ticket.ResolutionBreachSentAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func sentAtColumn(slaType domain.SlaType, severity domain.SlaSeverity) (string, error) {
	switch {
	case slaType == domain.SlaTypeResponse && severity == domain.SlaSeverityWarning:
		return "response_warning_sent_at", nil
	case slaType == domain.SlaTypeResponse && severity == domain.SlaSeverityBreach:
		return "response_breach_sent_at", nil
	case slaType == domain.SlaTypeResolution && severity == domain.SlaSeverityWarning:
		return "resolution_warning_sent_at", nil
	case slaType == domain.SlaTypeResolution && severity == domain.SlaSeverityBreach:
		return "resolution_breach_sent_at", nil
	default:
		return "", fmt.Errorf("unknown sla marker %s/%s", slaType, severity)
	}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.OrgID,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.Subject,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.ResponseDueAt,
		&ticket.ResolutionDueAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ResponseWarningSentAt,
		&ticket.ResponseBreachSentAt,
		&ticket.ResolutionWarningSentAt,
		&ticket.ResolutionBreachSentAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
