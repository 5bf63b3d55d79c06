package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/repository"
)

// RecipientResolver returns the users to notify for a ticket. Owned
// conceptually by the ticketing domain; this implementation reads the
// contact projection exposed to the monitor.
type RecipientResolver interface {
	Resolve(ctx context.Context, ticket *domain.Ticket) ([]domain.Recipient, error)
}

type recipientResolver struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewRecipientResolver builds the default resolver: assignee plus
// watchers, falling back to the requester when both are empty.
func NewRecipientResolver(users repository.UserRepository, logger *zap.Logger) RecipientResolver {
	return &recipientResolver{users: users, logger: logger}
}

func (r *recipientResolver) Resolve(ctx context.Context, ticket *domain.Ticket) ([]domain.Recipient, error) {
	seen := map[string]bool{}
	var result []domain.Recipient

	if ticket.AssigneeID != nil {
		assignee, err := r.users.GetByID(ctx, *ticket.AssigneeID)
		if err != nil {
			r.logger.Warn("assignee lookup failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("user_id", *ticket.AssigneeID),
				zap.Error(err))
		} else {
			seen[assignee.UserID] = true
			result = append(result, *assignee)
		}
	}

	watchers, err := r.users.ListWatchers(ctx, ticket.ID)
	if err != nil {
		if len(result) == 0 {
			return nil, err
		}
		r.logger.Warn("watcher lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	for _, w := range watchers {
		if !seen[w.UserID] {
			seen[w.UserID] = true
			result = append(result, w)
		}
	}

	if len(result) == 0 {
		requester, err := r.users.GetByID(ctx, ticket.RequesterID)
		if err != nil {
			return nil, err
		}
		result = append(result, *requester)
	}
	return result, nil
}
