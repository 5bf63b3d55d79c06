package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// UserRepository resolves notification recipients. User accounts are
// owned by the ticketing system; this service only reads the contact
// projection it needs for delivery.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Recipient, error)
	// ListWatchers returns users watching the given ticket.
	ListWatchers(ctx context.Context, ticketID string) ([]domain.Recipient, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates the repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.Recipient, error) {
	const query = `SELECT id, name, email, COALESCE(chat_handle, '') FROM users WHERE id=$1`
	var rec domain.Recipient
	if err := r.pool.QueryRow(ctx, query, id).Scan(&rec.UserID, &rec.Name, &rec.Email, &rec.ChatHandle); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *userRepository) ListWatchers(ctx context.Context, ticketID string) ([]domain.Recipient, error) {
	const query = `
        SELECT u.id, u.name, u.email, COALESCE(u.chat_handle, '')
        FROM ticket_watchers w
        JOIN users u ON u.id = w.user_id
        WHERE w.ticket_id=$1`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		if err := rows.Scan(&rec.UserID, &rec.Name, &rec.Email, &rec.ChatHandle); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
