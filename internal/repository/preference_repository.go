package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// PreferenceRepository stores per-user notification preferences.
type PreferenceRepository interface {
	// Get returns (nil, nil) when no row exists; the resolver applies
	// category defaults in that case.
	Get(ctx context.Context, userID string, category domain.NotificationCategory) (*domain.NotificationPreference, error)
	Upsert(ctx context.Context, pref *domain.NotificationPreference) error
}

type preferenceRepository struct {
	pool *pgxpool.Pool
}

// NewPreferenceRepository instantiates the repository.
func NewPreferenceRepository(pool *pgxpool.Pool) PreferenceRepository {
	return &preferenceRepository{pool: pool}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string, category domain.NotificationCategory) (*domain.NotificationPreference, error) {
	const query = `
        SELECT user_id, category, channel_email, channel_chat, channel_in_app, frequency, is_enabled, updated_at
        FROM notification_preferences WHERE user_id=$1 AND category=$2`

	var pref domain.NotificationPreference
	err := r.pool.QueryRow(ctx, query, userID, category).Scan(
		&pref.UserID,
		&pref.Category,
		&pref.Email,
		&pref.Chat,
		&pref.InApp,
		&pref.Frequency,
		&pref.IsEnabled,
		&pref.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, pref *domain.NotificationPreference) error {
	const query = `
        INSERT INTO notification_preferences (user_id, category, channel_email, channel_chat, channel_in_app, frequency, is_enabled)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (user_id, category) DO UPDATE SET
            channel_email=EXCLUDED.channel_email,
            channel_chat=EXCLUDED.channel_chat,
            channel_in_app=EXCLUDED.channel_in_app,
            frequency=EXCLUDED.frequency,
            is_enabled=EXCLUDED.is_enabled,
            updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		pref.UserID,
		pref.Category,
		pref.Email,
		pref.Chat,
		pref.InApp,
		pref.Frequency,
		pref.IsEnabled,
	).Scan(&pref.UpdatedAt)
}
