package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/repository"
)

// PreferenceResolver computes the effective notification settings for a
// (user, category) pair. Absent rows resolve to category defaults, and
// the security category can never be silenced: the override is applied
// here at the read boundary, stored rows are left untouched.
type PreferenceResolver struct {
	store  repository.PreferenceRepository
	logger *zap.Logger
}

// NewPreferenceResolver builds the resolver.
func NewPreferenceResolver(store repository.PreferenceRepository, logger *zap.Logger) *PreferenceResolver {
	return &PreferenceResolver{store: store, logger: logger}
}

// Resolve returns the effective preference, never a not-found error.
func (r *PreferenceResolver) Resolve(ctx context.Context, userID string, category domain.NotificationCategory) (domain.EffectivePreference, error) {
	stored, err := r.store.Get(ctx, userID, category)
	if err != nil {
		return domain.EffectivePreference{}, err
	}

	var pref domain.EffectivePreference
	if stored == nil {
		pref = domain.DefaultPreference(userID, category)
	} else {
		pref = domain.EffectivePreference{
			UserID:    stored.UserID,
			Category:  stored.Category,
			Email:     stored.Email,
			Chat:      stored.Chat,
			InApp:     stored.InApp,
			Frequency: stored.Frequency,
			IsEnabled: stored.IsEnabled,
		}
	}

	if category == domain.CategorySecurity {
		pref.IsEnabled = true
		pref.Email = true
		pref.Frequency = domain.FrequencyImmediate
	}
	return pref, nil
}
