package dto

import (
	"github.com/spec-kit/sla-monitor/internal/domain"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util"
)

// UpdatePreferenceRequest is the body for preference updates.
type UpdatePreferenceRequest struct {
	Email     bool   `json:"channel_email"`
	Chat      bool   `json:"channel_chat"`
	InApp     bool   `json:"channel_in_app"`
	Frequency string `json:"frequency"`
	IsEnabled bool   `json:"is_enabled"`
}

// PreferenceResponse mirrors the effective preference on the wire.
type PreferenceResponse struct {
	UserID    string `json:"user_id"`
	Category  string `json:"category"`
	Email     bool   `json:"channel_email"`
	Chat      bool   `json:"channel_chat"`
	InApp     bool   `json:"channel_in_app"`
	Frequency string `json:"frequency"`
	IsEnabled bool   `json:"is_enabled"`
}

// Validate checks enum fields.
func (r UpdatePreferenceRequest) Validate() error {
	switch domain.NotificationFrequency(r.Frequency) {
	case domain.FrequencyImmediate, domain.FrequencyDailyDigest, domain.FrequencyWeekly, domain.FrequencyNone:
		return nil
	default:
		return apperrors.NewValidationError("invalid frequency", map[string]any{"frequency": r.Frequency})
	}
}

// ParseCategory validates a category path parameter.
func ParseCategory(raw string) (domain.NotificationCategory, error) {
	switch domain.NotificationCategory(raw) {
	case domain.CategoryTicketUpdates, domain.CategorySlaAlerts, domain.CategorySecurity:
		return domain.NotificationCategory(raw), nil
	default:
		return "", apperrors.NewValidationError("unknown notification category", map[string]any{"category": raw})
	}
}

// FromEffectivePreference converts the domain type.
func FromEffectivePreference(pref domain.EffectivePreference) PreferenceResponse {
	return PreferenceResponse{
		UserID:    pref.UserID,
		Category:  string(pref.Category),
		Email:     pref.Email,
		Chat:      pref.Chat,
		InApp:     pref.InApp,
		Frequency: string(pref.Frequency),
		IsEnabled: pref.IsEnabled,
	}
}
