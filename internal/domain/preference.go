package domain

import "time"

// NotificationCategory groups notification events for preference purposes.
type NotificationCategory string

const (
	CategoryTicketUpdates NotificationCategory = "ticket_updates"
	CategorySlaAlerts     NotificationCategory = "sla_alerts"
	CategorySecurity      NotificationCategory = "security"
)

// NotificationFrequency controls batching of a category.
type NotificationFrequency string

const (
	FrequencyImmediate   NotificationFrequency = "immediate"
	FrequencyDailyDigest NotificationFrequency = "daily_digest"
	FrequencyWeekly      NotificationFrequency = "weekly_digest"
	FrequencyNone        NotificationFrequency = "none"
)

// Channel enumerates delivery channels.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
	ChannelInApp Channel = "in_app"
)

// NotificationPreference is the stored (user, category) row.
type NotificationPreference struct {
	UserID    string
	Category  NotificationCategory
	Email     bool
	Chat      bool
	InApp     bool
	Frequency NotificationFrequency
	IsEnabled bool
	UpdatedAt time.Time
}

// EffectivePreference is the resolver output after defaults and the
// security override have been applied.
type EffectivePreference struct {
	UserID    string
	Category  NotificationCategory
	Email     bool
	Chat      bool
	InApp     bool
	Frequency NotificationFrequency
	IsEnabled bool
}

// ShouldSend reports whether the given channel should receive an
// inline delivery for this preference.
func (p EffectivePreference) ShouldSend(ch Channel) bool {
	if !p.IsEnabled || p.Frequency == FrequencyNone {
		return false
	}
	switch ch {
	case ChannelEmail:
		return p.Email
	case ChannelChat:
		return p.Chat
	case ChannelInApp:
		return p.InApp
	default:
		return false
	}
}

// Inline reports whether deliveries go out immediately rather than
// being queued for a digest.
func (p EffectivePreference) Inline() bool {
	return p.Frequency == FrequencyImmediate
}

// DefaultPreference returns the documented defaults for a category.
func DefaultPreference(userID string, category NotificationCategory) EffectivePreference {
	pref := EffectivePreference{
		UserID:    userID,
		Category:  category,
		Email:     true,
		InApp:     true,
		Frequency: FrequencyImmediate,
		IsEnabled: true,
	}
	if category == CategorySlaAlerts {
		pref.Chat = true
	}
	return pref
}
