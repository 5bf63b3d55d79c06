package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

type fakePreferenceStore struct {
	rows map[string]*domain.NotificationPreference
	err  error
}

func prefKey(userID string, category domain.NotificationCategory) string {
	return userID + "|" + string(category)
}

func (f *fakePreferenceStore) Get(_ context.Context, userID string, category domain.NotificationCategory) (*domain.NotificationPreference, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[prefKey(userID, category)], nil
}

func (f *fakePreferenceStore) Upsert(_ context.Context, pref *domain.NotificationPreference) error {
	if f.rows == nil {
		f.rows = map[string]*domain.NotificationPreference{}
	}
	pref.UpdatedAt = time.Now()
	f.rows[prefKey(pref.UserID, pref.Category)] = pref
	return nil
}

func TestResolveAbsentRowUsesDefaults(t *testing.T) {
	resolver := NewPreferenceResolver(&fakePreferenceStore{}, zap.NewNop())

	pref, err := resolver.Resolve(context.Background(), "u-1", domain.CategorySlaAlerts)
	require.NoError(t, err)

	assert.True(t, pref.IsEnabled)
	assert.True(t, pref.Email)
	assert.True(t, pref.Chat)
	assert.True(t, pref.InApp)
	assert.Equal(t, domain.FrequencyImmediate, pref.Frequency)
}

func TestResolveStoredRow(t *testing.T) {
	store := &fakePreferenceStore{rows: map[string]*domain.NotificationPreference{
		prefKey("u-1", domain.CategoryTicketUpdates): {
			UserID:    "u-1",
			Category:  domain.CategoryTicketUpdates,
			Email:     false,
			Chat:      true,
			InApp:     false,
			Frequency: domain.FrequencyDailyDigest,
			IsEnabled: true,
		},
	}}
	resolver := NewPreferenceResolver(store, zap.NewNop())

	pref, err := resolver.Resolve(context.Background(), "u-1", domain.CategoryTicketUpdates)
	require.NoError(t, err)

	assert.False(t, pref.Email)
	assert.True(t, pref.Chat)
	assert.Equal(t, domain.FrequencyDailyDigest, pref.Frequency)
}

func TestResolveSecurityCannotBeSilenced(t *testing.T) {
	store := &fakePreferenceStore{rows: map[string]*domain.NotificationPreference{
		prefKey("u-1", domain.CategorySecurity): {
			UserID:    "u-1",
			Category:  domain.CategorySecurity,
			Email:     false,
			Chat:      false,
			InApp:     false,
			Frequency: domain.FrequencyNone,
			IsEnabled: false,
		},
	}}
	resolver := NewPreferenceResolver(store, zap.NewNop())

	pref, err := resolver.Resolve(context.Background(), "u-1", domain.CategorySecurity)
	require.NoError(t, err)

	assert.True(t, pref.IsEnabled)
	assert.True(t, pref.Email)
	assert.Equal(t, domain.FrequencyImmediate, pref.Frequency)
	assert.True(t, pref.ShouldSend(domain.ChannelEmail))
	// other channel opt-outs survive the override
	assert.False(t, pref.ShouldSend(domain.ChannelChat))
}

func TestResolvePropagatesStoreError(t *testing.T) {
	resolver := NewPreferenceResolver(&fakePreferenceStore{err: errors.New("boom")}, zap.NewNop())
	_, err := resolver.Resolve(context.Background(), "u-1", domain.CategorySlaAlerts)
	require.Error(t, err)
}

func TestShouldSendGates(t *testing.T) {
	pref := domain.EffectivePreference{
		Email:     true,
		Chat:      true,
		InApp:     true,
		Frequency: domain.FrequencyImmediate,
		IsEnabled: true,
	}
	assert.True(t, pref.ShouldSend(domain.ChannelEmail))

	disabled := pref
	disabled.IsEnabled = false
	assert.False(t, disabled.ShouldSend(domain.ChannelEmail))

	muted := pref
	muted.Frequency = domain.FrequencyNone
	assert.False(t, muted.ShouldSend(domain.ChannelEmail))

	digest := pref
	digest.Frequency = domain.FrequencyDailyDigest
	assert.True(t, digest.ShouldSend(domain.ChannelEmail))
	assert.False(t, digest.Inline())
}
