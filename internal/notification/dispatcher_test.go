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
	"github.com/spec-kit/sla-monitor/internal/observability"
)

type fakeSender struct {
	channel domain.Channel
	err     error
	panics  bool
	calls   int
}

func (f *fakeSender) Channel() domain.Channel { return f.channel }

func (f *fakeSender) Send(_ context.Context, _ domain.Recipient, _ domain.SlaEvent) error {
	f.calls++
	if f.panics {
		panic("sender exploded")
	}
	return f.err
}

func testEvent(severity domain.SlaSeverity) domain.SlaEvent {
	category := domain.CategorySlaAlerts
	if severity == domain.SlaSeverityBreach {
		category = domain.CategorySecurity
	}
	return domain.SlaEvent{
		ID:         "ev-1",
		TicketID:   "t-1",
		Subject:    "printer on fire",
		Priority:   domain.TicketPriorityUrgent,
		Type:       domain.SlaTypeResponse,
		Severity:   severity,
		Category:   category,
		DueAt:      time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		DetectedAt: time.Date(2025, 1, 1, 1, 5, 0, 0, time.UTC),
	}
}

func newTestDispatcher(senders []Sender, store *fakePreferenceStore) *Dispatcher {
	resolver := NewPreferenceResolver(store, zap.NewNop())
	return NewDispatcher(senders, resolver, time.Second, zap.NewNop(), observability.NewMetrics())
}

func outcomesByChannel(attempts []domain.DeliveryAttempt) map[domain.Channel]domain.DeliveryOutcome {
	result := map[domain.Channel]domain.DeliveryOutcome{}
	for _, a := range attempts {
		result[a.Channel] = a.Outcome
	}
	return result
}

func TestDispatchChannelIsolation(t *testing.T) {
	email := &fakeSender{channel: domain.ChannelEmail}
	chat := &fakeSender{channel: domain.ChannelChat, err: errors.New("webhook timeout")}
	inApp := &fakeSender{channel: domain.ChannelInApp}

	d := newTestDispatcher([]Sender{email, chat, inApp}, &fakePreferenceStore{})

	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityWarning),
		[]domain.Recipient{{UserID: "u-1", Email: "a@example.com"}})
	require.Len(t, attempts, 3)

	got := outcomesByChannel(attempts)
	assert.Equal(t, domain.DeliveryDelivered, got[domain.ChannelEmail])
	assert.Equal(t, domain.DeliveryFailed, got[domain.ChannelChat])
	assert.Equal(t, domain.DeliveryDelivered, got[domain.ChannelInApp])

	// the broken channel did not stop the others
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, inApp.calls)
}

func TestDispatchPanicBecomesFailedAttempt(t *testing.T) {
	email := &fakeSender{channel: domain.ChannelEmail, panics: true}
	d := newTestDispatcher([]Sender{email}, &fakePreferenceStore{})

	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityWarning),
		[]domain.Recipient{{UserID: "u-1"}})
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.DeliveryFailed, attempts[0].Outcome)
	assert.Contains(t, attempts[0].Error, "panicked")
}

func TestDispatchRespectsPreferences(t *testing.T) {
	store := &fakePreferenceStore{rows: map[string]*domain.NotificationPreference{
		prefKey("u-1", domain.CategorySlaAlerts): {
			UserID:    "u-1",
			Category:  domain.CategorySlaAlerts,
			Email:     true,
			Chat:      false,
			InApp:     true,
			Frequency: domain.FrequencyImmediate,
			IsEnabled: true,
		},
	}}
	email := &fakeSender{channel: domain.ChannelEmail}
	chat := &fakeSender{channel: domain.ChannelChat}

	d := newTestDispatcher([]Sender{email, chat}, store)
	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityWarning),
		[]domain.Recipient{{UserID: "u-1"}})

	got := outcomesByChannel(attempts)
	assert.Equal(t, domain.DeliveryDelivered, got[domain.ChannelEmail])
	assert.Equal(t, domain.DeliverySkipped, got[domain.ChannelChat])
	assert.Equal(t, 0, chat.calls)
}

func TestDispatchDigestFrequencySkipsInline(t *testing.T) {
	store := &fakePreferenceStore{rows: map[string]*domain.NotificationPreference{
		prefKey("u-1", domain.CategorySlaAlerts): {
			UserID:    "u-1",
			Category:  domain.CategorySlaAlerts,
			Email:     true,
			Frequency: domain.FrequencyDailyDigest,
			IsEnabled: true,
		},
	}}
	email := &fakeSender{channel: domain.ChannelEmail}

	d := newTestDispatcher([]Sender{email}, store)
	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityWarning),
		[]domain.Recipient{{UserID: "u-1"}})

	require.Len(t, attempts, 1)
	assert.Equal(t, domain.DeliverySkipped, attempts[0].Outcome)
	assert.Equal(t, 0, email.calls)
}

func TestDispatchSecurityOverridesDisabledPreference(t *testing.T) {
	store := &fakePreferenceStore{rows: map[string]*domain.NotificationPreference{
		prefKey("u-1", domain.CategorySecurity): {
			UserID:    "u-1",
			Category:  domain.CategorySecurity,
			Email:     false,
			Frequency: domain.FrequencyNone,
			IsEnabled: false,
		},
	}}
	email := &fakeSender{channel: domain.ChannelEmail}

	d := newTestDispatcher([]Sender{email}, store)
	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityBreach),
		[]domain.Recipient{{UserID: "u-1", Email: "a@example.com"}})

	require.Len(t, attempts, 1)
	assert.Equal(t, domain.DeliveryDelivered, attempts[0].Outcome)
	assert.Equal(t, 1, email.calls)
}

func TestDispatchPreferenceStoreErrorFailsAllChannels(t *testing.T) {
	email := &fakeSender{channel: domain.ChannelEmail}
	chat := &fakeSender{channel: domain.ChannelChat}

	d := newTestDispatcher([]Sender{email, chat}, &fakePreferenceStore{err: errors.New("db down")})
	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityWarning),
		[]domain.Recipient{{UserID: "u-1"}})

	require.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.Equal(t, domain.DeliveryFailed, a.Outcome)
	}
	assert.Equal(t, 0, email.calls)
}

func TestDispatchMultipleRecipients(t *testing.T) {
	email := &fakeSender{channel: domain.ChannelEmail}
	d := newTestDispatcher([]Sender{email}, &fakePreferenceStore{})

	attempts := d.Dispatch(context.Background(), testEvent(domain.SlaSeverityWarning),
		[]domain.Recipient{{UserID: "u-1"}, {UserID: "u-2"}})
	require.Len(t, attempts, 2)
	assert.Equal(t, 2, email.calls)
}
