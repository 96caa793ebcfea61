package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/pkg/membership"
)

func TestSweepAndNotify(t *testing.T) {
	store := newFakeStore()
	store.addClient(models.Client{ID: 1, Name: "Three Days", Email: "three@example.com", MembershipEnd: day("2025-01-31"), Status: membership.StatusActive})
	store.addClient(models.Client{ID: 2, Name: "Ends Today", Email: "today@example.com", MembershipEnd: day("2025-01-28")})
	store.addClient(models.Client{ID: 3, Name: "Two Days", Email: "two@example.com", MembershipEnd: day("2025-01-30")})
	store.addClient(models.Client{ID: 4, Name: "Lapsed", Email: "lapsed@example.com", MembershipEnd: day("2025-01-10")})
	store.addClient(models.Client{ID: 5, Name: "Far Away", Email: "far@example.com", MembershipEnd: day("2025-06-30")})
	store.addClient(models.Client{ID: 6, Name: "Front Desk", Email: "admin@example.com", Role: models.RoleAdmin, MembershipEnd: day("2025-01-31")})
	store.addClient(models.Client{ID: 7, Name: "No Email", MembershipEnd: day("2025-01-28")})

	notifier := &fakeNotifier{}
	svc := NewNotificationService(store, notifier).(*notificationService)
	svc.now = fixedClock(time.Date(2025, time.January, 28, 8, 0, 0, 0, time.UTC))

	report, err := svc.SweepAndNotify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []sentReminder{
		{Email: "three@example.com", Name: "Three Days", DaysLeft: 3},
		{Email: "today@example.com", Name: "Ends Today", DaysLeft: 0},
	}, notifier.sent)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, report.RemindersSent)
	assert.Equal(t, 0, report.RemindersFailed)

	var ids []int64
	for _, item := range report.Attention {
		ids = append(ids, item.ClientID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	assert.Equal(t, membership.StatusExpired, report.Attention[3].Status)

	// The sweep only reads; the stored snapshot keeps its old value.
	stored, _ := store.client(1)
	assert.Equal(t, membership.StatusActive, stored.Status)
}

func TestSweepAndNotifyContinuesAfterDispatchFailure(t *testing.T) {
	store := newFakeStore()
	store.addClient(models.Client{ID: 1, Name: "Broken", Email: "broken@example.com", MembershipEnd: day("2025-01-31")})
	store.addClient(models.Client{ID: 2, Name: "Fine", Email: "fine@example.com", MembershipEnd: day("2025-01-28")})

	notifier := &fakeNotifier{failOn: map[string]error{"broken@example.com": errors.New("smtp: 550 mailbox unavailable")}}
	svc := NewNotificationService(store, notifier).(*notificationService)
	svc.now = fixedClock(time.Date(2025, time.January, 28, 8, 0, 0, 0, time.UTC))

	report, err := svc.SweepAndNotify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemindersFailed)
	assert.Equal(t, 1, report.RemindersSent)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "fine@example.com", notifier.sent[0].Email)
}

func TestSweepAndNotifyStopsWhenCancelled(t *testing.T) {
	store := newFakeStore()
	store.addClient(models.Client{ID: 1, Name: "Ana", Email: "ana@example.com", MembershipEnd: day("2025-01-31")})

	notifier := &fakeNotifier{}
	svc := NewNotificationService(store, notifier).(*notificationService)
	svc.now = fixedClock(time.Date(2025, time.January, 28, 8, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := svc.SweepAndNotify(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, notifier.sent)
}

func TestSweepAndNotifyRefusesOverlap(t *testing.T) {
	svc := NewNotificationService(newFakeStore(), &fakeNotifier{}).(*notificationService)
	svc.running.Lock()
	defer svc.running.Unlock()

	_, err := svc.SweepAndNotify(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)
}
