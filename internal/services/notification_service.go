package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/membership"
	"gym_crm_backend/pkg/utils"
)

// ErrNotificationDispatchFailed wraps a reminder that could not be handed to
// the dispatcher. It is logged per client and never aborts a sweep.
var ErrNotificationDispatchFailed = errors.New("notification dispatch failed")

// ErrSweepInProgress is returned when a sweep is requested while another runs.
var ErrSweepInProgress = errors.New("membership sweep already running")

// Notifier delivers membership reminders.
type Notifier interface {
	SendMembershipReminder(ctx context.Context, email, name string, daysLeft int) error
}

// AttentionItem is a client whose membership needs follow-up.
type AttentionItem struct {
	ClientID      int64             `json:"client_id"`
	ClientName    string            `json:"client_name"`
	Status        membership.Status `json:"status"`
	DaysRemaining int               `json:"days_remaining"`
	MembershipEnd membership.Date   `json:"membership_end"`
}

// SweepReport summarises one run of the reminder sweep.
type SweepReport struct {
	Date            membership.Date `json:"date"`
	Scanned         int             `json:"scanned"`
	Skipped         int             `json:"skipped"`
	RemindersSent   int             `json:"reminders_sent"`
	RemindersFailed int             `json:"reminders_failed"`
	Attention       []AttentionItem `json:"attention"`
}

type NotificationService interface {
	// SweepAndNotify sends due reminders and lists the clients needing
	// attention. Persisted status is never modified.
	SweepAndNotify(ctx context.Context) (*SweepReport, error)
}

type notificationService struct {
	clientRepo repositories.ClientRepository
	notifier   Notifier
	now        func() time.Time
	running    sync.Mutex
}

// NewNotificationService creates a new instance of NotificationService.
func NewNotificationService(clientRepo repositories.ClientRepository, notifier Notifier) NotificationService {
	return &notificationService{
		clientRepo: clientRepo,
		notifier:   notifier,
		now:        time.Now,
	}
}

func skipForReminders(c models.Client) bool {
	return c.Role == models.RoleAdmin || strings.TrimSpace(c.Email) == ""
}

func (s *notificationService) SweepAndNotify(ctx context.Context) (*SweepReport, error) {
	if !s.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer s.running.Unlock()

	today := membership.Today(s.now())
	report := &SweepReport{Date: today, Attention: []AttentionItem{}}

	clients, err := s.clientRepo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients for sweep: %w", err)
	}

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			utils.LogWarn("Membership sweep interrupted", map[string]interface{}{
				"scanned": report.Scanned, "total": len(clients),
			})
			return report, err
		}
		if skipForReminders(client) {
			report.Skipped++
			continue
		}
		report.Scanned++

		status := membership.ComputeStatus(client.MembershipEnd, today)
		if status == membership.StatusUnknown {
			continue
		}
		days := membership.DaysRemaining(client.MembershipEnd, today)

		if status.NeedsAttention() {
			report.Attention = append(report.Attention, AttentionItem{
				ClientID:      client.ID,
				ClientName:    client.Name,
				Status:        status,
				DaysRemaining: days,
				MembershipEnd: client.MembershipEnd,
			})
		}

		if !membership.ReminderDue(days) {
			continue
		}
		if err := s.notifier.SendMembershipReminder(ctx, client.Email, client.Name, days); err != nil {
			report.RemindersFailed++
			utils.LogError(fmt.Errorf("%w: %w", ErrNotificationDispatchFailed, err), "Failed to send membership reminder",
				map[string]interface{}{"client_id": client.ID, "days_remaining": days})
			continue
		}
		report.RemindersSent++
	}

	utils.LogInfo("Membership sweep finished", map[string]interface{}{
		"date":             today.String(),
		"scanned":          report.Scanned,
		"skipped":          report.Skipped,
		"reminders_sent":   report.RemindersSent,
		"reminders_failed": report.RemindersFailed,
		"attention":        len(report.Attention),
	})
	return report, nil
}
