package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/membership"
)

type DashboardService interface {
	GetSummary(ctx context.Context) (*models.DashboardSummary, error)
}

type dashboardService struct {
	clientRepo  repositories.ClientRepository
	renewalRepo repositories.RenewalRepository
	now         func() time.Time
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(clientRepo repositories.ClientRepository, renewalRepo repositories.RenewalRepository) DashboardService {
	return &dashboardService{clientRepo: clientRepo, renewalRepo: renewalRepo, now: time.Now}
}

// GetSummary counts members per status as of today and totals the renewals
// of the current calendar month.
func (s *dashboardService) GetSummary(ctx context.Context) (*models.DashboardSummary, error) {
	today := membership.Today(s.now())
	summary := &models.DashboardSummary{Date: today}

	clients, err := s.clientRepo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	for _, c := range clients {
		if c.Role == models.RoleAdmin {
			continue
		}
		summary.TotalClients++
		switch membership.ComputeStatus(c.MembershipEnd, today) {
		case membership.StatusActive:
			summary.ActiveClients++
		case membership.StatusExpiringSoon:
			summary.ExpiringSoon++
		case membership.StatusExpired:
			summary.ExpiredClients++
		default:
			summary.UnknownStatus++
		}
	}

	monthStart := membership.NewDate(today.Year(), today.Month(), 1)
	monthEnd := monthStart.AddMonths(1).AddDays(-1)
	count, revenue, err := s.renewalRepo.SumRenewals(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to sum renewals: %w", err)
	}
	summary.RenewalsThisMonth = count
	summary.RevenueThisMonth = math.Round(revenue*100) / 100
	return summary, nil
}
