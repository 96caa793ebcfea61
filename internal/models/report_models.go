package models

import "gym_crm_backend/pkg/membership"

// DashboardSummary is the membership overview shown after login.
type DashboardSummary struct {
	Date              membership.Date `json:"date"`
	TotalClients      int             `json:"total_clients"`
	ActiveClients     int             `json:"active_clients"`
	ExpiringSoon      int             `json:"expiring_soon"`
	ExpiredClients    int             `json:"expired_clients"`
	UnknownStatus     int             `json:"unknown_status"`
	RenewalsThisMonth int             `json:"renewals_this_month"`
	RevenueThisMonth  float64         `json:"revenue_this_month"`
}
