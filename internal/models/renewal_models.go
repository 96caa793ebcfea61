package models

import (
	"time"

	"gym_crm_backend/pkg/membership"
)

// RenewalRecord is one append-only entry of a client's renewal history.
type RenewalRecord struct {
	ID             int64               `json:"id"`
	ClientID       int64               `json:"client_id"`
	ClientName     string              `json:"client_name"`
	MembershipType membership.PlanType `json:"membership_type"`
	NewEndDate     membership.Date     `json:"new_end_date"`
	RenewalDate    membership.Date     `json:"renewal_date"`
	PricePaid      float64             `json:"price_paid"`
	CreatedAt      time.Time           `json:"created_at"`
}

// RenewalFilters bounds the renewal log by renewal date, both ends inclusive.
type RenewalFilters struct {
	StartDate *membership.Date
	EndDate   *membership.Date
}

// RenewalLog is the revenue log returned to the dashboard.
type RenewalLog struct {
	Records      []RenewalRecord `json:"records"`
	Count        int             `json:"count"`
	TotalRevenue float64         `json:"total_revenue"`
}
