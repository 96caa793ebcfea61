package models

import (
	"time"

	"gym_crm_backend/pkg/membership"
)

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Client is a gym member.
type Client struct {
	ID              int64               `json:"id"`
	UID             string              `json:"uid"`
	RollNo          *int64              `json:"rollno,omitempty"`
	Name            string              `json:"name"`
	DateOfBirth     *membership.Date    `json:"dob,omitempty"`
	Gender          *string             `json:"gender,omitempty"`
	Phone           *string             `json:"phone,omitempty"`
	Email           string              `json:"email"`
	Address         *string             `json:"address,omitempty"`
	PasswordHash    string              `json:"-"`
	Role            string              `json:"role"`
	MembershipType  membership.PlanType `json:"membership_type"`
	MembershipStart membership.Date     `json:"membership_start"`
	MembershipEnd   membership.Date     `json:"membership_end"`
	Status          membership.Status   `json:"status"`
	DaysRemaining   *int                `json:"days_remaining,omitempty"`
	HasTrainer      bool                `json:"has_trainer"`
	TrainerName     *string             `json:"trainer_name,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// MembershipWindow is the part of a client a renewal rewrites.
type MembershipWindow struct {
	Type   membership.PlanType `json:"membership_type"`
	Start  membership.Date     `json:"membership_start"`
	End    membership.Date     `json:"membership_end"`
	Status membership.Status   `json:"status"`
}

// ClientFilters defines the available filters for listing clients.
type ClientFilters struct {
	Search   *string `form:"search"`
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`

	// Resolved from Status by the service; repositories only see bounds.
	EndFrom membership.Date `form:"-"`
	EndTo   membership.Date `form:"-"`
}
