package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/membership"
	"gym_crm_backend/pkg/utils"
)

// ErrRenewalTransactionFailed means the store rejected the renewal. Nothing
// was written and the call is safe to retry.
var ErrRenewalTransactionFailed = errors.New("renewal transaction failed")

// maxPricePaid is the largest value membership_renewals.price_paid
// (NUMERIC(12,2)) can hold.
const maxPricePaid = 9999999999.99

// RenewMembershipRequest DTO. The new end date is taken as given so the
// front desk can override the computed one.
type RenewMembershipRequest struct {
	MembershipType   string   `json:"membership_type"`
	RenewalStartDate string   `json:"renewal_start_date"`
	NewEndDate       string   `json:"new_end_date"`
	PricePaid        *float64 `json:"price_paid"`
}

// RenewalResult is the membership window after a successful renewal.
type RenewalResult struct {
	ClientID        int64                `json:"client_id"`
	MembershipType  membership.PlanType  `json:"membership_type"`
	MembershipStart membership.Date      `json:"membership_start"`
	MembershipEnd   membership.Date      `json:"membership_end"`
	Status          membership.Status    `json:"status"`
	DaysRemaining   int                  `json:"days_remaining"`
	Renewal         models.RenewalRecord `json:"renewal"`
}

// RenewalLogRequest bounds the renewal log; both dates are optional and inclusive.
type RenewalLogRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type RenewalService interface {
	RenewMembership(ctx context.Context, clientID int64, req RenewMembershipRequest) (*RenewalResult, error)
	GetRenewalLog(ctx context.Context, req RenewalLogRequest) (*models.RenewalLog, error)
}

type renewalService struct {
	clientRepo  repositories.ClientRepository
	renewalRepo repositories.RenewalRepository
	txRunner    repositories.TxRunner
	now         func() time.Time
}

// NewRenewalService creates a new instance of RenewalService.
func NewRenewalService(clientRepo repositories.ClientRepository, renewalRepo repositories.RenewalRepository, txRunner repositories.TxRunner) RenewalService {
	return &renewalService{
		clientRepo:  clientRepo,
		renewalRepo: renewalRepo,
		txRunner:    txRunner,
		now:         time.Now,
	}
}

type validatedRenewal struct {
	plan  membership.PlanType
	start membership.Date
	end   membership.Date
	price float64
}

func validateRenewal(req RenewMembershipRequest) (*validatedRenewal, error) {
	plan, err := parsePlanField("membership_type", req.MembershipType)
	if err != nil {
		return nil, err
	}
	start, err := parseDateField("renewal_start_date", req.RenewalStartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("new_end_date", req.NewEndDate)
	if err != nil {
		return nil, err
	}
	if req.PricePaid == nil {
		return nil, newFieldError("price_paid", ErrRequiredField)
	}
	price := *req.PricePaid
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fieldErrorf("price_paid", "must be a finite number")
	}
	if price < 0 {
		return nil, fieldErrorf("price_paid", "must not be negative")
	}
	if price > maxPricePaid {
		return nil, fieldErrorf("price_paid", "must not exceed %.2f", maxPricePaid)
	}
	return &validatedRenewal{plan: plan, start: start, end: end, price: price}, nil
}

// RenewMembership rewrites the client's membership window and appends one
// history record, both or neither.
func (s *renewalService) RenewMembership(ctx context.Context, clientID int64, req RenewMembershipRequest) (*RenewalResult, error) {
	input, err := validateRenewal(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.clientRepo.GetClientByID(ctx, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	today := membership.Today(s.now())
	window := models.MembershipWindow{
		Type:   input.plan,
		Start:  input.start,
		End:    input.end,
		Status: membership.ComputeStatus(input.end, today),
	}
	record := models.RenewalRecord{
		ClientID:       clientID,
		MembershipType: input.plan,
		NewEndDate:     input.end,
		RenewalDate:    today,
		PricePaid:      input.price,
	}

	err = s.txRunner.WithTransaction(ctx, func(tx repositories.SQLExecutor) error {
		locked, err := s.clientRepo.LockClientByID(ctx, tx, clientID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		if err := s.clientRepo.UpdateMembership(ctx, tx, clientID, window); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		record.ClientName = locked.Name
		_, err = s.renewalRepo.CreateRenewal(ctx, tx, &record)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		utils.LogError(err, "Membership renewal rolled back", map[string]interface{}{"client_id": clientID})
		return nil, fmt.Errorf("%w: %w", ErrRenewalTransactionFailed, err)
	}

	utils.LogInfo("Membership renewed", map[string]interface{}{
		"client_id":       clientID,
		"membership_type": input.plan.String(),
		"membership_end":  input.end.String(),
		"status":          window.Status.String(),
		"price_paid":      input.price,
	})

	return &RenewalResult{
		ClientID:        clientID,
		MembershipType:  window.Type,
		MembershipStart: window.Start,
		MembershipEnd:   window.End,
		Status:          window.Status,
		DaysRemaining:   membership.DaysRemaining(window.End, today),
		Renewal:         record,
	}, nil
}

func (s *renewalService) GetRenewalLog(ctx context.Context, req RenewalLogRequest) (*models.RenewalLog, error) {
	var filters models.RenewalFilters
	if req.StartDate != "" {
		d, err := parseDateField("start_date", req.StartDate)
		if err != nil {
			return nil, err
		}
		filters.StartDate = &d
	}
	if req.EndDate != "" {
		d, err := parseDateField("end_date", req.EndDate)
		if err != nil {
			return nil, err
		}
		filters.EndDate = &d
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(filters.StartDate.Time) {
		return nil, fieldErrorf("end_date", "must not be before start_date")
	}

	records, err := s.renewalRepo.GetRenewals(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get renewal log: %w", err)
	}

	log := &models.RenewalLog{Records: records, Count: len(records)}
	for _, r := range records {
		log.TotalRevenue += r.PricePaid
	}
	// NUMERIC(12,2) values summed as float64 may pick up noise past the cents.
	log.TotalRevenue = math.Round(log.TotalRevenue*100) / 100
	return log, nil
}
