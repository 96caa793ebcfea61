package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/membership"
	"gym_crm_backend/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound = errors.New("client not found")
	ErrRollNoExists   = errors.New("roll number already exists")
	ErrEmailExists    = errors.New("email already exists")
)

const (
	defaultPageSize     = 20
	maxPageSize         = 100
	defaultHistoryLimit = 5
	maxHistoryLimit     = 100
)

// --- Client DTOs ---

type CreateClientRequest struct {
	RollNo         *int64  `json:"rollno" validate:"omitempty,gt=0"`
	Name           string  `json:"name" validate:"required"`
	DateOfBirth    string  `json:"dob" validate:"required"`
	Gender         *string `json:"gender"`
	Phone          *string `json:"phone"`
	Email          string  `json:"email" validate:"required,email"`
	Address        *string `json:"address"`
	MembershipType string  `json:"membership_type" validate:"required"`
	StartDate      string  `json:"start_date" validate:"required"`
	HasTrainer     bool    `json:"has_trainer"`
	TrainerName    *string `json:"trainer_name"`
}

// CreateClientResult carries the temporary password, which is only ever
// available at creation time.
type CreateClientResult struct {
	Client            *models.Client `json:"client"`
	TemporaryPassword string         `json:"temporary_password"`
}

// UpdateClientRequest enumerates exactly the fields an admin may change.
// A nil pointer leaves the stored value untouched.
type UpdateClientRequest struct {
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	DateOfBirth    *string `json:"dob"`
	MembershipType *string `json:"membership_type"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	HasTrainer     *bool   `json:"has_trainer"`
	TrainerName    *string `json:"trainer_name"`
}

var mutableClientFields = map[string]bool{
	"email": true, "phone": true, "address": true, "dob": true,
	"membership_type": true, "start_date": true, "end_date": true,
	"has_trainer": true, "trainer_name": true,
}

var immutableClientFields = map[string]bool{
	"id": true, "uid": true, "rollno": true, "name": true,
	"gender": true, "role": true, "status": true,
}

// DecodeUpdateClientRequest reads a JSON object and rejects any key that is
// not a mutable client field instead of silently dropping it.
func DecodeUpdateClientRequest(r io.Reader) (UpdateClientRequest, error) {
	var req UpdateClientRequest

	body, err := io.ReadAll(r)
	if err != nil {
		return req, fmt.Errorf("%w: reading body: %v", ErrValidation, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, fmt.Errorf("%w: malformed JSON body: %v", ErrValidation, err)
	}
	if len(raw) == 0 {
		return req, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if immutableClientFields[k] {
			return req, newFieldError(k, ErrImmutableField)
		}
		if !mutableClientFields[k] {
			return req, newFieldError(k, ErrUnknownField)
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return req, nil
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*CreateClientResult, error)
	GetClientByID(ctx context.Context, clientID int64) (*models.Client, error)
	GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error)
	UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(ctx context.Context, clientID int64) error
	GetClientRenewals(ctx context.Context, clientID int64, limit int) ([]models.RenewalRecord, error)
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo  repositories.ClientRepository
	renewalRepo repositories.RenewalRepository
	txRunner    repositories.TxRunner
	now         func() time.Time
}

// NewClientService creates a new instance of ClientService.
func NewClientService(clientRepo repositories.ClientRepository, renewalRepo repositories.RenewalRepository, txRunner repositories.TxRunner) ClientService {
	return &clientService{
		clientRepo:  clientRepo,
		renewalRepo: renewalRepo,
		txRunner:    txRunner,
		now:         time.Now,
	}
}

func (s *clientService) today() membership.Date {
	return membership.Today(s.now())
}

// annotate replaces the stored status snapshot with the value for today.
func annotate(client *models.Client, today membership.Date) {
	client.Status = membership.ComputeStatus(client.MembershipEnd, today)
	client.DaysRemaining = nil
	if !client.MembershipEnd.IsZero() {
		days := membership.DaysRemaining(client.MembershipEnd, today)
		client.DaysRemaining = &days
	}
}

// mapDuplicateKey turns a unique violation into the service error for the clashing column.
func mapDuplicateKey(err error) error {
	switch {
	case strings.Contains(err.Error(), "clients_rollno_key"):
		return ErrRollNoExists
	case strings.Contains(err.Error(), "clients_email_key"):
		return ErrEmailExists
	}
	return fmt.Errorf("%w: %s", ErrEmailExists, "email or roll number already taken")
}

func (s *clientService) checkUniqueness(ctx context.Context, rollNo *int64, email string, excludeID int64) error {
	existing, err := s.clientRepo.FindConflictingClient(ctx, rollNo, email, excludeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check client uniqueness: %w", err)
	}
	if rollNo != nil && existing.RollNo != nil && *existing.RollNo == *rollNo {
		return ErrRollNoExists
	}
	return ErrEmailExists
}

func parseDateField(field, value string) (membership.Date, error) {
	if strings.TrimSpace(value) == "" {
		return membership.Date{}, newFieldError(field, ErrRequiredField)
	}
	d, err := membership.ParseDate(value)
	if err != nil {
		return membership.Date{}, newFieldError(field, err)
	}
	return d, nil
}

func parsePlanField(field, value string) (membership.PlanType, error) {
	if strings.TrimSpace(value) == "" {
		return "", newFieldError(field, ErrRequiredField)
	}
	plan, err := membership.ParsePlanType(value)
	if err != nil {
		return "", newFieldError(field, err)
	}
	return plan, nil
}

// generateTemporaryPassword returns a random 12 character password.
func generateTemporaryPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *clientService) CreateClient(ctx context.Context, req CreateClientRequest) (*CreateClientResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	dob, err := parseDateField("dob", req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	today := s.today()
	if dob.After(today.Time) {
		return nil, fieldErrorf("dob", "date of birth cannot be in the future")
	}
	plan, err := parsePlanField("membership_type", req.MembershipType)
	if err != nil {
		return nil, err
	}
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := membership.ComputeEndDate(start, plan)
	if err != nil {
		return nil, newFieldError("membership_type", err)
	}

	trainerName := utils.TrimToNil(req.TrainerName)
	if req.HasTrainer && trainerName == nil {
		return nil, newFieldError("trainer_name", ErrRequiredField)
	}
	if !req.HasTrainer {
		trainerName = nil
	}

	if err := s.checkUniqueness(ctx, req.RollNo, req.Email, 0); err != nil {
		return nil, err
	}

	password := generateTemporaryPassword()
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	client := &models.Client{
		UID:             uuid.NewString(),
		RollNo:          req.RollNo,
		Name:            req.Name,
		DateOfBirth:     dob.Ptr(),
		Gender:          utils.TrimToNil(req.Gender),
		Phone:           utils.TrimToNil(req.Phone),
		Email:           req.Email,
		Address:         utils.TrimToNil(req.Address),
		PasswordHash:    string(hashedPasswordBytes),
		Role:            models.RoleClient,
		MembershipType:  plan,
		MembershipStart: start,
		MembershipEnd:   end,
		Status:          membership.ComputeStatus(end, today),
		HasTrainer:      req.HasTrainer,
		TrainerName:     trainerName,
	}

	err = s.txRunner.WithTransaction(ctx, func(tx repositories.SQLExecutor) error {
		_, err := s.clientRepo.CreateClient(ctx, tx, client)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, mapDuplicateKey(err)
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	utils.LogInfo("Client created", map[string]interface{}{
		"client_id": client.ID, "membership_type": plan.String(), "membership_end": end.String(),
	})
	annotate(client, today)
	return &CreateClientResult{Client: client, TemporaryPassword: password}, nil
}

func (s *clientService) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	annotate(client, s.today())
	return client, nil
}

// NormalizePagination applies the default page and clamps the page size.
func NormalizePagination(filters *models.ClientFilters) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
}

// GetClients lists clients. A status filter is translated into a
// membership_end range so the database applies the same rule as ComputeStatus.
func (s *clientService) GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) {
	NormalizePagination(&filters)

	today := s.today()
	if filters.Status != nil && strings.TrimSpace(*filters.Status) != "" {
		status, err := membership.ParseStatus(*filters.Status)
		if err != nil {
			return nil, 0, newFieldError("status", err)
		}
		from, to, ok := membership.EndDateBounds(status, today)
		if !ok {
			// membership_end is NOT NULL, so no stored client is unknown.
			return []models.Client{}, 0, nil
		}
		filters.EndFrom, filters.EndTo = from, to
	}

	clients, total, err := s.clientRepo.GetClients(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	for i := range clients {
		annotate(&clients[i], today)
	}
	return clients, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error) {
	var normalizedEmail string
	if req.Email != nil {
		normalizedEmail = strings.ToLower(strings.TrimSpace(*req.Email))
		if err := validate.Var(normalizedEmail, "required,email"); err != nil {
			return nil, fieldErrorf("email", "must be a valid email address")
		}
		if err := s.checkUniqueness(ctx, nil, normalizedEmail, clientID); err != nil {
			return nil, err
		}
	}

	today := s.today()
	var updated *models.Client
	err := s.txRunner.WithTransaction(ctx, func(tx repositories.SQLExecutor) error {
		client, err := s.clientRepo.LockClientByID(ctx, tx, clientID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		if err := applyClientUpdate(client, req, normalizedEmail, today); err != nil {
			return err
		}
		if err := s.clientRepo.UpdateClient(ctx, tx, client); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		updated = client
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrClientNotFound), errors.Is(err, ErrValidation):
			return nil, err
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, mapDuplicateKey(err)
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	annotate(updated, today)
	return updated, nil
}

// applyClientUpdate mutates client in place. When the plan or start date
// changes without an explicit end date, the end date is recomputed.
func applyClientUpdate(client *models.Client, req UpdateClientRequest, email string, today membership.Date) error {
	if req.Email != nil {
		client.Email = email
	}
	if req.Phone != nil {
		client.Phone = utils.TrimToNil(req.Phone)
	}
	if req.Address != nil {
		client.Address = utils.TrimToNil(req.Address)
	}
	if req.DateOfBirth != nil {
		dob, err := parseDateField("dob", *req.DateOfBirth)
		if err != nil {
			return err
		}
		if dob.After(today.Time) {
			return fieldErrorf("dob", "date of birth cannot be in the future")
		}
		client.DateOfBirth = dob.Ptr()
	}

	windowChanged := false
	if req.MembershipType != nil {
		plan, err := parsePlanField("membership_type", *req.MembershipType)
		if err != nil {
			return err
		}
		windowChanged = windowChanged || plan != client.MembershipType
		client.MembershipType = plan
	}
	if req.StartDate != nil {
		start, err := parseDateField("start_date", *req.StartDate)
		if err != nil {
			return err
		}
		windowChanged = windowChanged || !start.Equal(client.MembershipStart)
		client.MembershipStart = start
	}
	if req.EndDate != nil {
		end, err := parseDateField("end_date", *req.EndDate)
		if err != nil {
			return err
		}
		client.MembershipEnd = end
	} else if windowChanged {
		end, err := membership.ComputeEndDate(client.MembershipStart, client.MembershipType)
		if err != nil {
			return newFieldError("membership_type", err)
		}
		client.MembershipEnd = end
	}
	if client.MembershipEnd.Before(client.MembershipStart.Time) {
		return fieldErrorf("end_date", "must not be before start_date")
	}

	if req.HasTrainer != nil {
		client.HasTrainer = *req.HasTrainer
	}
	if req.TrainerName != nil {
		client.TrainerName = utils.TrimToNil(req.TrainerName)
	}
	if !client.HasTrainer {
		client.TrainerName = nil
	} else if client.TrainerName == nil {
		return newFieldError("trainer_name", ErrRequiredField)
	}

	client.Status = membership.ComputeStatus(client.MembershipEnd, today)
	return nil
}

// DeleteClient removes the client and its renewal history in one transaction.
func (s *clientService) DeleteClient(ctx context.Context, clientID int64) error {
	var deletedRenewals int64
	err := s.txRunner.WithTransaction(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.clientRepo.LockClientByID(ctx, tx, clientID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		n, err := s.renewalRepo.DeleteRenewalsByClientID(ctx, tx, clientID)
		if err != nil {
			return err
		}
		deletedRenewals = n
		if err := s.clientRepo.DeleteClient(ctx, tx, clientID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClientNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}

	utils.LogInfo("Client deleted", map[string]interface{}{
		"client_id": clientID, "renewals_deleted": deletedRenewals,
	})
	return nil
}

// GetClientRenewals returns the newest renewals of a client. limit <= 0
// selects the default of five.
func (s *clientService) GetClientRenewals(ctx context.Context, clientID int64, limit int) ([]models.RenewalRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if _, err := s.clientRepo.GetClientByID(ctx, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	records, err := s.renewalRepo.GetRenewalsByClientID(ctx, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get renewal history: %w", err)
	}
	return records, nil
}
