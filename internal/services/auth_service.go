package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	Admin       *models.Admin `json:"admin"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetAdminProfile(ctx context.Context, adminID int64) (*models.Admin, error)
	// EnsureDefaultAdmin creates the configured admin account unless one
	// with that email already exists.
	EnsureDefaultAdmin(ctx context.Context, email, password string) error
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	txRunner repositories.TxRunner
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, txRunner repositories.TxRunner, tokens *utils.TokenManager) AuthService {
	return &authService{
		authRepo: authRepo,
		txRunner: txRunner,
		tokens:   tokens,
	}
}

// Login checks the password and issues an access token.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	admin, storedHashedPassword, err := s.authRepo.FindAdminByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	utils.LogInfo("Admin logged in", map[string]interface{}{"admin_id": admin.ID})
	return &AuthResponse{
		Admin:       admin,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// GetAdminProfile retrieves an admin's profile by ID.
func (s *authService) GetAdminProfile(ctx context.Context, adminID int64) (*models.Admin, error) {
	admin, err := s.authRepo.FindAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to retrieve admin profile: %w", err)
	}
	return admin, nil
}

func (s *authService) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		utils.LogWarn("Default admin credentials not configured, skipping seed")
		return nil
	}

	_, _, err := s.authRepo.FindAdminByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up default admin: %w", err)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{Email: email, Role: models.RoleAdmin}
	err = s.txRunner.WithTransaction(ctx, func(tx repositories.SQLExecutor) error {
		_, err := s.authRepo.CreateAdmin(ctx, tx, admin, string(hashedPasswordBytes))
		return err
	})
	if err != nil {
		// Another instance seeded it first.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	utils.LogInfo("Default admin account created", map[string]interface{}{"admin_id": admin.ID, "email": email})
	return nil
}
