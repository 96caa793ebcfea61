package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
)

// AuthRepository defines the interface for admin account database operations.
type AuthRepository interface {
	CreateAdmin(ctx context.Context, executor SQLExecutor, admin *models.Admin, hashedPassword string) (int64, error)
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, string, error) // Returns Admin, HashedPassword, Error
	FindAdminByID(ctx context.Context, adminID int64) (*models.Admin, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateAdmin inserts a new admin account. Emails are stored lower-cased.
func (r *authRepository) CreateAdmin(ctx context.Context, executor SQLExecutor, admin *models.Admin, hashedPassword string) (int64, error) {
	query := `INSERT INTO admins (email, password_hash, role, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if admin.Role == "" {
		admin.Role = models.RoleAdmin
	}
	admin.CreatedAt = time.Now()

	err := executor.QueryRowContext(ctx, query, admin.Email, hashedPassword, admin.Role, admin.CreatedAt).Scan(&admin.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating admin")
	}
	return admin.ID, nil
}

// FindAdminByEmail retrieves an admin together with the stored password hash.
func (r *authRepository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, string, error) {
	admin := &models.Admin{}
	var hashedPassword string
	query := `SELECT id, email, password_hash, role, created_at FROM admins WHERE email = $1`

	err := r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&admin.ID, &admin.Email, &hashedPassword, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding admin by email: %v", ErrDatabaseError, err)
	}
	return admin, hashedPassword, nil
}

// FindAdminByID retrieves an admin profile. The password hash is not loaded.
func (r *authRepository) FindAdminByID(ctx context.Context, adminID int64) (*models.Admin, error) {
	admin := &models.Admin{}
	query := `SELECT id, email, role, created_at FROM admins WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, adminID).Scan(&admin.ID, &admin.Email, &admin.Role, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding admin by ID %d: %v", ErrDatabaseError, adminID, err)
	}
	return admin, nil
}
