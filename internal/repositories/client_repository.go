package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/pkg/membership"
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(ctx context.Context, executor SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	// LockClientByID reads the client row and holds a row lock until the
	// surrounding transaction ends.
	LockClientByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Client, error)
	FindConflictingClient(ctx context.Context, rollNo *int64, email string, excludeID int64) (*models.Client, error)
	GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) // Clients, total count, error
	ListClients(ctx context.Context) ([]models.Client, error)
	UpdateClient(ctx context.Context, executor SQLExecutor, client *models.Client) error
	UpdateMembership(ctx context.Context, executor SQLExecutor, id int64, window models.MembershipWindow) error
	DeleteClient(ctx context.Context, executor SQLExecutor, id int64) error
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, uid, rollno, name, dob, gender, phone, email, password_hash,
	membership_type, membership_start, membership_end, role, status, address,
	has_trainer, trainer_name, created_at, updated_at`

// scanClient scans one client row; extra receives any trailing columns
// (e.g. a window COUNT) selected after clientColumns.
func scanClient(row scanner, extra ...interface{}) (*models.Client, error) {
	var (
		client         models.Client
		rollNo         sql.NullInt64
		dob            membership.Date
		membershipType string
		status         sql.NullString
	)
	dest := []interface{}{
		&client.ID, &client.UID, &rollNo, &client.Name, &dob, &client.Gender, &client.Phone,
		&client.Email, &client.PasswordHash, &membershipType, &client.MembershipStart,
		&client.MembershipEnd, &client.Role, &status, &client.Address, &client.HasTrainer,
		&client.TrainerName, &client.CreatedAt, &client.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if rollNo.Valid {
		client.RollNo = &rollNo.Int64
	}
	if !dob.IsZero() {
		client.DateOfBirth = &dob
	}
	client.MembershipType = membership.PlanType(membershipType)
	client.Status = membership.StatusUnknown
	if status.Valid {
		client.Status = membership.Status(status.String)
	}
	return &client, nil
}

func nullableDate(d *membership.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

// CreateClient inserts a new client into the database.
func (r *clientRepository) CreateClient(ctx context.Context, executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (uid, rollno, name, dob, gender, phone, email, password_hash,
	            membership_type, membership_start, membership_end, role, status, address,
	            has_trainer, trainer_name, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	          RETURNING id`

	currentTime := time.Now()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = currentTime
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = currentTime
	}
	if client.Role == "" {
		client.Role = models.RoleClient
	}

	err := executor.QueryRowContext(ctx, query,
		client.UID, client.RollNo, client.Name, nullableDate(client.DateOfBirth), client.Gender,
		client.Phone, client.Email, client.PasswordHash, string(client.MembershipType),
		client.MembershipStart, client.MembershipEnd, client.Role, string(client.Status),
		client.Address, client.HasTrainer, client.TrainerName, client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating client")
	}
	return client.ID, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

func (r *clientRepository) LockClientByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 FOR UPDATE`
	client, err := scanClient(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking client ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// FindConflictingClient returns a client other than excludeID that already
// uses the email or roll number. Pass excludeID 0 when creating.
func (r *clientRepository) FindConflictingClient(ctx context.Context, rollNo *int64, email string, excludeID int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients
	          WHERE id <> $1 AND (LOWER(email) = LOWER($2) OR ($3::BIGINT IS NOT NULL AND rollno = $3))
	          ORDER BY id LIMIT 1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, excludeID, email, rollNo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: checking client uniqueness: %v", ErrDatabaseError, err)
	}
	return client, nil
}

// GetClients retrieves a list of clients with pagination, search and an
// optional membership_end range.
func (r *clientRepository) GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + clientColumns + `, COUNT(*) OVER() AS total_count FROM clients`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		searchPattern := "%" + strings.ToLower(strings.TrimSpace(*filters.Search)) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR COALESCE(phone, '') LIKE $%d OR COALESCE(rollno::TEXT, '') LIKE $%d)",
			argCount, argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}
	if !filters.EndFrom.IsZero() {
		conditions = append(conditions, fmt.Sprintf("membership_end >= $%d", argCount))
		args = append(args, filters.EndFrom)
		argCount++
	}
	if !filters.EndTo.IsZero() {
		conditions = append(conditions, fmt.Sprintf("membership_end <= $%d", argCount))
		args = append(args, filters.EndTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY name ASC, id ASC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		client, err := scanClient(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, *client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

// ListClients returns every client, including admin-role rows.
func (r *clientRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, nil
}

// UpdateClient writes every mutable column of the client.
func (r *clientRepository) UpdateClient(ctx context.Context, executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET
	            email = $1, phone = $2, address = $3, dob = $4,
	            membership_type = $5, membership_start = $6, membership_end = $7, status = $8,
	            has_trainer = $9, trainer_name = $10, updated_at = $11
	          WHERE id = $12`

	client.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		client.Email, client.Phone, client.Address, nullableDate(client.DateOfBirth),
		string(client.MembershipType), client.MembershipStart, client.MembershipEnd, string(client.Status),
		client.HasTrainer, client.TrainerName, client.UpdatedAt, client.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating client ID %d", client.ID))
	}
	return expectOneRow(result, fmt.Sprintf("updating client ID %d", client.ID))
}

// UpdateMembership rewrites only the membership window of a client.
func (r *clientRepository) UpdateMembership(ctx context.Context, executor SQLExecutor, id int64, window models.MembershipWindow) error {
	query := `UPDATE clients SET
	            membership_start = $1, membership_end = $2, membership_type = $3, status = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.ExecContext(ctx, query,
		window.Start, window.End, string(window.Type), string(window.Status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: updating membership of client ID %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, fmt.Sprintf("updating membership of client ID %d", id))
}

// DeleteClient removes a client row. Renewal history goes with it through
// the foreign key cascade.
func (r *clientRepository) DeleteClient(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting client ID %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, fmt.Sprintf("deleting client ID %d", id))
}
