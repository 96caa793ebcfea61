package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/pkg/membership"
)

// RenewalRepository stores the append-only renewal history.
type RenewalRepository interface {
	CreateRenewal(ctx context.Context, executor SQLExecutor, record *models.RenewalRecord) (int64, error)
	GetRenewalsByClientID(ctx context.Context, clientID int64, limit int) ([]models.RenewalRecord, error)
	GetRenewals(ctx context.Context, filters models.RenewalFilters) ([]models.RenewalRecord, error)
	DeleteRenewalsByClientID(ctx context.Context, executor SQLExecutor, clientID int64) (int64, error)
	// SumRenewals returns the number of renewals and revenue in [from, to].
	SumRenewals(ctx context.Context, from, to membership.Date) (int, float64, error)
}

type renewalRepository struct {
	db *sql.DB
}

// NewRenewalRepository creates a new instance of RenewalRepository.
func NewRenewalRepository(db *sql.DB) RenewalRepository {
	return &renewalRepository{db: db}
}

const renewalColumns = `id, client_id, client_name, membership_type, new_end_date, renewal_date, price_paid, created_at`

func scanRenewal(row scanner) (*models.RenewalRecord, error) {
	var record models.RenewalRecord
	var membershipType string
	err := row.Scan(&record.ID, &record.ClientID, &record.ClientName, &membershipType,
		&record.NewEndDate, &record.RenewalDate, &record.PricePaid, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.MembershipType = membership.PlanType(membershipType)
	return &record, nil
}

func collectRenewals(rows *sql.Rows) ([]models.RenewalRecord, error) {
	defer rows.Close()
	records := []models.RenewalRecord{}
	for rows.Next() {
		record, err := scanRenewal(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning renewal: %v", ErrDatabaseError, err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating renewal rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}

// CreateRenewal appends one history entry.
func (r *renewalRepository) CreateRenewal(ctx context.Context, executor SQLExecutor, record *models.RenewalRecord) (int64, error) {
	query := `INSERT INTO membership_renewals
	            (client_id, client_name, membership_type, new_end_date, renewal_date, price_paid, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		record.ClientID, record.ClientName, string(record.MembershipType),
		record.NewEndDate, record.RenewalDate, record.PricePaid, record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating renewal for client ID %d: %v", ErrDatabaseError, record.ClientID, err)
	}
	return record.ID, nil
}

// GetRenewalsByClientID returns the most recent renewals of a client, newest first.
func (r *renewalRepository) GetRenewalsByClientID(ctx context.Context, clientID int64, limit int) ([]models.RenewalRecord, error) {
	query := `SELECT ` + renewalColumns + ` FROM membership_renewals
	          WHERE client_id = $1
	          ORDER BY renewal_date DESC, id DESC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying renewals of client ID %d: %v", ErrDatabaseError, clientID, err)
	}
	return collectRenewals(rows)
}

// GetRenewals lists the renewal log, optionally bounded by renewal date.
func (r *renewalRepository) GetRenewals(ctx context.Context, filters models.RenewalFilters) ([]models.RenewalRecord, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + renewalColumns + ` FROM membership_renewals`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StartDate != nil && !filters.StartDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("renewal_date >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil && !filters.EndDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("renewal_date <= $%d", argCount))
		args = append(args, *filters.EndDate)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY renewal_date DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying renewals: %v", ErrDatabaseError, err)
	}
	return collectRenewals(rows)
}

// DeleteRenewalsByClientID removes a client's history and reports how many
// rows went.
func (r *renewalRepository) DeleteRenewalsByClientID(ctx context.Context, executor SQLExecutor, clientID int64) (int64, error) {
	result, err := executor.ExecContext(ctx, `DELETE FROM membership_renewals WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting renewals of client ID %d: %v", ErrDatabaseError, clientID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for renewals of client ID %d: %v", ErrDatabaseError, clientID, err)
	}
	return deleted, nil
}

func (r *renewalRepository) SumRenewals(ctx context.Context, from, to membership.Date) (int, float64, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(price_paid), 0)::FLOAT8 FROM membership_renewals
	          WHERE renewal_date >= $1 AND renewal_date <= $2`
	var count int
	var revenue float64
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&count, &revenue); err != nil {
		return 0, 0, fmt.Errorf("%w: summing renewals: %v", ErrDatabaseError, err)
	}
	return count, revenue, nil
}
