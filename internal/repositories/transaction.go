package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gym_crm_backend/pkg/utils"
)

// TxRunner scopes a group of repository writes to one transaction.
type TxRunner interface {
	// WithTransaction runs fn inside a transaction. It commits when fn
	// returns nil and rolls back otherwise; fn's error is returned as is.
	WithTransaction(ctx context.Context, fn func(tx SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner backed by the connection pool.
func NewTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) WithTransaction(ctx context.Context, fn func(tx SQLExecutor) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			utils.LogError(rbErr, "Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
