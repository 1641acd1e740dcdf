package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TxRunner runs a unit of work inside one REPEATABLE READ transaction bounded
// by a timeout. The transaction is rolled back unless fn returns nil.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTxRunner(db *sql.DB, timeout time.Duration) *TxRunner {
	return &TxRunner{db: db, timeout: timeout}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return ClassifyTxError(ctx, txCtx, fmt.Errorf("beginning transaction: %w", err))
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	if err := fn(txCtx, tx); err != nil {
		return ClassifyTxError(ctx, txCtx, err)
	}

	if err := tx.Commit(); err != nil {
		return ClassifyTxError(ctx, txCtx, fmt.Errorf("committing transaction: %w", err))
	}

	return nil
}
