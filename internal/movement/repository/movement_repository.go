package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
)

type MySQLMovementRepository struct {
	db *sql.DB
}

func NewMySQLMovementRepository(db *sql.DB) *MySQLMovementRepository {
	return &MySQLMovementRepository{db: db}
}

func (r *MySQLMovementRepository) Insert(ctx context.Context, tx *sql.Tx, m domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, quantity, movement_type, reason, date, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, query,
		m.ID, m.ProductID, m.Quantity, string(m.MovementType), m.Reason, m.Date, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("inserting stock movement: %w", err)
	}

	return nil
}

// ListByProduct returns one page of a product's history, newest first, and the
// number of movements matching the filters.
func (r *MySQLMovementRepository) ListByProduct(ctx context.Context, params domain.MovementListParams) ([]domain.StockMovement, int, error) {
	conditions := []string{"product_id = ?"}
	args := []any{params.ProductID}

	if params.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *params.StartDate)
	}
	if params.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *params.EndDate)
	}
	if params.MovementType != nil {
		conditions = append(conditions, "movement_type = ?")
		args = append(args, string(*params.MovementType))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM stock_movements WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting stock movements: %w", err)
	}

	query := `
		SELECT id, product_id, quantity, movement_type, reason, date, user_id, created_at
		FROM stock_movements
		WHERE ` + where + `
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), params.PageSize, params.Offset())

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying stock movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		var movementType string
		err := rows.Scan(&m.ID, &m.ProductID, &m.Quantity, &movementType, &m.Reason, &m.Date, &m.UserID, &m.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning stock movement row: %w", err)
		}
		m.MovementType = domain.MovementType(movementType)
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating stock movement rows: %w", err)
	}

	return movements, total, nil
}

// Reconcile reads the stored quantity and the ledger sum in one statement so
// both come from the same snapshot.
func (r *MySQLMovementRepository) Reconcile(ctx context.Context, productID string) (*domain.LedgerReport, error) {
	query := `
		SELECT p.stock_quantity, CAST(COALESCE(SUM(m.quantity), 0) AS SIGNED), COUNT(m.id)
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id
		WHERE p.id = ?
		GROUP BY p.id, p.stock_quantity`

	report := domain.LedgerReport{ProductID: productID}
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&report.StockQuantity, &report.LedgerSum, &report.MovementCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", productID))
		}
		return nil, fmt.Errorf("reconciling ledger: %w", err)
	}

	return &report, nil
}
