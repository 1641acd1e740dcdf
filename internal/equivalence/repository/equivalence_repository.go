package repository

import (
	"context"
	"database/sql"
	"fmt"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/infrastructure/mysql"
)

type MySQLEquivalenceRepository struct {
	db *sql.DB
}

func NewMySQLEquivalenceRepository(db *sql.DB) *MySQLEquivalenceRepository {
	return &MySQLEquivalenceRepository{db: db}
}

// Insert stores a normalized pair. It reports false when the pair already
// exists, which is not an error.
func (r *MySQLEquivalenceRepository) Insert(ctx context.Context, tx *sql.Tx, pair domain.EquivalencePair) (bool, error) {
	query := `
		INSERT INTO product_equivalences (id, product_id, equivalent_product_id)
		VALUES (?, ?, ?)`

	_, err := tx.ExecContext(ctx, query, pair.ID, pair.ProductID, pair.EquivalentProductID)
	if err != nil {
		if mysql.IsDuplicateKey(err) {
			return false, nil
		}
		if mysql.IsForeignKeyViolation(err) {
			return false, apperrors.NewNotFoundError("equivalent product not found")
		}
		return false, fmt.Errorf("inserting equivalence: %w", err)
	}

	return true, nil
}

// NeighborsOf returns the products one edge away from id.
func (r *MySQLEquivalenceRepository) NeighborsOf(ctx context.Context, id string) ([]string, error) {
	query := `
		SELECT equivalent_product_id FROM product_equivalences WHERE product_id = ?
		UNION
		SELECT product_id FROM product_equivalences WHERE equivalent_product_id = ?`

	rows, err := r.db.QueryContext(ctx, query, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying equivalences: %w", err)
	}
	defer rows.Close()

	var neighbors []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning equivalence row: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating equivalence rows: %w", err)
	}

	return neighbors, nil
}

// CountEdges returns how many rows join a and b in either orientation.
func (r *MySQLEquivalenceRepository) CountEdges(ctx context.Context, a, b string) (int, error) {
	query := `
		SELECT COUNT(*) FROM product_equivalences
		WHERE (product_id = ? AND equivalent_product_id = ?)
		   OR (product_id = ? AND equivalent_product_id = ?)`

	var n int
	if err := r.db.QueryRowContext(ctx, query, a, b, b, a).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting equivalences: %w", err)
	}
	return n, nil
}
