package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"repuestos/internal/domain"
	apperrors "repuestos/internal/errors"
	"repuestos/internal/infrastructure/mysql"
)

const productColumns = `
	p.id, p.name, p.code, p.brand_id, b.name, p.category_id, c.name,
	p.dimensions, p.notes, p.list_price, p.installed_price, p.stock_quantity,
	p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN categories c ON c.id = p.category_id`

// sortColumns maps each sortable field to its ordering expression. Only
// values from this map ever reach an ORDER BY clause.
var sortColumns = map[domain.SortField]string{
	domain.SortByName:           "p.name",
	domain.SortByCode:           "p.code",
	domain.SortByStockQuantity:  "p.stock_quantity",
	domain.SortByListPrice:      "p.list_price",
	domain.SortByInstalledPrice: "p.installed_price",
}

var sortDirections = map[domain.SortOrder]string{
	domain.SortAsc:  "ASC",
	domain.SortDesc: "DESC",
}

type rowScanner interface {
	Scan(dest ...any) error
}

type MySQLProductRepository struct {
	db *sql.DB
}

func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func (r *MySQLProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = ?`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
		}
		return nil, fmt.Errorf("querying product: %w", err)
	}

	return p, nil
}

// FindByIDForUpdate locks the product row until tx ends. Brand and category
// names are not loaded so the lock stays on the products table.
func (r *MySQLProductRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, code, brand_id, category_id, dimensions, notes,
		       list_price, installed_price, stock_quantity, created_at, updated_at
		FROM products
		WHERE id = ?
		FOR UPDATE`

	var p domain.Product
	err := tx.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Code, &p.BrandID, &p.CategoryID, &p.Dimensions, &p.Notes,
		&p.ListPrice, &p.InstalledPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
		}
		return nil, fmt.Errorf("locking product: %w", err)
	}

	return &p, nil
}

// LockExisting takes a shared lock on every listed product that exists and
// returns their ids. Missing ids are simply absent from the result.
func (r *MySQLProductRepository) LockExisting(ctx context.Context, tx *sql.Tx, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`SELECT id FROM products WHERE id IN (%s) LOCK IN SHARE MODE`, placeholders)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// FindEquivalents returns the products one edge away from id, ordered by
// name. id itself is never part of the result.
func (r *MySQLProductRepository) FindEquivalents(ctx context.Context, id string) ([]domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s %s
		WHERE p.id IN (
			SELECT equivalent_product_id FROM product_equivalences WHERE product_id = ?
			UNION
			SELECT product_id FROM product_equivalences WHERE equivalent_product_id = ?
		)
		ORDER BY p.name ASC, p.id ASC`,
		productColumns, productFrom,
	)

	return r.queryProducts(ctx, query, id, id)
}

func (r *MySQLProductRepository) Insert(ctx context.Context, tx *sql.Tx, p domain.Product) error {
	query := `
		INSERT INTO products (id, name, code, brand_id, category_id, dimensions, notes,
		                      list_price, installed_price, stock_quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, query,
		p.ID, p.Name, p.Code, p.BrandID, p.CategoryID, p.Dimensions, p.Notes,
		p.ListPrice, p.InstalledPrice, p.StockQuantity,
	)
	if err != nil {
		if mysql.IsForeignKeyViolation(err) {
			return apperrors.NewNotFoundError("brand or category not found")
		}
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

// Update writes the descriptive fields. The stock quantity is left alone.
func (r *MySQLProductRepository) Update(ctx context.Context, tx *sql.Tx, p domain.Product) error {
	query := `
		UPDATE products
		SET name = ?, code = ?, brand_id = ?, category_id = ?, dimensions = ?, notes = ?,
		    list_price = ?, installed_price = ?
		WHERE id = ?`

	_, err := tx.ExecContext(ctx, query,
		p.Name, p.Code, p.BrandID, p.CategoryID, p.Dimensions, p.Notes,
		p.ListPrice, p.InstalledPrice, p.ID,
	)
	if err != nil {
		if mysql.IsForeignKeyViolation(err) {
			return apperrors.NewNotFoundError("brand or category not found")
		}
		return fmt.Errorf("updating product: %w", err)
	}

	return nil
}

func (r *MySQLProductRepository) UpdateStockQuantity(ctx context.Context, tx *sql.Tx, id string, quantity int) error {
	query := `UPDATE products SET stock_quantity = ? WHERE id = ?`

	if _, err := tx.ExecContext(ctx, query, quantity, id); err != nil {
		return fmt.Errorf("updating stock quantity: %w", err)
	}

	return nil
}

// DeleteWithDependents removes the product together with its movements,
// vehicle applications and supplier links. Equivalence rows cascade.
func (r *MySQLProductRepository) DeleteWithDependents(ctx context.Context, tx *sql.Tx, id string) error {
	dependents := []string{"stock_movements", "product_applications", "product_suppliers"}
	for _, table := range dependents {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE product_id = ?", table), id); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
	}

	return nil
}

// expandedMatches selects every product whose name or code contains the
// pattern plus every product one equivalence edge away from such a match.
// Each half of the CTE binds the pattern twice.
const expandedMatches = `
	WITH direct AS (
		SELECT id FROM products
		WHERE LOWER(name) LIKE ? ESCAPE '!'
		   OR LOWER(COALESCE(code, '')) LIKE ? ESCAPE '!'
	),
	expanded AS (
		SELECT id FROM direct
		UNION
		SELECT e.equivalent_product_id FROM product_equivalences e JOIN direct d ON e.product_id = d.id
		UNION
		SELECT e.product_id FROM product_equivalences e JOIN direct d ON e.equivalent_product_id = d.id
	)`

// searchQueries builds the count and page statements for a term search. The
// number of bind parameters is fixed no matter how many products match.
func searchQueries(term string, params domain.ProductListParams) (countSQL string, countArgs []any, pageSQL string, pageArgs []any, err error) {
	orderBy, err := orderClause(params.SortBy, params.SortOrder)
	if err != nil {
		return "", nil, "", nil, err
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	countSQL = expandedMatches + ` SELECT COUNT(*) FROM expanded`
	countArgs = []any{pattern, pattern}

	pageSQL = fmt.Sprintf(`%s SELECT %s %s WHERE p.id IN (SELECT id FROM expanded) %s LIMIT ? OFFSET ?`,
		expandedMatches, productColumns, productFrom, orderBy,
	)
	pageArgs = []any{pattern, pattern, params.PageSize, params.Offset()}

	return countSQL, countArgs, pageSQL, pageArgs, nil
}

// Search pages over the products matching term, widened by one equivalence
// hop. total is the size of the widened set.
func (r *MySQLProductRepository) Search(ctx context.Context, term string, params domain.ProductListParams) ([]domain.Product, int, error) {
	countSQL, countArgs, pageSQL, pageArgs, err := searchQueries(term, params)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting search results: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	products, err := r.queryProducts(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// List returns one page of the whole catalog and the catalog size.
func (r *MySQLProductRepository) List(ctx context.Context, params domain.ProductListParams) ([]domain.Product, int, error) {
	orderBy, err := orderClause(params.SortBy, params.SortOrder)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s %s %s LIMIT ? OFFSET ?`, productColumns, productFrom, orderBy)
	products, err := r.queryProducts(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *MySQLProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &p.BrandID, &p.BrandName, &p.CategoryID, &p.CategoryName,
		&p.Dimensions, &p.Notes, &p.ListPrice, &p.InstalledPrice, &p.StockQuantity,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

func orderClause(field domain.SortField, order domain.SortOrder) (string, error) {
	column, ok := sortColumns[field]
	if !ok {
		return "", apperrors.NewValidationError("invalid sort field", apperrors.ValidationDetail{
			Field:   "sortBy",
			Message: fmt.Sprintf("cannot sort by %q", field),
		})
	}
	direction, ok := sortDirections[order]
	if !ok {
		return "", apperrors.NewValidationError("invalid sort order", apperrors.ValidationDetail{
			Field:   "sortOrder",
			Message: fmt.Sprintf("unknown sort order %q", order),
		})
	}
	return fmt.Sprintf("ORDER BY %s %s, p.id %s", column, direction, direction), nil
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

// escapeLike neutralises LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
