package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"repuestos/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/repuestos_test?parseTime=true&loc=UTC&charset=utf8mb4"

// SetupTestDB abre la BD de prueba indicada por TEST_DATABASE_DSN
// (por defecto 'repuestos_test' en localhost:3306) y salta el test si no responde.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// SetupTestTables crea el esquema completo
func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := mysql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	truncateAll(t, db)
}

// CleanupTestDB limpia la BD de prueba y cierra la conexión
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	truncateAll(t, db)
	db.Close()
}

func truncateAll(t *testing.T, db *sql.DB) {
	for i := len(mysql.Schema) - 1; i >= 0; i-- {
		table := mysql.Schema[i].Name
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// InsertProduct inserta un producto directamente y devuelve su id.
// No registra movimientos.
func InsertProduct(t *testing.T, db *sql.DB, name, code string, stock int) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO products (id, name, code, list_price, installed_price, stock_quantity)
		VALUES (?, ?, ?, 100.00, 120.00, ?)`,
		id, name, code, stock,
	)
	if err != nil {
		t.Fatalf("failed to insert product %s: %v", name, err)
	}
	return id
}

// InsertManyProducts inserta n productos llamados "<prefix> <i>" con una
// sola sentencia. Sirve para búsquedas con muchas coincidencias.
func InsertManyProducts(t *testing.T, db *sql.DB, prefix string, n int) {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("failed to get connection: %v", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("SET SESSION cte_max_recursion_depth = %d", n+1)); err != nil {
		t.Fatalf("failed to raise recursion depth: %v", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO products (id, name, code, list_price, installed_price, stock_quantity)
		WITH RECURSIVE seq (n) AS (
			SELECT 1
			UNION ALL
			SELECT n + 1 FROM seq WHERE n < ?
		)
		SELECT UUID(), CONCAT(?, ' ', n), NULL, 100.00, 120.00, 0 FROM seq`,
		n, prefix,
	)
	if err != nil {
		t.Fatalf("failed to insert %d products: %v", n, err)
	}
}

// StockOf lee la cantidad almacenada de un producto.
func StockOf(t *testing.T, db *sql.DB, productID string) int {
	t.Helper()

	var qty int
	if err := db.QueryRow("SELECT stock_quantity FROM products WHERE id = ?", productID).Scan(&qty); err != nil {
		t.Fatalf("failed to read stock of %s: %v", productID, err)
	}
	return qty
}

// CountRows cuenta filas de una tabla que cumplen la condición dada.
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()

	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
