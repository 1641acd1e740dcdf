package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema lists the tables in creation order. Deleting a product removes its
// movements, applications and supplier links explicitly; equivalence rows go
// through ON DELETE CASCADE.
var Schema = []struct {
	Name  string
	Query string
}{
	{"brands", `
	CREATE TABLE IF NOT EXISTS brands (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_brands_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"categories", `
	CREATE TABLE IF NOT EXISTS categories (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_categories_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"products", `
	CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		code VARCHAR(100) NULL,
		brand_id CHAR(36) NULL,
		category_id CHAR(36) NULL,
		dimensions VARCHAR(255) NULL,
		list_price DECIMAL(12,2) NOT NULL DEFAULT 0,
		installed_price DECIMAL(12,2) NOT NULL DEFAULT 0,
		stock_quantity INT NOT NULL DEFAULT 0,
		notes TEXT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		CONSTRAINT chk_products_stock_non_negative CHECK (stock_quantity >= 0),
		CONSTRAINT fk_products_brand FOREIGN KEY (brand_id) REFERENCES brands(id) ON DELETE SET NULL,
		CONSTRAINT fk_products_category FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL,
		INDEX idx_products_name (name),
		INDEX idx_products_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		name VARCHAR(255) NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"vehicles", `
	CREATE TABLE IF NOT EXISTS vehicles (
		id CHAR(36) NOT NULL PRIMARY KEY,
		make VARCHAR(100) NOT NULL,
		model VARCHAR(100) NOT NULL,
		year_from INT NULL,
		year_to INT NULL,
		engine VARCHAR(100) NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"product_applications", `
	CREATE TABLE IF NOT EXISTS product_applications (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		vehicle_id CHAR(36) NOT NULL,
		notes VARCHAR(255) NULL,
		CONSTRAINT fk_applications_product FOREIGN KEY (product_id) REFERENCES products(id),
		CONSTRAINT fk_applications_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles(id) ON DELETE CASCADE,
		INDEX idx_applications_product (product_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"suppliers", `
	CREATE TABLE IF NOT EXISTS suppliers (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		contact VARCHAR(255) NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"product_suppliers", `
	CREATE TABLE IF NOT EXISTS product_suppliers (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		supplier_id CHAR(36) NOT NULL,
		purchase_price DECIMAL(12,2) NULL,
		CONSTRAINT fk_product_suppliers_product FOREIGN KEY (product_id) REFERENCES products(id),
		CONSTRAINT fk_product_suppliers_supplier FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE CASCADE,
		UNIQUE KEY uq_product_supplier (product_id, supplier_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"stock_movements", `
	CREATE TABLE IF NOT EXISTS stock_movements (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		quantity INT NOT NULL,
		movement_type VARCHAR(20) NOT NULL,
		reason VARCHAR(500) NOT NULL,
		date DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		user_id CHAR(36) NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		CONSTRAINT chk_movements_quantity_non_zero CHECK (quantity <> 0),
		CONSTRAINT fk_movements_product FOREIGN KEY (product_id) REFERENCES products(id),
		INDEX idx_movements_product_date (product_id, date, id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"product_equivalences", `
	CREATE TABLE IF NOT EXISTS product_equivalences (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		equivalent_product_id CHAR(36) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		CONSTRAINT fk_equivalences_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		CONSTRAINT fk_equivalences_equivalent FOREIGN KEY (equivalent_product_id) REFERENCES products(id) ON DELETE CASCADE,
		UNIQUE KEY uq_product_equivalence (product_id, equivalent_product_id),
		INDEX idx_equivalences_equivalent (equivalent_product_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Migrate creates any missing table. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, tbl := range Schema {
		if _, err := db.ExecContext(ctx, tbl.Query); err != nil {
			return fmt.Errorf("creating table %s: %w", tbl.Name, err)
		}
	}
	return nil
}
