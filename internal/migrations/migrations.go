package migrations

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopkeep/m/internal/database"
)

// schema is written once for every dialect; {{pk}} and {{ts}} are replaced
// with the dialect's id and timestamp column definitions.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
            id {{pk}},
            name VARCHAR(64) NOT NULL UNIQUE,
            created_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
            role_id BIGINT NOT NULL,
            permission VARCHAR(64) NOT NULL,
            PRIMARY KEY (role_id, permission),
            FOREIGN KEY (role_id) REFERENCES roles(id)
        )`,
	`CREATE TABLE IF NOT EXISTS users (
            id {{pk}},
            name VARCHAR(255) NOT NULL,
            email VARCHAR(255) NOT NULL UNIQUE,
            password VARCHAR(255) NOT NULL,
            role_id BIGINT NOT NULL,
            created_at {{ts}} NOT NULL,
            FOREIGN KEY (role_id) REFERENCES roles(id)
        )`,
	`CREATE TABLE IF NOT EXISTS products (
            id {{pk}},
            name VARCHAR(255) NOT NULL,
            sku VARCHAR(128) NULL UNIQUE,
            quantity BIGINT NOT NULL DEFAULT 0,
            purchase_price NUMERIC(14,2) NOT NULL DEFAULT 0,
            wholesale_price NUMERIC(14,2) NOT NULL DEFAULT 0,
            retail_price NUMERIC(14,2) NOT NULL DEFAULT 0,
            use_individual_serials BOOLEAN NOT NULL DEFAULT FALSE,
            status VARCHAR(32) NOT NULL,
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS product_serials (
            id {{pk}},
            serial VARCHAR(255) NOT NULL UNIQUE,
            product_id BIGINT NOT NULL,
            state VARCHAR(32) NOT NULL,
            has_warranty BOOLEAN NOT NULL DEFAULT FALSE,
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL,
            FOREIGN KEY (product_id) REFERENCES products(id)
        )`,
	`CREATE TABLE IF NOT EXISTS customers (
            id {{pk}},
            name VARCHAR(255) NOT NULL,
            phone VARCHAR(64) NOT NULL,
            email VARCHAR(255) NOT NULL,
            address VARCHAR(255) NOT NULL,
            created_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS suppliers (
            id {{pk}},
            name VARCHAR(255) NOT NULL,
            phone VARCHAR(64) NOT NULL,
            email VARCHAR(255) NOT NULL,
            address VARCHAR(255) NOT NULL,
            created_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS invoice_counters (
            prefix VARCHAR(16) NOT NULL PRIMARY KEY,
            counter_value BIGINT NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS sales (
            id {{pk}},
            invoice_no VARCHAR(32) NOT NULL UNIQUE,
            customer_id BIGINT NOT NULL,
            user_id BIGINT NOT NULL,
            subtotal NUMERIC(14,2) NOT NULL,
            discount NUMERIC(14,2) NOT NULL,
            total_amount NUMERIC(14,2) NOT NULL,
            total_paid NUMERIC(14,2) NOT NULL,
            due NUMERIC(14,2) NOT NULL,
            note TEXT NOT NULL,
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL,
            FOREIGN KEY (customer_id) REFERENCES customers(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id {{pk}},
            sale_id BIGINT NOT NULL,
            product_id BIGINT NOT NULL,
            quantity BIGINT NOT NULL,
            unit_price NUMERIC(14,2) NOT NULL,
            line_total NUMERIC(14,2) NOT NULL,
            FOREIGN KEY (sale_id) REFERENCES sales(id),
            FOREIGN KEY (product_id) REFERENCES products(id)
        )`,
	`CREATE TABLE IF NOT EXISTS sales_item_serials (
            sale_item_id BIGINT NOT NULL,
            serial_id BIGINT NOT NULL,
            PRIMARY KEY (sale_item_id, serial_id),
            FOREIGN KEY (sale_item_id) REFERENCES sale_items(id),
            FOREIGN KEY (serial_id) REFERENCES product_serials(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchases (
            id {{pk}},
            invoice_no VARCHAR(32) NOT NULL UNIQUE,
            supplier_id BIGINT NOT NULL,
            user_id BIGINT NOT NULL,
            subtotal NUMERIC(14,2) NOT NULL,
            discount NUMERIC(14,2) NOT NULL,
            total_amount NUMERIC(14,2) NOT NULL,
            total_paid NUMERIC(14,2) NOT NULL,
            due NUMERIC(14,2) NOT NULL,
            note TEXT NOT NULL,
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL,
            FOREIGN KEY (supplier_id) REFERENCES suppliers(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchase_items (
            id {{pk}},
            purchase_id BIGINT NOT NULL,
            product_id BIGINT NOT NULL,
            quantity BIGINT NOT NULL,
            unit_price NUMERIC(14,2) NOT NULL,
            line_total NUMERIC(14,2) NOT NULL,
            FOREIGN KEY (purchase_id) REFERENCES purchases(id),
            FOREIGN KEY (product_id) REFERENCES products(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchase_item_serials (
            purchase_item_id BIGINT NOT NULL,
            serial_id BIGINT NOT NULL,
            PRIMARY KEY (purchase_item_id, serial_id),
            FOREIGN KEY (purchase_item_id) REFERENCES purchase_items(id),
            FOREIGN KEY (serial_id) REFERENCES product_serials(id)
        )`,
	`CREATE TABLE IF NOT EXISTS sales_returns (
            id {{pk}},
            invoice_no VARCHAR(32) NOT NULL UNIQUE,
            sale_id BIGINT NOT NULL,
            customer_id BIGINT NOT NULL,
            user_id BIGINT NOT NULL,
            total_amount NUMERIC(14,2) NOT NULL,
            total_refund NUMERIC(14,2) NOT NULL,
            note TEXT NOT NULL,
            created_at {{ts}} NOT NULL,
            FOREIGN KEY (sale_id) REFERENCES sales(id),
            FOREIGN KEY (customer_id) REFERENCES customers(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
	`CREATE TABLE IF NOT EXISTS sales_return_items (
            id {{pk}},
            sales_return_id BIGINT NOT NULL,
            product_id BIGINT NOT NULL,
            quantity BIGINT NOT NULL,
            unit_price NUMERIC(14,2) NOT NULL,
            line_total NUMERIC(14,2) NOT NULL,
            FOREIGN KEY (sales_return_id) REFERENCES sales_returns(id),
            FOREIGN KEY (product_id) REFERENCES products(id)
        )`,
	`CREATE TABLE IF NOT EXISTS sales_return_item_serials (
            sales_return_item_id BIGINT NOT NULL,
            serial_id BIGINT NOT NULL,
            PRIMARY KEY (sales_return_item_id, serial_id),
            FOREIGN KEY (sales_return_item_id) REFERENCES sales_return_items(id),
            FOREIGN KEY (serial_id) REFERENCES product_serials(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchase_returns (
            id {{pk}},
            invoice_no VARCHAR(32) NOT NULL UNIQUE,
            purchase_id BIGINT NULL,
            supplier_id BIGINT NOT NULL,
            user_id BIGINT NOT NULL,
            total_amount NUMERIC(14,2) NOT NULL,
            total_refund NUMERIC(14,2) NOT NULL,
            note TEXT NOT NULL,
            created_at {{ts}} NOT NULL,
            FOREIGN KEY (purchase_id) REFERENCES purchases(id),
            FOREIGN KEY (supplier_id) REFERENCES suppliers(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchase_return_items (
            id {{pk}},
            purchase_return_id BIGINT NOT NULL,
            product_id BIGINT NOT NULL,
            quantity BIGINT NOT NULL,
            unit_price NUMERIC(14,2) NOT NULL,
            line_total NUMERIC(14,2) NOT NULL,
            FOREIGN KEY (purchase_return_id) REFERENCES purchase_returns(id),
            FOREIGN KEY (product_id) REFERENCES products(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchase_return_item_serials (
            purchase_return_item_id BIGINT NOT NULL,
            serial_id BIGINT NOT NULL,
            PRIMARY KEY (purchase_return_item_id, serial_id),
            FOREIGN KEY (purchase_return_item_id) REFERENCES purchase_return_items(id),
            FOREIGN KEY (serial_id) REFERENCES product_serials(id)
        )`,
	`CREATE TABLE IF NOT EXISTS exchanges (
            id {{pk}},
            invoice_no VARCHAR(32) NOT NULL UNIQUE,
            sale_id BIGINT NOT NULL,
            customer_id BIGINT NOT NULL,
            user_id BIGINT NOT NULL,
            returned_total NUMERIC(14,2) NOT NULL,
            issued_total NUMERIC(14,2) NOT NULL,
            difference NUMERIC(14,2) NOT NULL,
            total_paid NUMERIC(14,2) NOT NULL,
            note TEXT NOT NULL,
            created_at {{ts}} NOT NULL,
            FOREIGN KEY (sale_id) REFERENCES sales(id),
            FOREIGN KEY (customer_id) REFERENCES customers(id),
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
	`CREATE TABLE IF NOT EXISTS exchange_items (
            id {{pk}},
            exchange_id BIGINT NOT NULL,
            old_product_id BIGINT NOT NULL,
            new_product_id BIGINT NOT NULL,
            quantity BIGINT NOT NULL,
            old_unit_price NUMERIC(14,2) NOT NULL,
            new_unit_price NUMERIC(14,2) NOT NULL,
            FOREIGN KEY (exchange_id) REFERENCES exchanges(id),
            FOREIGN KEY (old_product_id) REFERENCES products(id),
            FOREIGN KEY (new_product_id) REFERENCES products(id)
        )`,
	`CREATE TABLE IF NOT EXISTS exchange_item_serials (
            exchange_item_id BIGINT NOT NULL,
            serial_id BIGINT NOT NULL,
            direction VARCHAR(16) NOT NULL,
            PRIMARY KEY (exchange_item_id, serial_id),
            FOREIGN KEY (exchange_item_id) REFERENCES exchange_items(id),
            FOREIGN KEY (serial_id) REFERENCES product_serials(id)
        )`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
            id VARCHAR(36) NOT NULL PRIMARY KEY,
            product_id BIGINT NOT NULL,
            serial_id BIGINT NULL,
            movement_type VARCHAR(32) NOT NULL,
            quantity_change BIGINT NOT NULL,
            reference_type VARCHAR(32) NOT NULL,
            reference_id BIGINT NOT NULL,
            created_by BIGINT NULL,
            created_at {{ts}} NOT NULL
        )`,
}

// Run creates the database schema required for the shopkeep backend. Every
// statement is idempotent, so Run is safe on every start.
func Run(db *sqlx.DB, dialect database.Dialect) error {
	r := strings.NewReplacer("{{pk}}", dialect.PrimaryKey(), "{{ts}}", dialect.Timestamp())
	for i, stmt := range schema {
		if _, err := db.Exec(r.Replace(stmt)); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
