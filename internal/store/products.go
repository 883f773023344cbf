package store

import (
	"context"
	"database/sql"

	"shopkeep/m/domain"
)

const productColumns = `id, name, sku, quantity, purchase_price, wholesale_price, retail_price,
	use_individual_serials, status, created_at, updated_at`

// stockColumn is the authoritative on-hand count: Available serials for
// serialized products, quantity for the rest.
const stockColumn = `CASE WHEN use_individual_serials THEN
		(SELECT COUNT(*) FROM product_serials ps WHERE ps.product_id = products.id AND ps.state = 'available')
		ELSE quantity END AS stock`

func (q *Queries) InsertProduct(ctx context.Context, p *domain.Product) error {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO products (name, sku, quantity, purchase_price, wholesale_price,
		retail_price, use_individual_serials, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.SKU, p.Quantity, p.PurchasePrice, p.WholesalePrice, p.RetailPrice,
		p.UseIndividualSerials, p.Status, now, now)
	if err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := q.get(ctx, &p, `SELECT `+productColumns+`, `+stockColumn+` FROM products WHERE id = ?`, id)
	return p, notFound(err, "product", id)
}

// LockProduct reads a product row and holds it until the transaction ends.
func (q *Queries) LockProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := q.get(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`+q.forUpdate(), id)
	return p, notFound(err, "product", id)
}

func (q *Queries) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := q.selectAll(ctx, &products, `SELECT `+productColumns+`, `+stockColumn+` FROM products ORDER BY id`)
	return products, err
}

func (q *Queries) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = q.now()
	n, err := q.exec(ctx, `UPDATE products SET name = ?, sku = ?, quantity = ?, purchase_price = ?,
		wholesale_price = ?, retail_price = ?, use_individual_serials = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.SKU, p.Quantity, p.PurchasePrice, p.WholesalePrice, p.RetailPrice,
		p.UseIndividualSerials, p.Status, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(sql.ErrNoRows, "product", p.ID)
	}
	return nil
}

func (q *Queries) DeleteProduct(ctx context.Context, id int64) error {
	n, err := q.exec(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(sql.ErrNoRows, "product", id)
	}
	return nil
}

// AddQuantity applies delta to a product's on-hand quantity. A negative
// delta only applies when enough stock is on hand; ok is false otherwise and
// nothing changed.
func (q *Queries) AddQuantity(ctx context.Context, productID, delta int64) (ok bool, err error) {
	var n int64
	if delta >= 0 {
		n, err = q.exec(ctx, `UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
			delta, q.now(), productID)
	} else {
		n, err = q.exec(ctx, `UPDATE products SET quantity = quantity + ?, updated_at = ?
			WHERE id = ? AND quantity >= ?`, delta, q.now(), productID, -delta)
	}
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SKUTaken reports whether another product already uses sku.
func (q *Queries) SKUTaken(ctx context.Context, sku string, excludeID int64) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM products WHERE sku = ? AND id <> ?`, sku, excludeID)
}

// ProductReferenced reports whether any business record mentions the product.
func (q *Queries) ProductReferenced(ctx context.Context, id int64) (bool, error) {
	return q.exists(ctx, `SELECT
		(SELECT COUNT(*) FROM sale_items WHERE product_id = ?) +
		(SELECT COUNT(*) FROM purchase_items WHERE product_id = ?) +
		(SELECT COUNT(*) FROM sales_return_items WHERE product_id = ?) +
		(SELECT COUNT(*) FROM purchase_return_items WHERE product_id = ?) +
		(SELECT COUNT(*) FROM exchange_items WHERE old_product_id = ? OR new_product_id = ?)`,
		id, id, id, id, id, id)
}
