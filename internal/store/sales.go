package store

import (
	"context"
	"database/sql"

	"shopkeep/m/domain"
)

const saleColumns = `id, invoice_no, customer_id, user_id, subtotal, discount, total_amount, total_paid, due,
	note, created_at, updated_at`

const saleItemColumns = `id, sale_id, product_id, quantity, unit_price, line_total`

func (q *Queries) InsertSale(ctx context.Context, s *domain.Sale) error {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO sales (invoice_no, customer_id, user_id, subtotal, discount,
		total_amount, total_paid, due, note, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.InvoiceNo, s.CustomerID, s.UserID, s.Subtotal, s.Discount, s.TotalAmount, s.TotalPaid, s.Due,
		s.Note, now, now)
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
	return nil
}

func (q *Queries) InsertSaleItem(ctx context.Context, it *domain.SaleItem) error {
	id, err := q.insert(ctx, `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, line_total)
		VALUES (?, ?, ?, ?, ?)`, it.SaleID, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal)
	it.ID = id
	return err
}

func (q *Queries) LinkSaleItemSerial(ctx context.Context, itemID, serialID int64) error {
	return q.linkSerial(ctx, "sales_item_serials", "sale_item_id", itemID, serialID)
}

// GetSale loads the header only; SaleItems loads the lines.
func (q *Queries) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	var s domain.Sale
	err := q.get(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	return s, notFound(err, "sale", id)
}

func (q *Queries) LockSale(ctx context.Context, id int64) (domain.Sale, error) {
	var s domain.Sale
	err := q.get(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE id = ?`+q.forUpdate(), id)
	return s, notFound(err, "sale", id)
}

func (q *Queries) ListSales(ctx context.Context) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	err := q.selectAll(ctx, &sales, `SELECT `+saleColumns+` FROM sales ORDER BY id DESC`)
	return sales, err
}

// SaleItems returns the sale's lines with their serials attached.
func (q *Queries) SaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error) {
	items := []domain.SaleItem{}
	if err := q.selectAll(ctx, &items, `SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id = ? ORDER BY id`, saleID); err != nil {
		return nil, err
	}
	for i := range items {
		serials, err := q.linkedSerials(ctx, "sales_item_serials", "sale_item_id", items[i].ID, "")
		if err != nil {
			return nil, err
		}
		items[i].Serials = serials
	}
	return items, nil
}

func (q *Queries) UpdateSaleHeader(ctx context.Context, s *domain.Sale) error {
	s.UpdatedAt = q.now()
	n, err := q.exec(ctx, `UPDATE sales SET customer_id = ?, subtotal = ?, discount = ?, total_amount = ?,
		total_paid = ?, due = ?, note = ?, updated_at = ? WHERE id = ?`,
		s.CustomerID, s.Subtotal, s.Discount, s.TotalAmount, s.TotalPaid, s.Due, s.Note, s.UpdatedAt, s.ID)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "sale", s.ID)
	}
	return err
}

// DeleteSale removes the serial links, the lines and the header.
func (q *Queries) DeleteSale(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM sales_item_serials
		WHERE sale_item_id IN (SELECT id FROM sale_items WHERE sale_id = ?)`, id); err != nil {
		return err
	}
	if _, err := q.exec(ctx, `DELETE FROM sale_items WHERE sale_id = ?`, id); err != nil {
		return err
	}
	n, err := q.exec(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "sale", id)
	}
	return err
}

// SaleHasDependents reports whether a sales return or an exchange was
// recorded against the sale.
func (q *Queries) SaleHasDependents(ctx context.Context, saleID int64) (bool, error) {
	return q.exists(ctx, `SELECT
		(SELECT COUNT(*) FROM sales_returns WHERE sale_id = ?) +
		(SELECT COUNT(*) FROM exchanges WHERE sale_id = ?)`, saleID, saleID)
}

// HeldQuantity is how many units of the product the customer of the sale
// still holds from it: sold plus issued by exchanges, minus returned and
// minus taken back by exchanges.
func (q *Queries) HeldQuantity(ctx context.Context, saleID, productID int64) (int64, error) {
	var n int64
	err := q.get(ctx, &n, `SELECT
		(SELECT COALESCE(SUM(si.quantity), 0) FROM sale_items si
			WHERE si.sale_id = ? AND si.product_id = ?) +
		(SELECT COALESCE(SUM(ei.quantity), 0) FROM exchange_items ei JOIN exchanges e ON e.id = ei.exchange_id
			WHERE e.sale_id = ? AND ei.new_product_id = ?) -
		(SELECT COALESCE(SUM(ri.quantity), 0) FROM sales_return_items ri JOIN sales_returns r ON r.id = ri.sales_return_id
			WHERE r.sale_id = ? AND ri.product_id = ?) -
		(SELECT COALESCE(SUM(ei.quantity), 0) FROM exchange_items ei JOIN exchanges e ON e.id = ei.exchange_id
			WHERE e.sale_id = ? AND ei.old_product_id = ?)`,
		saleID, productID, saleID, productID, saleID, productID, saleID, productID)
	return n, err
}

// SaleProductSeen reports whether the product was ever handed to the
// customer of the sale, either on the sale itself or by an exchange.
func (q *Queries) SaleProductSeen(ctx context.Context, saleID, productID int64) (bool, error) {
	return q.exists(ctx, `SELECT
		(SELECT COUNT(*) FROM sale_items WHERE sale_id = ? AND product_id = ?) +
		(SELECT COUNT(*) FROM exchange_items ei JOIN exchanges e ON e.id = ei.exchange_id
			WHERE e.sale_id = ? AND ei.new_product_id = ?)`, saleID, productID, saleID, productID)
}

// SerialHeldBySale reports whether the serial went out with the sale (or an
// exchange against it) and has not come back through a return or exchange
// against the same sale.
func (q *Queries) SerialHeldBySale(ctx context.Context, saleID, serialID int64) (bool, error) {
	var n int64
	err := q.get(ctx, &n, `SELECT
		(SELECT COUNT(*) FROM sales_item_serials l JOIN sale_items si ON si.id = l.sale_item_id
			WHERE si.sale_id = ? AND l.serial_id = ?) +
		(SELECT COUNT(*) FROM exchange_item_serials l JOIN exchange_items ei ON ei.id = l.exchange_item_id
			JOIN exchanges e ON e.id = ei.exchange_id
			WHERE e.sale_id = ? AND l.serial_id = ? AND l.direction = ?) -
		(SELECT COUNT(*) FROM sales_return_item_serials l JOIN sales_return_items ri ON ri.id = l.sales_return_item_id
			JOIN sales_returns r ON r.id = ri.sales_return_id
			WHERE r.sale_id = ? AND l.serial_id = ?) -
		(SELECT COUNT(*) FROM exchange_item_serials l JOIN exchange_items ei ON ei.id = l.exchange_item_id
			JOIN exchanges e ON e.id = ei.exchange_id
			WHERE e.sale_id = ? AND l.serial_id = ? AND l.direction = ?)`,
		saleID, serialID,
		saleID, serialID, domain.DirectionIssued,
		saleID, serialID,
		saleID, serialID, domain.DirectionReturned)
	return n > 0, err
}
