package store

import (
	"context"
	"database/sql"

	"shopkeep/m/domain"
)

const purchaseColumns = `id, invoice_no, supplier_id, user_id, subtotal, discount, total_amount, total_paid, due,
	note, created_at, updated_at`

const purchaseItemColumns = `id, purchase_id, product_id, quantity, unit_price, line_total`

func (q *Queries) InsertPurchase(ctx context.Context, p *domain.Purchase) error {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO purchases (invoice_no, supplier_id, user_id, subtotal, discount,
		total_amount, total_paid, due, note, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.InvoiceNo, p.SupplierID, p.UserID, p.Subtotal, p.Discount, p.TotalAmount, p.TotalPaid, p.Due,
		p.Note, now, now)
	if err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

func (q *Queries) InsertPurchaseItem(ctx context.Context, it *domain.PurchaseItem) error {
	id, err := q.insert(ctx, `INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_price, line_total)
		VALUES (?, ?, ?, ?, ?)`, it.PurchaseID, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal)
	it.ID = id
	return err
}

func (q *Queries) LinkPurchaseItemSerial(ctx context.Context, itemID, serialID int64) error {
	return q.linkSerial(ctx, "purchase_item_serials", "purchase_item_id", itemID, serialID)
}

func (q *Queries) GetPurchase(ctx context.Context, id int64) (domain.Purchase, error) {
	var p domain.Purchase
	err := q.get(ctx, &p, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id)
	return p, notFound(err, "purchase", id)
}

func (q *Queries) LockPurchase(ctx context.Context, id int64) (domain.Purchase, error) {
	var p domain.Purchase
	err := q.get(ctx, &p, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`+q.forUpdate(), id)
	return p, notFound(err, "purchase", id)
}

func (q *Queries) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	purchases := []domain.Purchase{}
	err := q.selectAll(ctx, &purchases, `SELECT `+purchaseColumns+` FROM purchases ORDER BY id DESC`)
	return purchases, err
}

func (q *Queries) PurchaseItems(ctx context.Context, purchaseID int64) ([]domain.PurchaseItem, error) {
	items := []domain.PurchaseItem{}
	if err := q.selectAll(ctx, &items, `SELECT `+purchaseItemColumns+` FROM purchase_items WHERE purchase_id = ? ORDER BY id`, purchaseID); err != nil {
		return nil, err
	}
	for i := range items {
		serials, err := q.linkedSerials(ctx, "purchase_item_serials", "purchase_item_id", items[i].ID, "")
		if err != nil {
			return nil, err
		}
		items[i].Serials = serials
	}
	return items, nil
}

func (q *Queries) UpdatePurchaseHeader(ctx context.Context, p *domain.Purchase) error {
	p.UpdatedAt = q.now()
	n, err := q.exec(ctx, `UPDATE purchases SET supplier_id = ?, subtotal = ?, discount = ?, total_amount = ?,
		total_paid = ?, due = ?, note = ?, updated_at = ? WHERE id = ?`,
		p.SupplierID, p.Subtotal, p.Discount, p.TotalAmount, p.TotalPaid, p.Due, p.Note, p.UpdatedAt, p.ID)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "purchase", p.ID)
	}
	return err
}

// DeletePurchaseItems removes every line of the purchase and their serial
// links. The serial rows themselves are left to the caller.
func (q *Queries) DeletePurchaseItems(ctx context.Context, purchaseID int64) error {
	if _, err := q.exec(ctx, `DELETE FROM purchase_item_serials
		WHERE purchase_item_id IN (SELECT id FROM purchase_items WHERE purchase_id = ?)`, purchaseID); err != nil {
		return err
	}
	_, err := q.exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = ?`, purchaseID)
	return err
}

func (q *Queries) DeletePurchase(ctx context.Context, id int64) error {
	if err := q.DeletePurchaseItems(ctx, id); err != nil {
		return err
	}
	n, err := q.exec(ctx, `DELETE FROM purchases WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "purchase", id)
	}
	return err
}

func (q *Queries) PurchaseHasReturns(ctx context.Context, purchaseID int64) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM purchase_returns WHERE purchase_id = ?`, purchaseID)
}

// ReturnablePurchaseQuantity is how many units of the product bought on the
// purchase have not yet been sent back against it.
func (q *Queries) ReturnablePurchaseQuantity(ctx context.Context, purchaseID, productID int64) (int64, error) {
	var n int64
	err := q.get(ctx, &n, `SELECT
		(SELECT COALESCE(SUM(quantity), 0) FROM purchase_items WHERE purchase_id = ? AND product_id = ?) -
		(SELECT COALESCE(SUM(ri.quantity), 0) FROM purchase_return_items ri
			JOIN purchase_returns r ON r.id = ri.purchase_return_id
			WHERE r.purchase_id = ? AND ri.product_id = ?)`,
		purchaseID, productID, purchaseID, productID)
	return n, err
}

// SerialFromPurchase reports whether the serial was received on the purchase.
func (q *Queries) SerialFromPurchase(ctx context.Context, purchaseID, serialID int64) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM purchase_item_serials l
		JOIN purchase_items pi ON pi.id = l.purchase_item_id
		WHERE pi.purchase_id = ? AND l.serial_id = ?`, purchaseID, serialID)
}
