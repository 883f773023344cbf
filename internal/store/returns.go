package store

import (
	"context"
	"database/sql"

	"shopkeep/m/domain"
)

const salesReturnColumns = `id, invoice_no, sale_id, customer_id, user_id, total_amount, total_refund, note, created_at`

const purchaseReturnColumns = `id, invoice_no, purchase_id, supplier_id, user_id, total_amount, total_refund, note, created_at`

func (q *Queries) InsertSalesReturn(ctx context.Context, r *domain.SalesReturn) error {
	r.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO sales_returns (invoice_no, sale_id, customer_id, user_id, total_amount,
		total_refund, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.InvoiceNo, r.SaleID, r.CustomerID, r.UserID, r.TotalAmount, r.TotalRefund, r.Note, r.CreatedAt)
	r.ID = id
	return err
}

func (q *Queries) InsertSalesReturnItem(ctx context.Context, it *domain.SalesReturnItem) error {
	id, err := q.insert(ctx, `INSERT INTO sales_return_items (sales_return_id, product_id, quantity, unit_price, line_total)
		VALUES (?, ?, ?, ?, ?)`, it.SalesReturnID, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal)
	it.ID = id
	return err
}

func (q *Queries) LinkSalesReturnItemSerial(ctx context.Context, itemID, serialID int64) error {
	return q.linkSerial(ctx, "sales_return_item_serials", "sales_return_item_id", itemID, serialID)
}

func (q *Queries) GetSalesReturn(ctx context.Context, id int64) (domain.SalesReturn, error) {
	var r domain.SalesReturn
	err := q.get(ctx, &r, `SELECT `+salesReturnColumns+` FROM sales_returns WHERE id = ?`+q.forUpdate(), id)
	return r, notFound(err, "sales return", id)
}

func (q *Queries) ListSalesReturns(ctx context.Context) ([]domain.SalesReturn, error) {
	returns := []domain.SalesReturn{}
	err := q.selectAll(ctx, &returns, `SELECT `+salesReturnColumns+` FROM sales_returns ORDER BY id DESC`)
	return returns, err
}

func (q *Queries) SalesReturnItems(ctx context.Context, returnID int64) ([]domain.SalesReturnItem, error) {
	items := []domain.SalesReturnItem{}
	if err := q.selectAll(ctx, &items, `SELECT id, sales_return_id, product_id, quantity, unit_price, line_total
		FROM sales_return_items WHERE sales_return_id = ? ORDER BY id`, returnID); err != nil {
		return nil, err
	}
	for i := range items {
		serials, err := q.linkedSerials(ctx, "sales_return_item_serials", "sales_return_item_id", items[i].ID, "")
		if err != nil {
			return nil, err
		}
		items[i].Serials = serials
	}
	return items, nil
}

func (q *Queries) DeleteSalesReturn(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM sales_return_item_serials
		WHERE sales_return_item_id IN (SELECT id FROM sales_return_items WHERE sales_return_id = ?)`, id); err != nil {
		return err
	}
	if _, err := q.exec(ctx, `DELETE FROM sales_return_items WHERE sales_return_id = ?`, id); err != nil {
		return err
	}
	n, err := q.exec(ctx, `DELETE FROM sales_returns WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "sales return", id)
	}
	return err
}

func (q *Queries) InsertPurchaseReturn(ctx context.Context, r *domain.PurchaseReturn) error {
	r.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO purchase_returns (invoice_no, purchase_id, supplier_id, user_id, total_amount,
		total_refund, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.InvoiceNo, r.PurchaseID, r.SupplierID, r.UserID, r.TotalAmount, r.TotalRefund, r.Note, r.CreatedAt)
	r.ID = id
	return err
}

func (q *Queries) InsertPurchaseReturnItem(ctx context.Context, it *domain.PurchaseReturnItem) error {
	id, err := q.insert(ctx, `INSERT INTO purchase_return_items (purchase_return_id, product_id, quantity, unit_price, line_total)
		VALUES (?, ?, ?, ?, ?)`, it.PurchaseReturnID, it.ProductID, it.Quantity, it.UnitPrice, it.LineTotal)
	it.ID = id
	return err
}

func (q *Queries) LinkPurchaseReturnItemSerial(ctx context.Context, itemID, serialID int64) error {
	return q.linkSerial(ctx, "purchase_return_item_serials", "purchase_return_item_id", itemID, serialID)
}

func (q *Queries) GetPurchaseReturn(ctx context.Context, id int64) (domain.PurchaseReturn, error) {
	var r domain.PurchaseReturn
	err := q.get(ctx, &r, `SELECT `+purchaseReturnColumns+` FROM purchase_returns WHERE id = ?`+q.forUpdate(), id)
	return r, notFound(err, "purchase return", id)
}

func (q *Queries) ListPurchaseReturns(ctx context.Context) ([]domain.PurchaseReturn, error) {
	returns := []domain.PurchaseReturn{}
	err := q.selectAll(ctx, &returns, `SELECT `+purchaseReturnColumns+` FROM purchase_returns ORDER BY id DESC`)
	return returns, err
}

func (q *Queries) PurchaseReturnItems(ctx context.Context, returnID int64) ([]domain.PurchaseReturnItem, error) {
	items := []domain.PurchaseReturnItem{}
	if err := q.selectAll(ctx, &items, `SELECT id, purchase_return_id, product_id, quantity, unit_price, line_total
		FROM purchase_return_items WHERE purchase_return_id = ? ORDER BY id`, returnID); err != nil {
		return nil, err
	}
	for i := range items {
		serials, err := q.linkedSerials(ctx, "purchase_return_item_serials", "purchase_return_item_id", items[i].ID, "")
		if err != nil {
			return nil, err
		}
		items[i].Serials = serials
	}
	return items, nil
}

func (q *Queries) DeletePurchaseReturn(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM purchase_return_item_serials
		WHERE purchase_return_item_id IN (SELECT id FROM purchase_return_items WHERE purchase_return_id = ?)`, id); err != nil {
		return err
	}
	if _, err := q.exec(ctx, `DELETE FROM purchase_return_items WHERE purchase_return_id = ?`, id); err != nil {
		return err
	}
	n, err := q.exec(ctx, `DELETE FROM purchase_returns WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "purchase return", id)
	}
	return err
}
