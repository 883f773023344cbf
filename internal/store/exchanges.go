package store

import (
	"context"
	"database/sql"

	"shopkeep/m/domain"
)

const exchangeColumns = `id, invoice_no, sale_id, customer_id, user_id, returned_total, issued_total, difference,
	total_paid, note, created_at`

func (q *Queries) InsertExchange(ctx context.Context, e *domain.Exchange) error {
	e.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO exchanges (invoice_no, sale_id, customer_id, user_id, returned_total,
		issued_total, difference, total_paid, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.InvoiceNo, e.SaleID, e.CustomerID, e.UserID, e.ReturnedTotal, e.IssuedTotal, e.Difference,
		e.TotalPaid, e.Note, e.CreatedAt)
	e.ID = id
	return err
}

func (q *Queries) InsertExchangeItem(ctx context.Context, it *domain.ExchangeItem) error {
	id, err := q.insert(ctx, `INSERT INTO exchange_items (exchange_id, old_product_id, new_product_id, quantity,
		old_unit_price, new_unit_price) VALUES (?, ?, ?, ?, ?, ?)`,
		it.ExchangeID, it.OldProductID, it.NewProductID, it.Quantity, it.OldUnitPrice, it.NewUnitPrice)
	it.ID = id
	return err
}

func (q *Queries) LinkExchangeItemSerial(ctx context.Context, itemID, serialID int64, dir domain.SerialDirection) error {
	_, err := q.exec(ctx, `INSERT INTO exchange_item_serials (exchange_item_id, serial_id, direction) VALUES (?, ?, ?)`,
		itemID, serialID, dir)
	return err
}

func (q *Queries) GetExchange(ctx context.Context, id int64) (domain.Exchange, error) {
	var e domain.Exchange
	err := q.get(ctx, &e, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = ?`+q.forUpdate(), id)
	return e, notFound(err, "exchange", id)
}

func (q *Queries) ListExchanges(ctx context.Context) ([]domain.Exchange, error) {
	exchanges := []domain.Exchange{}
	err := q.selectAll(ctx, &exchanges, `SELECT `+exchangeColumns+` FROM exchanges ORDER BY id DESC`)
	return exchanges, err
}

func (q *Queries) ExchangeItems(ctx context.Context, exchangeID int64) ([]domain.ExchangeItem, error) {
	items := []domain.ExchangeItem{}
	if err := q.selectAll(ctx, &items, `SELECT id, exchange_id, old_product_id, new_product_id, quantity,
		old_unit_price, new_unit_price FROM exchange_items WHERE exchange_id = ? ORDER BY id`, exchangeID); err != nil {
		return nil, err
	}
	for i := range items {
		var err error
		items[i].OldSerials, err = q.linkedSerials(ctx, "exchange_item_serials", "exchange_item_id", items[i].ID,
			" AND l.direction = ?", domain.DirectionReturned)
		if err != nil {
			return nil, err
		}
		items[i].NewSerials, err = q.linkedSerials(ctx, "exchange_item_serials", "exchange_item_id", items[i].ID,
			" AND l.direction = ?", domain.DirectionIssued)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (q *Queries) DeleteExchange(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM exchange_item_serials
		WHERE exchange_item_id IN (SELECT id FROM exchange_items WHERE exchange_id = ?)`, id); err != nil {
		return err
	}
	if _, err := q.exec(ctx, `DELETE FROM exchange_items WHERE exchange_id = ?`, id); err != nil {
		return err
	}
	n, err := q.exec(ctx, `DELETE FROM exchanges WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "exchange", id)
	}
	return err
}

// ExchangeSuperseded reports whether a later exchange against the same sale
// exists, or a sales return against the sale took back one of the products
// this exchange issued. Either makes reversing the exchange unsafe.
func (q *Queries) ExchangeSuperseded(ctx context.Context, e domain.Exchange) (bool, error) {
	return q.exists(ctx, `SELECT
		(SELECT COUNT(*) FROM exchanges WHERE sale_id = ? AND id > ?) +
		(SELECT COUNT(*) FROM sales_return_items ri JOIN sales_returns r ON r.id = ri.sales_return_id
			WHERE r.sale_id = ? AND ri.product_id IN
				(SELECT new_product_id FROM exchange_items WHERE exchange_id = ?))`,
		e.SaleID, e.ID, e.SaleID, e.ID)
}
