package store

import (
	"context"

	"shopkeep/m/domain"
)

const serialColumns = `s.id, s.serial, s.product_id, s.state, s.has_warranty, s.created_at, s.updated_at`

func (q *Queries) InsertSerial(ctx context.Context, ps *domain.ProductSerial) error {
	now := q.now()
	id, err := q.insert(ctx, `INSERT INTO product_serials (serial, product_id, state, has_warranty, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, ps.Serial, ps.ProductID, ps.State, ps.HasWarranty, now, now)
	if err != nil {
		return err
	}
	ps.ID, ps.CreatedAt, ps.UpdatedAt = id, now, now
	return nil
}

// LockSerialsByValue loads the serials whose strings are in values, locking
// them for the rest of the transaction. Unknown strings are simply absent
// from the result.
func (q *Queries) LockSerialsByValue(ctx context.Context, values []string) ([]domain.ProductSerial, error) {
	serials := []domain.ProductSerial{}
	if len(values) == 0 {
		return serials, nil
	}
	err := q.selectIn(ctx, &serials, `SELECT `+serialColumns+` FROM product_serials s
		WHERE s.serial IN (?) ORDER BY s.id`+q.forUpdate(), values)
	return serials, err
}

// LockSerialsByID loads and locks serials by id.
func (q *Queries) LockSerialsByID(ctx context.Context, ids []int64) ([]domain.ProductSerial, error) {
	serials := []domain.ProductSerial{}
	if len(ids) == 0 {
		return serials, nil
	}
	err := q.selectIn(ctx, &serials, `SELECT `+serialColumns+` FROM product_serials s
		WHERE s.id IN (?) ORDER BY s.id`+q.forUpdate(), ids)
	return serials, err
}

// LockAvailableSerials returns up to limit Available serials of the product,
// lowest id first, locked for the rest of the transaction.
func (q *Queries) LockAvailableSerials(ctx context.Context, productID int64, limit int64) ([]domain.ProductSerial, error) {
	serials := []domain.ProductSerial{}
	err := q.selectAll(ctx, &serials, `SELECT `+serialColumns+` FROM product_serials s
		WHERE s.product_id = ? AND s.state = ? ORDER BY s.id LIMIT ?`+q.forUpdate(),
		productID, domain.SerialAvailable, limit)
	return serials, err
}

// ListSerials returns the product's serials, optionally only those in state.
func (q *Queries) ListSerials(ctx context.Context, productID int64, state domain.SerialState) ([]domain.ProductSerial, error) {
	serials := []domain.ProductSerial{}
	query := `SELECT ` + serialColumns + ` FROM product_serials s WHERE s.product_id = ?`
	args := []any{productID}
	if state != "" {
		query += ` AND s.state = ?`
		args = append(args, state)
	}
	err := q.selectAll(ctx, &serials, query+` ORDER BY s.id`, args...)
	return serials, err
}

func (q *Queries) CountSerials(ctx context.Context, productID int64, state domain.SerialState) (int64, error) {
	var n int64
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM product_serials WHERE product_id = ? AND state = ?`, productID, state)
	return n, err
}

// SetSerialState moves serials from one state to another. It returns how
// many rows actually moved; rows not in state from are left alone.
func (q *Queries) SetSerialState(ctx context.Context, ids []int64, from, to domain.SerialState) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return q.execIn(ctx, `UPDATE product_serials SET state = ?, updated_at = ? WHERE id IN (?) AND state = ?`,
		to, q.now(), ids, from)
}

func (q *Queries) DeleteSerials(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.execIn(ctx, `DELETE FROM product_serials WHERE id IN (?)`, ids)
	return err
}

// ReferencedSerials returns the subset of ids that some business record
// links to. Links from purchases only count when withPurchases is set.
func (q *Queries) ReferencedSerials(ctx context.Context, ids []int64, withPurchases bool) ([]int64, error) {
	referenced := []int64{}
	if len(ids) == 0 {
		return referenced, nil
	}
	query := `SELECT serial_id FROM sales_item_serials WHERE serial_id IN (?)
		UNION SELECT serial_id FROM sales_return_item_serials WHERE serial_id IN (?)
		UNION SELECT serial_id FROM purchase_return_item_serials WHERE serial_id IN (?)
		UNION SELECT serial_id FROM exchange_item_serials WHERE serial_id IN (?)`
	args := []any{ids, ids, ids, ids}
	if withPurchases {
		query += `
		UNION SELECT serial_id FROM purchase_item_serials WHERE serial_id IN (?)`
		args = append(args, ids)
	}
	err := q.selectIn(ctx, &referenced, query, args...)
	return referenced, err
}

// linkedSerials loads the serials attached to one line item through a link
// table such as sales_item_serials.
func (q *Queries) linkedSerials(ctx context.Context, linkTable, itemColumn string, itemID int64, extra string, args ...any) ([]domain.ProductSerial, error) {
	serials := []domain.ProductSerial{}
	query := `SELECT ` + serialColumns + ` FROM product_serials s
		JOIN ` + linkTable + ` l ON l.serial_id = s.id
		WHERE l.` + itemColumn + ` = ?` + extra + ` ORDER BY s.id`
	err := q.selectAll(ctx, &serials, query, append([]any{itemID}, args...)...)
	return serials, err
}

func (q *Queries) linkSerial(ctx context.Context, linkTable, itemColumn string, itemID, serialID int64) error {
	_, err := q.exec(ctx, `INSERT INTO `+linkTable+` (`+itemColumn+`, serial_id) VALUES (?, ?)`, itemID, serialID)
	return err
}
