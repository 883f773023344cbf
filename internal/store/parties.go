package store

import (
	"context"
	"database/sql"

	"shopkeep/m/domain"
)

const partyColumns = `id, name, phone, email, address, created_at`

func (q *Queries) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	c.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO customers (name, phone, email, address, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Phone, c.Email, c.Address, c.CreatedAt)
	c.ID = id
	return err
}

func (q *Queries) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := q.get(ctx, &c, `SELECT `+partyColumns+` FROM customers WHERE id = ?`, id)
	return c, notFound(err, "customer", id)
}

func (q *Queries) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	err := q.selectAll(ctx, &customers, `SELECT `+partyColumns+` FROM customers ORDER BY id`)
	return customers, err
}

func (q *Queries) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	n, err := q.exec(ctx, `UPDATE customers SET name = ?, phone = ?, email = ?, address = ? WHERE id = ?`,
		c.Name, c.Phone, c.Email, c.Address, c.ID)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "customer", c.ID)
	}
	return err
}

func (q *Queries) DeleteCustomer(ctx context.Context, id int64) error {
	n, err := q.exec(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "customer", id)
	}
	return err
}

// CustomerReferenced reports whether a sale, return or exchange names the
// customer.
func (q *Queries) CustomerReferenced(ctx context.Context, id int64) (bool, error) {
	return q.exists(ctx, `SELECT
		(SELECT COUNT(*) FROM sales WHERE customer_id = ?) +
		(SELECT COUNT(*) FROM sales_returns WHERE customer_id = ?) +
		(SELECT COUNT(*) FROM exchanges WHERE customer_id = ?)`, id, id, id)
}

func (q *Queries) InsertSupplier(ctx context.Context, s *domain.Supplier) error {
	s.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO suppliers (name, phone, email, address, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.Phone, s.Email, s.Address, s.CreatedAt)
	s.ID = id
	return err
}

func (q *Queries) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	var s domain.Supplier
	err := q.get(ctx, &s, `SELECT `+partyColumns+` FROM suppliers WHERE id = ?`, id)
	return s, notFound(err, "supplier", id)
}

func (q *Queries) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	err := q.selectAll(ctx, &suppliers, `SELECT `+partyColumns+` FROM suppliers ORDER BY id`)
	return suppliers, err
}

func (q *Queries) UpdateSupplier(ctx context.Context, s domain.Supplier) error {
	n, err := q.exec(ctx, `UPDATE suppliers SET name = ?, phone = ?, email = ?, address = ? WHERE id = ?`,
		s.Name, s.Phone, s.Email, s.Address, s.ID)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "supplier", s.ID)
	}
	return err
}

func (q *Queries) DeleteSupplier(ctx context.Context, id int64) error {
	n, err := q.exec(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err == nil && n == 0 {
		err = notFound(sql.ErrNoRows, "supplier", id)
	}
	return err
}

func (q *Queries) SupplierReferenced(ctx context.Context, id int64) (bool, error) {
	return q.exists(ctx, `SELECT
		(SELECT COUNT(*) FROM purchases WHERE supplier_id = ?) +
		(SELECT COUNT(*) FROM purchase_returns WHERE supplier_id = ?)`, id, id)
}
