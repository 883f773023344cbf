package store

import (
	"context"

	"github.com/google/uuid"

	"shopkeep/m/domain"
)

// InsertMovement appends one entry to the stock audit log. Ids are version 7
// uuids so they sort in insertion order.
func (q *Queries) InsertMovement(ctx context.Context, m *domain.StockMovement) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	m.ID = id.String()
	m.CreatedAt = q.now()
	_, err = q.exec(ctx, `INSERT INTO stock_movements (id, product_id, serial_id, movement_type, quantity_change,
		reference_type, reference_id, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.SerialID, m.MovementType, m.QuantityChange,
		m.ReferenceType, m.ReferenceID, m.CreatedBy, m.CreatedAt)
	return err
}

// ListMovements returns the product's audit trail, newest first.
func (q *Queries) ListMovements(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	movements := []domain.StockMovement{}
	err := q.selectAll(ctx, &movements, `SELECT id, product_id, serial_id, movement_type, quantity_change,
		reference_type, reference_id, created_by, created_at
		FROM stock_movements WHERE product_id = ? ORDER BY id DESC`, productID)
	return movements, err
}
