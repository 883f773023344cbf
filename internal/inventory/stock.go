package inventory

import (
	"context"
	"fmt"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

// checkStock fails when a non-serialized product has fewer than qty units.
func checkStock(p domain.Product, qty int64) error {
	if p.Quantity < qty {
		return apperr.InsufficientStock("insufficient stock for %s: requested %d, available %d", p.Name, qty, p.Quantity)
	}
	return nil
}

// adjustStock applies delta to a non-serialized product and records the
// movement. A decrement that would take the quantity below zero changes
// nothing and fails with InsufficientStock.
func adjustStock(ctx context.Context, tx *store.Tx, p domain.Product, delta int64, mt domain.MovementType, ref reference) error {
	if p.UseIndividualSerials {
		return fmt.Errorf("product %d is serialized, its stock follows its serials", p.ID)
	}
	if delta == 0 {
		return nil
	}
	ok, err := tx.AddQuantity(ctx, p.ID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock of product %d: %w", p.ID, err)
	}
	if !ok {
		return apperr.InsufficientStock("insufficient stock for %s: cannot remove %d", p.Name, -delta)
	}
	return tx.InsertMovement(ctx, ref.movement(p.ID, nil, mt, delta))
}

// ProductStock is the authoritative on-hand count of a product.
func (s *Service) ProductStock(ctx context.Context, productID int64) (int64, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

// ListMovements returns the product's stock audit trail, newest first.
func (s *Service) ListMovements(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, productID)
}
