package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

// ProductInput creates or replaces a product. For serialized products
// Serials is the complete set of Available units and must have exactly
// Quantity entries.
type ProductInput struct {
	Name                 string
	SKU                  *string
	Quantity             int64
	PurchasePrice        decimal.Decimal
	WholesalePrice       decimal.Decimal
	RetailPrice          decimal.Decimal
	UseIndividualSerials bool
	Status               domain.ProductStatus
	Serials              []string
	HasWarranty          bool
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			in.SKU = nil
		} else {
			in.SKU = &sku
		}
	}
	if in.Status == "" {
		in.Status = domain.ProductActive
	}
	if !in.Status.Valid() {
		return apperr.Validation("unknown product status %q", in.Status)
	}
	if in.Quantity < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	for field, v := range map[string]decimal.Decimal{
		"purchase_price":  in.PurchasePrice,
		"wholesale_price": in.WholesalePrice,
		"retail_price":    in.RetailPrice,
	} {
		if err := nonNegative(field, v); err != nil {
			return err
		}
	}
	if in.UseIndividualSerials {
		return serialCount(in.Name, in.Serials, in.Quantity)
	}
	if len(in.Serials) > 0 {
		return apperr.Validation("serials given for %s, which is not tracked by serial", in.Name)
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = in.Name
	p.SKU = in.SKU
	p.Quantity = in.Quantity
	p.PurchasePrice = in.PurchasePrice
	p.WholesalePrice = in.WholesalePrice
	p.RetailPrice = in.RetailPrice
	p.UseIndividualSerials = in.UseIndividualSerials
	p.Status = in.Status
}

func checkSKU(ctx context.Context, tx *store.Tx, sku *string, excludeID int64) error {
	if sku == nil {
		return nil
	}
	taken, err := tx.SKUTaken(ctx, *sku, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Validation("sku %s is already in use", *sku)
	}
	return nil
}

// CreateProduct registers a product with its opening stock. Either the
// product and all of its serials are created, or nothing is.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := in.normalize(); err != nil {
		return domain.Product{}, err
	}

	var p domain.Product
	err := s.run(ctx, "create product", func(tx *store.Tx) error {
		if err := checkSKU(ctx, tx, in.SKU, 0); err != nil {
			return err
		}
		if _, err := checkSerialBatch(ctx, tx, in.Serials, 0); err != nil {
			return err
		}
		in.apply(&p)
		if err := tx.InsertProduct(ctx, &p); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}

		ref := reference{kind: "product", id: p.ID}
		if p.UseIndividualSerials {
			_, err := registerSerials(ctx, tx, p, in.Serials, in.HasWarranty, domain.MovementOpening, ref)
			return err
		}
		if p.Quantity > 0 {
			return tx.InsertMovement(ctx, ref.movement(p.ID, nil, domain.MovementOpening, p.Quantity))
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	p.Stock = p.Quantity
	s.log.Info("product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct replaces a product. For serialized products the submitted
// serials become the product's Available set: unknown strings are
// registered, Available serials left out are removed, and submitting a
// serial that is currently Sold fails. Serial tracking can only be switched
// on a product no record refers to.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (domain.Product, error) {
	if err := in.normalize(); err != nil {
		return domain.Product{}, err
	}

	var p domain.Product
	err := s.run(ctx, "update product", func(tx *store.Tx) error {
		var err error
		if p, err = tx.LockProduct(ctx, id); err != nil {
			return err
		}
		if p.UseIndividualSerials != in.UseIndividualSerials {
			referenced, err := tx.ProductReferenced(ctx, id)
			if err != nil {
				return err
			}
			if referenced {
				return apperr.StateConflict("serial tracking of %s cannot change once it has records", p.Name)
			}
		}
		if err := checkSKU(ctx, tx, in.SKU, id); err != nil {
			return err
		}

		ref := reference{kind: "product", id: id}
		current, err := tx.ListSerials(ctx, id, "")
		if err != nil {
			return err
		}
		if in.UseIndividualSerials {
			if !p.UseIndividualSerials && p.Quantity > 0 {
				if err := tx.InsertMovement(ctx, ref.movement(id, nil, domain.MovementAdjustment, -p.Quantity)); err != nil {
					return err
				}
			}
			if err := replaceSerials(ctx, tx, p, current, in.Serials, in.HasWarranty, ref); err != nil {
				return err
			}
		} else {
			delta := in.Quantity - p.Quantity
			if p.UseIndividualSerials {
				if err := requireRemovable(ctx, tx, current, true); err != nil {
					return err
				}
				if err := unregisterSerials(ctx, tx, current, domain.MovementAdjustment, ref); err != nil {
					return err
				}
				delta = in.Quantity
			}
			if delta != 0 {
				if err := tx.InsertMovement(ctx, ref.movement(id, nil, domain.MovementAdjustment, delta)); err != nil {
					return err
				}
			}
		}
		in.apply(&p)
		return tx.UpdateProduct(ctx, &p)
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product updated", zap.Int64("product_id", p.ID))
	return s.GetProduct(ctx, id)
}

// replaceSerials makes wanted the exact Available set of p.
func replaceSerials(ctx context.Context, tx *store.Tx, p domain.Product, current []domain.ProductSerial, wanted []string, warranty bool, ref reference) error {
	own, err := checkSerialBatch(ctx, tx, wanted, p.ID)
	if err != nil {
		return err
	}
	var fresh []string
	for _, v := range wanted {
		ps, ok := own[v]
		if !ok {
			fresh = append(fresh, v)
			continue
		}
		if ps.State != domain.SerialAvailable {
			return apperr.SerialUnavailable("serial %s is already sold", v)
		}
	}
	keep := make(map[string]bool, len(wanted))
	for _, v := range wanted {
		keep[v] = true
	}
	var dropped []domain.ProductSerial
	for _, ps := range current {
		if ps.State == domain.SerialAvailable && !keep[ps.Serial] {
			dropped = append(dropped, ps)
		}
	}
	if err := requireRemovable(ctx, tx, dropped, true); err != nil {
		return err
	}
	if err := unregisterSerials(ctx, tx, dropped, domain.MovementAdjustment, ref); err != nil {
		return err
	}
	_, err = registerSerials(ctx, tx, p, fresh, warranty, domain.MovementAdjustment, ref)
	return err
}

// DeleteProduct removes a product that no business record refers to,
// together with its serials.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.run(ctx, "delete product", func(tx *store.Tx) error {
		p, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}
		referenced, err := tx.ProductReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperr.StateConflict("product %s is used by existing records and cannot be deleted", p.Name)
		}
		serials, err := tx.ListSerials(ctx, id, "")
		if err != nil {
			return err
		}
		if err := tx.DeleteSerials(ctx, serialIDs(serials)); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}
