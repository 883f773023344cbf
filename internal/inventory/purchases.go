package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

type PurchaseInput struct {
	SupplierID  int64
	UserID      int64
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
	TotalPaid   decimal.Decimal
	Note        string
	Items       []ItemInput
}

// PurchaseUpdateInput rewrites a purchase header. When Items is non-nil the
// lines are replaced too: received serials are taken back and re-registered,
// bulk quantities change by the difference between old and new lines.
type PurchaseUpdateInput struct {
	SupplierID  int64
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
	TotalPaid   decimal.Decimal
	Note        string
	Items       []ItemInput
}

type receiptLine struct {
	product domain.Product
	item    ItemInput
}

// prepareReceipt validates lines that bring new stock in. Serialized lines
// must name one new, globally unique serial per unit.
func prepareReceipt(ctx context.Context, tx *store.Tx, items []ItemInput) ([]receiptLine, error) {
	products := productCache{}
	lines := make([]receiptLine, 0, len(items))
	var incoming []string
	for _, it := range items {
		p, err := products.lock(ctx, tx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p.UseIndividualSerials {
			if err := serialCount(p.Name, it.Serials, it.Quantity); err != nil {
				return nil, err
			}
			incoming = append(incoming, it.Serials...)
		} else if len(it.Serials) > 0 {
			return nil, apperr.Validation("product %s is not tracked by serial", p.Name)
		}
		lines = append(lines, receiptLine{product: p, item: it})
	}
	if _, err := checkSerialBatch(ctx, tx, incoming, 0); err != nil {
		return nil, err
	}
	return lines, nil
}

// receivePurchaseItems writes the lines and registers their serials. Bulk
// stock is added per line unless bulkStock is false, in which case the
// caller settles it.
func receivePurchaseItems(ctx context.Context, tx *store.Tx, purchaseID int64, lines []receiptLine, ref reference, bulkStock bool) ([]domain.PurchaseItem, error) {
	items := make([]domain.PurchaseItem, 0, len(lines))
	for _, line := range lines {
		item := domain.PurchaseItem{
			PurchaseID: purchaseID,
			ProductID:  line.product.ID,
			Quantity:   line.item.Quantity,
			UnitPrice:  line.item.UnitPrice,
			LineTotal:  line.item.lineTotal(),
		}
		if err := tx.InsertPurchaseItem(ctx, &item); err != nil {
			return nil, fmt.Errorf("insert purchase item: %w", err)
		}
		if line.product.UseIndividualSerials {
			serials, err := registerSerials(ctx, tx, line.product, line.item.Serials, false, domain.MovementPurchase, ref)
			if err != nil {
				return nil, err
			}
			for _, ps := range serials {
				if err := tx.LinkPurchaseItemSerial(ctx, item.ID, ps.ID); err != nil {
					return nil, fmt.Errorf("link purchased serial: %w", err)
				}
			}
			item.Serials = serials
		} else if bulkStock {
			if err := adjustStock(ctx, tx, line.product, line.item.Quantity, domain.MovementPurchase, ref); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// reversePurchaseItems takes back what the lines received and removes the
// line rows. Bulk stock must still be on hand; received serials must still
// be Available and untouched by any other record.
func reversePurchaseItems(ctx context.Context, tx *store.Tx, purchaseID int64, items []domain.PurchaseItem, ref reference) error {
	products := productCache{}
	for _, it := range items {
		p, err := products.lock(ctx, tx, it.ProductID)
		if err != nil {
			return err
		}
		if p.UseIndividualSerials {
			continue
		}
		if err := adjustStock(ctx, tx, p, -it.Quantity, domain.MovementPurchaseRevert, ref); err != nil {
			return err
		}
	}
	return dropPurchaseItems(ctx, tx, purchaseID, items, ref)
}

// dropPurchaseItems removes the line rows and the serials they registered,
// leaving bulk quantities alone.
func dropPurchaseItems(ctx context.Context, tx *store.Tx, purchaseID int64, items []domain.PurchaseItem, ref reference) error {
	var received []domain.ProductSerial
	for _, it := range items {
		if len(it.Serials) == 0 {
			continue
		}
		locked, err := tx.LockSerialsByID(ctx, serialIDs(it.Serials))
		if err != nil {
			return err
		}
		if err := requireRemovable(ctx, tx, locked, false); err != nil {
			return err
		}
		received = append(received, locked...)
	}
	if err := tx.DeletePurchaseItems(ctx, purchaseID); err != nil {
		return fmt.Errorf("delete purchase items: %w", err)
	}
	return unregisterSerials(ctx, tx, received, domain.MovementPurchaseRevert, ref)
}

// settleBulkChange moves each bulk product by the difference between the new
// and the old purchase lines. Only a net decrease is checked against stock,
// so units already sold off the old lines do not block a larger quantity.
func settleBulkChange(ctx context.Context, tx *store.Tx, old []domain.PurchaseItem, lines []receiptLine, ref reference) error {
	products := productCache{}
	net := map[int64]int64{}
	var order []int64
	add := func(id, qty int64) {
		if _, ok := net[id]; !ok {
			order = append(order, id)
		}
		net[id] += qty
	}
	for _, it := range old {
		p, err := products.lock(ctx, tx, it.ProductID)
		if err != nil {
			return err
		}
		if !p.UseIndividualSerials {
			add(p.ID, -it.Quantity)
		}
	}
	for _, line := range lines {
		if !line.product.UseIndividualSerials {
			products[line.product.ID] = line.product
			add(line.product.ID, line.item.Quantity)
		}
	}
	for _, id := range order {
		mt := domain.MovementPurchase
		if net[id] < 0 {
			mt = domain.MovementPurchaseRevert
		}
		if err := adjustStock(ctx, tx, products[id], net[id], mt, ref); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) CreatePurchase(ctx context.Context, in PurchaseInput) (domain.Purchase, error) {
	if err := validateItems(in.Items); err != nil {
		return domain.Purchase{}, err
	}
	t, err := computeTotals(sumLines(in.Items), in.Discount, in.TotalAmount, in.TotalPaid)
	if err != nil {
		return domain.Purchase{}, err
	}

	var purchase domain.Purchase
	err = s.run(ctx, "create purchase", func(tx *store.Tx) error {
		if _, err := tx.GetSupplier(ctx, in.SupplierID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, in.UserID); err != nil {
			return err
		}
		lines, err := prepareReceipt(ctx, tx, in.Items)
		if err != nil {
			return err
		}

		invoice, err := tx.NextInvoiceNo(ctx, store.PrefixPurchase)
		if err != nil {
			return err
		}
		purchase = domain.Purchase{
			InvoiceNo:   invoice,
			SupplierID:  in.SupplierID,
			UserID:      in.UserID,
			Subtotal:    t.Subtotal,
			Discount:    t.Discount,
			TotalAmount: t.Total,
			TotalPaid:   t.Paid,
			Due:         t.Due,
			Note:        in.Note,
		}
		if err := tx.InsertPurchase(ctx, &purchase); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		ref := reference{kind: "purchase", id: purchase.ID, userID: in.UserID}
		purchase.Items, err = receivePurchaseItems(ctx, tx, purchase.ID, lines, ref, true)
		return err
	})
	if err != nil {
		return domain.Purchase{}, err
	}
	s.log.Info("purchase created", zap.String("invoice_no", purchase.InvoiceNo), zap.Int("items", len(purchase.Items)))
	return purchase, nil
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (domain.Purchase, error) {
	purchase, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return purchase, err
	}
	purchase.Items, err = s.store.PurchaseItems(ctx, id)
	return purchase, err
}

func (s *Service) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	return s.store.ListPurchases(ctx)
}

// UpdatePurchase rewrites the header and, when new lines are given, replaces
// the old ones. The net effect of changing a line from 5 to 8 units is +8
// against the stock before the purchase, applied as a single +3.
func (s *Service) UpdatePurchase(ctx context.Context, id int64, in PurchaseUpdateInput) (domain.Purchase, error) {
	replace := in.Items != nil
	if replace {
		if err := validateItems(in.Items); err != nil {
			return domain.Purchase{}, err
		}
	}

	var purchase domain.Purchase
	err := s.run(ctx, "update purchase", func(tx *store.Tx) error {
		var err error
		if purchase, err = tx.LockPurchase(ctx, id); err != nil {
			return err
		}
		if _, err := tx.GetSupplier(ctx, in.SupplierID); err != nil {
			return err
		}
		old, err := tx.PurchaseItems(ctx, id)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		if replace {
			returned, err := tx.PurchaseHasReturns(ctx, id)
			if err != nil {
				return err
			}
			if returned {
				return apperr.StateConflict("purchase %s has returns and its items cannot be replaced", purchase.InvoiceNo)
			}
			ref := reference{kind: "purchase", id: id, userID: purchase.UserID}
			if err := dropPurchaseItems(ctx, tx, id, old, ref); err != nil {
				return err
			}
			lines, err := prepareReceipt(ctx, tx, in.Items)
			if err != nil {
				return err
			}
			if purchase.Items, err = receivePurchaseItems(ctx, tx, id, lines, ref, false); err != nil {
				return err
			}
			if err := settleBulkChange(ctx, tx, old, lines, ref); err != nil {
				return err
			}
			subtotal = sumLines(in.Items)
		} else {
			purchase.Items = old
			for _, it := range old {
				subtotal = subtotal.Add(it.LineTotal)
			}
		}

		t, err := computeTotals(subtotal, in.Discount, in.TotalAmount, in.TotalPaid)
		if err != nil {
			return err
		}
		purchase.SupplierID = in.SupplierID
		purchase.Subtotal, purchase.Discount, purchase.TotalAmount = t.Subtotal, t.Discount, t.Total
		purchase.TotalPaid, purchase.Due = t.Paid, t.Due
		purchase.Note = in.Note
		return tx.UpdatePurchaseHeader(ctx, &purchase)
	})
	if err != nil {
		return domain.Purchase{}, err
	}
	s.log.Info("purchase updated", zap.String("invoice_no", purchase.InvoiceNo), zap.Bool("items_replaced", replace))
	return purchase, nil
}

// DeletePurchase removes the purchase and everything it brought in.
func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	var invoice string
	err := s.run(ctx, "delete purchase", func(tx *store.Tx) error {
		purchase, err := tx.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		invoice = purchase.InvoiceNo
		returned, err := tx.PurchaseHasReturns(ctx, id)
		if err != nil {
			return err
		}
		if returned {
			return apperr.StateConflict("purchase %s has returns and cannot be deleted", purchase.InvoiceNo)
		}
		items, err := tx.PurchaseItems(ctx, id)
		if err != nil {
			return err
		}
		if err := reversePurchaseItems(ctx, tx, id, items, reference{kind: "purchase", id: id}); err != nil {
			return err
		}
		return tx.DeletePurchase(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("purchase deleted", zap.String("invoice_no", invoice))
	return nil
}
