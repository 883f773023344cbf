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

type SalesReturnInput struct {
	SaleID      int64
	UserID      int64
	TotalAmount decimal.Decimal
	TotalRefund decimal.Decimal
	Note        string
	Items       []ItemInput
}

type PurchaseReturnInput struct {
	SupplierID  int64
	PurchaseID  *int64
	UserID      int64
	TotalAmount decimal.Decimal
	TotalRefund decimal.Decimal
	Note        string
	Items       []ItemInput
}

// takeBackLine is a validated line coming back from the customer of a sale.
type takeBackLine struct {
	product domain.Product
	item    ItemInput
	serials []domain.ProductSerial
}

// prepareTakeBack validates lines a customer brings back against the sale
// they were bought on. A product can only come back up to the quantity the
// customer still holds from that sale, and serialized units must be named
// and must have gone out with that sale.
func prepareTakeBack(ctx context.Context, tx *store.Tx, products productCache, sale domain.Sale, items []ItemInput) ([]takeBackLine, error) {
	lines := make([]takeBackLine, 0, len(items))
	want := map[int64]int64{}
	for _, it := range items {
		p, err := products.lock(ctx, tx, it.ProductID)
		if err != nil {
			return nil, err
		}
		seen, err := tx.SaleProductSeen(ctx, sale.ID, p.ID)
		if err != nil {
			return nil, err
		}
		if !seen {
			return nil, apperr.Validation("product %s was not sold on %s", p.Name, sale.InvoiceNo)
		}
		held, err := tx.HeldQuantity(ctx, sale.ID, p.ID)
		if err != nil {
			return nil, err
		}
		want[p.ID] += it.Quantity
		if want[p.ID] > held {
			return nil, apperr.Validation("cannot take back %d of %s on %s, only %d outstanding",
				want[p.ID], p.Name, sale.InvoiceNo, held)
		}

		line := takeBackLine{product: p, item: it}
		if p.UseIndividualSerials {
			if err := serialCount(p.Name, it.Serials, it.Quantity); err != nil {
				return nil, err
			}
			if line.serials, err = resolveSerials(ctx, tx, p, it.Serials); err != nil {
				return nil, err
			}
			for _, ps := range line.serials {
				ok, err := tx.SerialHeldBySale(ctx, sale.ID, ps.ID)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, apperr.Validation("serial %s was not sold on %s", ps.Serial, sale.InvoiceNo)
				}
			}
			if err := requireState(line.serials, domain.SerialRestore); err != nil {
				return nil, err
			}
		} else if len(it.Serials) > 0 {
			return nil, apperr.Validation("product %s is not tracked by serial", p.Name)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// takeBack puts a prepared line's stock back.
func takeBack(ctx context.Context, tx *store.Tx, line takeBackLine, mt domain.MovementType, ref reference) error {
	if line.product.UseIndividualSerials {
		return markAvailable(ctx, tx, line.serials, mt, ref)
	}
	return adjustStock(ctx, tx, line.product, line.item.Quantity, mt, ref)
}

// refundTotals checks the refund of a return against its computed total.
func refundTotals(items []ItemInput, claimed, refund decimal.Decimal) (decimal.Decimal, error) {
	total := sumLines(items)
	if !claimed.IsZero() && !claimed.Equal(total) {
		return total, apperr.Validation("totalAmount %s does not match computed total %s", claimed.StringFixed(2), total.StringFixed(2))
	}
	if err := nonNegative("totalRefund", refund); err != nil {
		return total, err
	}
	if refund.GreaterThan(total) {
		return total, apperr.Validation("totalRefund %s exceeds total %s", refund.StringFixed(2), total.StringFixed(2))
	}
	return total, nil
}

func (s *Service) CreateSalesReturn(ctx context.Context, in SalesReturnInput) (domain.SalesReturn, error) {
	if err := validateItems(in.Items); err != nil {
		return domain.SalesReturn{}, err
	}
	total, err := refundTotals(in.Items, in.TotalAmount, in.TotalRefund)
	if err != nil {
		return domain.SalesReturn{}, err
	}

	var ret domain.SalesReturn
	err = s.run(ctx, "create sales return", func(tx *store.Tx) error {
		sale, err := tx.LockSale(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if err := requireUser(ctx, tx, in.UserID); err != nil {
			return err
		}
		lines, err := prepareTakeBack(ctx, tx, productCache{}, sale, in.Items)
		if err != nil {
			return err
		}

		invoice, err := tx.NextInvoiceNo(ctx, store.PrefixSalesReturn)
		if err != nil {
			return err
		}
		ret = domain.SalesReturn{
			InvoiceNo:   invoice,
			SaleID:      sale.ID,
			CustomerID:  sale.CustomerID,
			UserID:      in.UserID,
			TotalAmount: total,
			TotalRefund: in.TotalRefund,
			Note:        in.Note,
		}
		if err := tx.InsertSalesReturn(ctx, &ret); err != nil {
			return fmt.Errorf("insert sales return: %w", err)
		}

		ref := reference{kind: "sales_return", id: ret.ID, userID: in.UserID}
		for _, line := range lines {
			item := domain.SalesReturnItem{
				SalesReturnID: ret.ID,
				ProductID:     line.product.ID,
				Quantity:      line.item.Quantity,
				UnitPrice:     line.item.UnitPrice,
				LineTotal:     line.item.lineTotal(),
			}
			if err := tx.InsertSalesReturnItem(ctx, &item); err != nil {
				return fmt.Errorf("insert sales return item: %w", err)
			}
			if err := takeBack(ctx, tx, line, domain.MovementSalesReturn, ref); err != nil {
				return err
			}
			for _, ps := range line.serials {
				if err := tx.LinkSalesReturnItemSerial(ctx, item.ID, ps.ID); err != nil {
					return fmt.Errorf("link returned serial: %w", err)
				}
			}
			item.Serials = line.serials
			ret.Items = append(ret.Items, item)
		}
		return nil
	})
	if err != nil {
		return domain.SalesReturn{}, err
	}
	s.log.Info("sales return created", zap.String("invoice_no", ret.InvoiceNo), zap.Int64("sale_id", ret.SaleID))
	return ret, nil
}

func (s *Service) GetSalesReturn(ctx context.Context, id int64) (domain.SalesReturn, error) {
	ret, err := s.store.GetSalesReturn(ctx, id)
	if err != nil {
		return ret, err
	}
	ret.Items, err = s.store.SalesReturnItems(ctx, id)
	return ret, err
}

func (s *Service) ListSalesReturns(ctx context.Context) ([]domain.SalesReturn, error) {
	return s.store.ListSalesReturns(ctx)
}

// DeleteSalesReturn hands the returned stock back to the customer: bulk
// quantity leaves again and returned serials, which must still be Available,
// become Sold.
func (s *Service) DeleteSalesReturn(ctx context.Context, id int64) error {
	var invoice string
	err := s.run(ctx, "delete sales return", func(tx *store.Tx) error {
		ret, err := tx.GetSalesReturn(ctx, id)
		if err != nil {
			return err
		}
		invoice = ret.InvoiceNo
		items, err := tx.SalesReturnItems(ctx, id)
		if err != nil {
			return err
		}
		ref := reference{kind: "sales_return", id: id}
		products := productCache{}
		for _, it := range items {
			p, err := products.lock(ctx, tx, it.ProductID)
			if err != nil {
				return err
			}
			if len(it.Serials) > 0 {
				err = markSold(ctx, tx, it.Serials, domain.MovementSalesReturnRev, ref)
			} else {
				err = adjustStock(ctx, tx, p, -it.Quantity, domain.MovementSalesReturnRev, ref)
			}
			if err != nil {
				return err
			}
		}
		return tx.DeleteSalesReturn(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("sales return deleted", zap.String("invoice_no", invoice))
	return nil
}

// CreatePurchaseReturn sends stock back to a supplier. Serialized units
// leave inventory by moving to Sold. When the return names a purchase, only
// products and serials received on it, and no more than was received, can
// go back.
func (s *Service) CreatePurchaseReturn(ctx context.Context, in PurchaseReturnInput) (domain.PurchaseReturn, error) {
	if err := validateItems(in.Items); err != nil {
		return domain.PurchaseReturn{}, err
	}
	total, err := refundTotals(in.Items, in.TotalAmount, in.TotalRefund)
	if err != nil {
		return domain.PurchaseReturn{}, err
	}

	var ret domain.PurchaseReturn
	err = s.run(ctx, "create purchase return", func(tx *store.Tx) error {
		supplierID := in.SupplierID
		if in.PurchaseID != nil {
			purchase, err := tx.LockPurchase(ctx, *in.PurchaseID)
			if err != nil {
				return err
			}
			if supplierID == 0 {
				supplierID = purchase.SupplierID
			}
			if supplierID != purchase.SupplierID {
				return apperr.Validation("purchase %s was not bought from supplier %d", purchase.InvoiceNo, supplierID)
			}
		}
		if _, err := tx.GetSupplier(ctx, supplierID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, in.UserID); err != nil {
			return err
		}
		lines, err := preparePurchaseReturn(ctx, tx, in.PurchaseID, in.Items)
		if err != nil {
			return err
		}

		invoice, err := tx.NextInvoiceNo(ctx, store.PrefixPurchaseReturn)
		if err != nil {
			return err
		}
		ret = domain.PurchaseReturn{
			InvoiceNo:   invoice,
			PurchaseID:  in.PurchaseID,
			SupplierID:  supplierID,
			UserID:      in.UserID,
			TotalAmount: total,
			TotalRefund: in.TotalRefund,
			Note:        in.Note,
		}
		if err := tx.InsertPurchaseReturn(ctx, &ret); err != nil {
			return fmt.Errorf("insert purchase return: %w", err)
		}

		ref := reference{kind: "purchase_return", id: ret.ID, userID: in.UserID}
		for _, line := range lines {
			item := domain.PurchaseReturnItem{
				PurchaseReturnID: ret.ID,
				ProductID:        line.product.ID,
				Quantity:         line.item.Quantity,
				UnitPrice:        line.item.UnitPrice,
				LineTotal:        line.item.lineTotal(),
			}
			if err := tx.InsertPurchaseReturnItem(ctx, &item); err != nil {
				return fmt.Errorf("insert purchase return item: %w", err)
			}
			if err := issue(ctx, tx, line, domain.MovementPurchaseReturn, ref); err != nil {
				return err
			}
			for _, ps := range line.serials {
				if err := tx.LinkPurchaseReturnItemSerial(ctx, item.ID, ps.ID); err != nil {
					return fmt.Errorf("link returned serial: %w", err)
				}
			}
			item.Serials = line.serials
			ret.Items = append(ret.Items, item)
		}
		return nil
	})
	if err != nil {
		return domain.PurchaseReturn{}, err
	}
	s.log.Info("purchase return created", zap.String("invoice_no", ret.InvoiceNo), zap.Int64("supplier_id", ret.SupplierID))
	return ret, nil
}

// preparePurchaseReturn validates outgoing lines to a supplier. Unlike a
// sale, serials are always explicit and the product need not be active.
func preparePurchaseReturn(ctx context.Context, tx *store.Tx, purchaseID *int64, items []ItemInput) ([]issueLine, error) {
	products := productCache{}
	lines := make([]issueLine, 0, len(items))
	want := map[int64]int64{}
	for _, it := range items {
		p, err := products.lock(ctx, tx, it.ProductID)
		if err != nil {
			return nil, err
		}
		want[p.ID] += it.Quantity
		if purchaseID != nil {
			left, err := tx.ReturnablePurchaseQuantity(ctx, *purchaseID, p.ID)
			if err != nil {
				return nil, err
			}
			if want[p.ID] > left {
				return nil, apperr.Validation("cannot return %d of %s, only %d left on the purchase", want[p.ID], p.Name, left)
			}
		}

		line := issueLine{product: p, item: it}
		if p.UseIndividualSerials {
			if err := serialCount(p.Name, it.Serials, it.Quantity); err != nil {
				return nil, err
			}
			if line.serials, err = resolveSerials(ctx, tx, p, it.Serials); err != nil {
				return nil, err
			}
			if err := requireState(line.serials, domain.SerialSell); err != nil {
				return nil, err
			}
			if purchaseID != nil {
				for _, ps := range line.serials {
					ok, err := tx.SerialFromPurchase(ctx, *purchaseID, ps.ID)
					if err != nil {
						return nil, err
					}
					if !ok {
						return nil, apperr.Validation("serial %s was not received on purchase %d", ps.Serial, *purchaseID)
					}
				}
			}
		} else {
			if len(it.Serials) > 0 {
				return nil, apperr.Validation("product %s is not tracked by serial", p.Name)
			}
			if err := checkStock(p, want[p.ID]); err != nil {
				return nil, err
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) GetPurchaseReturn(ctx context.Context, id int64) (domain.PurchaseReturn, error) {
	ret, err := s.store.GetPurchaseReturn(ctx, id)
	if err != nil {
		return ret, err
	}
	ret.Items, err = s.store.PurchaseReturnItems(ctx, id)
	return ret, err
}

func (s *Service) ListPurchaseReturns(ctx context.Context) ([]domain.PurchaseReturn, error) {
	return s.store.ListPurchaseReturns(ctx)
}

// DeletePurchaseReturn brings the returned stock back into inventory.
func (s *Service) DeletePurchaseReturn(ctx context.Context, id int64) error {
	var invoice string
	err := s.run(ctx, "delete purchase return", func(tx *store.Tx) error {
		ret, err := tx.GetPurchaseReturn(ctx, id)
		if err != nil {
			return err
		}
		invoice = ret.InvoiceNo
		items, err := tx.PurchaseReturnItems(ctx, id)
		if err != nil {
			return err
		}
		ref := reference{kind: "purchase_return", id: id}
		products := productCache{}
		for _, it := range items {
			p, err := products.lock(ctx, tx, it.ProductID)
			if err != nil {
				return err
			}
			if len(it.Serials) > 0 {
				err = markAvailable(ctx, tx, it.Serials, domain.MovementPurchaseRetRev, ref)
			} else {
				err = adjustStock(ctx, tx, p, it.Quantity, domain.MovementPurchaseRetRev, ref)
			}
			if err != nil {
				return err
			}
		}
		return tx.DeletePurchaseReturn(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("purchase return deleted", zap.String("invoice_no", invoice))
	return nil
}
