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

type SaleInput struct {
	CustomerID  int64
	UserID      int64
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
	TotalPaid   decimal.Decimal
	Note        string
	Items       []ItemInput
}

// SaleHeaderInput changes the header of an existing sale. Lines are fixed
// once sold; delete and re-enter the sale to change them.
type SaleHeaderInput struct {
	CustomerID  int64
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
	TotalPaid   decimal.Decimal
	Note        string
}

// issueLine is a validated outgoing line: the locked product and, for
// serialized products, the exact units that will leave.
type issueLine struct {
	product domain.Product
	item    ItemInput
	serials []domain.ProductSerial
}

// prepareIssue validates lines that take stock out to a customer. Nothing is
// written. Lines naming their serials are resolved first so that lines left
// to auto-pick never claim a unit another line asked for by name.
func prepareIssue(ctx context.Context, tx *store.Tx, products productCache, items []ItemInput) ([]issueLine, error) {
	lines := make([]issueLine, len(items))
	want := map[int64]int64{}
	taken := map[int64]bool{}
	var autoPick []int
	for i, it := range items {
		p, err := products.lock(ctx, tx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Status != domain.ProductActive {
			return nil, apperr.StateConflict("product %s is not active", p.Name)
		}
		line := issueLine{product: p, item: it}
		switch {
		case p.UseIndividualSerials && len(it.Serials) > 0:
			if err := serialCount(p.Name, it.Serials, it.Quantity); err != nil {
				return nil, err
			}
			if line.serials, err = resolveSerials(ctx, tx, p, it.Serials); err != nil {
				return nil, err
			}
			if err := requireState(line.serials, domain.SerialSell); err != nil {
				return nil, err
			}
			for _, ps := range line.serials {
				if taken[ps.ID] {
					return nil, apperr.Validation("serial %s is requested more than once", ps.Serial)
				}
				taken[ps.ID] = true
			}
		case p.UseIndividualSerials:
			autoPick = append(autoPick, i)
		default:
			if len(it.Serials) > 0 {
				return nil, apperr.Validation("product %s is not tracked by serial", p.Name)
			}
			want[p.ID] += it.Quantity
			if err := checkStock(p, want[p.ID]); err != nil {
				return nil, err
			}
		}
		lines[i] = line
	}
	for _, i := range autoPick {
		picked, err := reserveSerials(ctx, tx, lines[i].product, lines[i].item.Quantity, taken)
		if err != nil {
			return nil, err
		}
		for _, ps := range picked {
			taken[ps.ID] = true
		}
		lines[i].serials = picked
	}
	return lines, nil
}

// issue takes a prepared line's stock out.
func issue(ctx context.Context, tx *store.Tx, line issueLine, mt domain.MovementType, ref reference) error {
	if line.product.UseIndividualSerials {
		return markSold(ctx, tx, line.serials, mt, ref)
	}
	return adjustStock(ctx, tx, line.product, -line.item.Quantity, mt, ref)
}

func (s *Service) CreateSale(ctx context.Context, in SaleInput) (domain.Sale, error) {
	if err := validateItems(in.Items); err != nil {
		return domain.Sale{}, err
	}
	t, err := computeTotals(sumLines(in.Items), in.Discount, in.TotalAmount, in.TotalPaid)
	if err != nil {
		return domain.Sale{}, err
	}

	var sale domain.Sale
	err = s.run(ctx, "create sale", func(tx *store.Tx) error {
		if _, err := tx.GetCustomer(ctx, in.CustomerID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, in.UserID); err != nil {
			return err
		}
		lines, err := prepareIssue(ctx, tx, productCache{}, in.Items)
		if err != nil {
			return err
		}

		invoice, err := tx.NextInvoiceNo(ctx, store.PrefixSale)
		if err != nil {
			return err
		}
		sale = domain.Sale{
			InvoiceNo:   invoice,
			CustomerID:  in.CustomerID,
			UserID:      in.UserID,
			Subtotal:    t.Subtotal,
			Discount:    t.Discount,
			TotalAmount: t.Total,
			TotalPaid:   t.Paid,
			Due:         t.Due,
			Note:        in.Note,
		}
		if err := tx.InsertSale(ctx, &sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		ref := reference{kind: "sale", id: sale.ID, userID: in.UserID}
		for _, line := range lines {
			item := domain.SaleItem{
				SaleID:    sale.ID,
				ProductID: line.product.ID,
				Quantity:  line.item.Quantity,
				UnitPrice: line.item.UnitPrice,
				LineTotal: line.item.lineTotal(),
			}
			if err := tx.InsertSaleItem(ctx, &item); err != nil {
				return fmt.Errorf("insert sale item: %w", err)
			}
			if err := issue(ctx, tx, line, domain.MovementSale, ref); err != nil {
				return err
			}
			for _, ps := range line.serials {
				if err := tx.LinkSaleItemSerial(ctx, item.ID, ps.ID); err != nil {
					return fmt.Errorf("link sold serial: %w", err)
				}
			}
			item.Serials = line.serials
			sale.Items = append(sale.Items, item)
		}
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}
	s.log.Info("sale created", zap.String("invoice_no", sale.InvoiceNo), zap.Int("items", len(sale.Items)))
	return sale, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return sale, err
	}
	sale.Items, err = s.store.SaleItems(ctx, id)
	return sale, err
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.store.ListSales(ctx)
}

// UpdateSale rewrites the header and recomputes its amounts from the
// existing lines.
func (s *Service) UpdateSale(ctx context.Context, id int64, in SaleHeaderInput) (domain.Sale, error) {
	var sale domain.Sale
	err := s.run(ctx, "update sale", func(tx *store.Tx) error {
		var err error
		if sale, err = tx.LockSale(ctx, id); err != nil {
			return err
		}
		if _, err := tx.GetCustomer(ctx, in.CustomerID); err != nil {
			return err
		}
		if sale.Items, err = tx.SaleItems(ctx, id); err != nil {
			return err
		}
		subtotal := decimal.Zero
		for _, it := range sale.Items {
			subtotal = subtotal.Add(it.LineTotal)
		}
		t, err := computeTotals(subtotal, in.Discount, in.TotalAmount, in.TotalPaid)
		if err != nil {
			return err
		}
		sale.CustomerID = in.CustomerID
		sale.Subtotal, sale.Discount, sale.TotalAmount = t.Subtotal, t.Discount, t.Total
		sale.TotalPaid, sale.Due = t.Paid, t.Due
		sale.Note = in.Note
		return tx.UpdateSaleHeader(ctx, &sale)
	})
	if err != nil {
		return domain.Sale{}, err
	}
	s.log.Info("sale updated", zap.String("invoice_no", sale.InvoiceNo))
	return sale, nil
}

// DeleteSale puts back exactly what the sale took: the quantity of every
// bulk line and the very serials of every serialized line. Sales that later
// returns or exchanges depend on cannot be deleted.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	var invoice string
	err := s.run(ctx, "delete sale", func(tx *store.Tx) error {
		sale, err := tx.LockSale(ctx, id)
		if err != nil {
			return err
		}
		invoice = sale.InvoiceNo
		dependent, err := tx.SaleHasDependents(ctx, id)
		if err != nil {
			return err
		}
		if dependent {
			return apperr.StateConflict("sale %s has returns or exchanges and cannot be deleted", sale.InvoiceNo)
		}
		items, err := tx.SaleItems(ctx, id)
		if err != nil {
			return err
		}

		ref := reference{kind: "sale", id: id}
		products := productCache{}
		for _, it := range items {
			p, err := products.lock(ctx, tx, it.ProductID)
			if err != nil {
				return err
			}
			if len(it.Serials) > 0 {
				err = markAvailable(ctx, tx, it.Serials, domain.MovementSaleReversal, ref)
			} else {
				err = adjustStock(ctx, tx, p, it.Quantity, domain.MovementSaleReversal, ref)
			}
			if err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("sale deleted", zap.String("invoice_no", invoice))
	return nil
}
