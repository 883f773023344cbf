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

type ExchangeItemInput struct {
	OldProductID int64
	NewProductID int64
	Quantity     int64
	OldUnitPrice decimal.Decimal
	NewUnitPrice decimal.Decimal
	OldSerials   []string
	NewSerials   []string
}

func (it ExchangeItemInput) returned() ItemInput {
	return ItemInput{ProductID: it.OldProductID, Quantity: it.Quantity, UnitPrice: it.OldUnitPrice, Serials: it.OldSerials}
}

func (it ExchangeItemInput) issued() ItemInput {
	return ItemInput{ProductID: it.NewProductID, Quantity: it.Quantity, UnitPrice: it.NewUnitPrice, Serials: it.NewSerials}
}

type ExchangeInput struct {
	SaleID    int64
	UserID    int64
	TotalPaid decimal.Decimal
	Note      string
	Items     []ExchangeItemInput
}

func validateExchangeItems(items []ExchangeItemInput) ([]ItemInput, []ItemInput, error) {
	if len(items) == 0 {
		return nil, nil, apperr.Validation("at least one item is required")
	}
	returned := make([]ItemInput, len(items))
	issued := make([]ItemInput, len(items))
	for i, it := range items {
		returned[i], issued[i] = it.returned(), it.issued()
	}
	if err := validateItems(returned); err != nil {
		return nil, nil, err
	}
	if err := validateItems(issued); err != nil {
		return nil, nil, err
	}
	return returned, issued, nil
}

// CreateExchange takes units of an old product back from the customer of a
// sale and issues units of a new product in their place. The returned side
// follows the sales return rules and the issued side follows the sale rules.
func (s *Service) CreateExchange(ctx context.Context, in ExchangeInput) (domain.Exchange, error) {
	returnedItems, issuedItems, err := validateExchangeItems(in.Items)
	if err != nil {
		return domain.Exchange{}, err
	}
	if err := nonNegative("totalPaid", in.TotalPaid); err != nil {
		return domain.Exchange{}, err
	}

	var ex domain.Exchange
	err = s.run(ctx, "create exchange", func(tx *store.Tx) error {
		sale, err := tx.LockSale(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if err := requireUser(ctx, tx, in.UserID); err != nil {
			return err
		}
		products := productCache{}
		back, err := prepareTakeBack(ctx, tx, products, sale, returnedItems)
		if err != nil {
			return err
		}
		out, err := prepareIssue(ctx, tx, products, issuedItems)
		if err != nil {
			return err
		}

		invoice, err := tx.NextInvoiceNo(ctx, store.PrefixExchange)
		if err != nil {
			return err
		}
		returnedTotal, issuedTotal := sumLines(returnedItems), sumLines(issuedItems)
		ex = domain.Exchange{
			InvoiceNo:     invoice,
			SaleID:        sale.ID,
			CustomerID:    sale.CustomerID,
			UserID:        in.UserID,
			ReturnedTotal: returnedTotal,
			IssuedTotal:   issuedTotal,
			Difference:    issuedTotal.Sub(returnedTotal),
			TotalPaid:     in.TotalPaid,
			Note:          in.Note,
		}
		if err := tx.InsertExchange(ctx, &ex); err != nil {
			return fmt.Errorf("insert exchange: %w", err)
		}

		ref := reference{kind: "exchange", id: ex.ID, userID: in.UserID}
		for i, it := range in.Items {
			item := domain.ExchangeItem{
				ExchangeID:   ex.ID,
				OldProductID: it.OldProductID,
				NewProductID: it.NewProductID,
				Quantity:     it.Quantity,
				OldUnitPrice: it.OldUnitPrice,
				NewUnitPrice: it.NewUnitPrice,
			}
			if err := tx.InsertExchangeItem(ctx, &item); err != nil {
				return fmt.Errorf("insert exchange item: %w", err)
			}
			if err := takeBack(ctx, tx, back[i], domain.MovementExchangeIn, ref); err != nil {
				return err
			}
			if err := issue(ctx, tx, out[i], domain.MovementExchangeOut, ref); err != nil {
				return err
			}
			for _, ps := range back[i].serials {
				if err := tx.LinkExchangeItemSerial(ctx, item.ID, ps.ID, domain.DirectionReturned); err != nil {
					return fmt.Errorf("link returned serial: %w", err)
				}
			}
			for _, ps := range out[i].serials {
				if err := tx.LinkExchangeItemSerial(ctx, item.ID, ps.ID, domain.DirectionIssued); err != nil {
					return fmt.Errorf("link issued serial: %w", err)
				}
			}
			item.OldSerials, item.NewSerials = back[i].serials, out[i].serials
			ex.Items = append(ex.Items, item)
		}
		return nil
	})
	if err != nil {
		return domain.Exchange{}, err
	}
	s.log.Info("exchange created", zap.String("invoice_no", ex.InvoiceNo), zap.String("difference", ex.Difference.StringFixed(2)))
	return ex, nil
}

func (s *Service) GetExchange(ctx context.Context, id int64) (domain.Exchange, error) {
	ex, err := s.store.GetExchange(ctx, id)
	if err != nil {
		return ex, err
	}
	ex.Items, err = s.store.ExchangeItems(ctx, id)
	return ex, err
}

func (s *Service) ListExchanges(ctx context.Context) ([]domain.Exchange, error) {
	return s.store.ListExchanges(ctx)
}

// DeleteExchange reverses both sides: issued units come back into stock and
// returned units go back out to the customer. An exchange that a later
// exchange or return builds on cannot be deleted.
func (s *Service) DeleteExchange(ctx context.Context, id int64) error {
	var invoice string
	err := s.run(ctx, "delete exchange", func(tx *store.Tx) error {
		ex, err := tx.GetExchange(ctx, id)
		if err != nil {
			return err
		}
		invoice = ex.InvoiceNo
		superseded, err := tx.ExchangeSuperseded(ctx, ex)
		if err != nil {
			return err
		}
		if superseded {
			return apperr.StateConflict("exchange %s is followed by later returns or exchanges and cannot be deleted", ex.InvoiceNo)
		}
		items, err := tx.ExchangeItems(ctx, id)
		if err != nil {
			return err
		}

		ref := reference{kind: "exchange", id: id}
		products := productCache{}
		for _, it := range items {
			newP, err := products.lock(ctx, tx, it.NewProductID)
			if err != nil {
				return err
			}
			if len(it.NewSerials) > 0 {
				err = markAvailable(ctx, tx, it.NewSerials, domain.MovementExchangeRev, ref)
			} else {
				err = adjustStock(ctx, tx, newP, it.Quantity, domain.MovementExchangeRev, ref)
			}
			if err != nil {
				return err
			}
		}
		for _, it := range items {
			oldP, err := products.lock(ctx, tx, it.OldProductID)
			if err != nil {
				return err
			}
			if len(it.OldSerials) > 0 {
				err = markSold(ctx, tx, it.OldSerials, domain.MovementExchangeRev, ref)
			} else {
				err = adjustStock(ctx, tx, oldP, -it.Quantity, domain.MovementExchangeRev, ref)
			}
			if err != nil {
				return err
			}
		}
		return tx.DeleteExchange(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("exchange deleted", zap.String("invoice_no", invoice))
	return nil
}
