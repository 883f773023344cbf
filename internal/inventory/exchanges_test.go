package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
)

func (f *fixture) exchange(saleID int64, items ...ExchangeItemInput) ExchangeInput {
	return ExchangeInput{SaleID: saleID, UserID: f.userID, Items: items}
}

func swap(oldID, newID, qty int64, oldPrice, newPrice int64) ExchangeItemInput {
	return ExchangeItemInput{
		OldProductID: oldID,
		NewProductID: newID,
		Quantity:     qty,
		OldUnitPrice: decimal.NewFromInt(oldPrice),
		NewUnitPrice: decimal.NewFromInt(newPrice),
	}
}

func TestExchange_BulkSwapAndReverse(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	small := f.bulkProduct(t, "Shirt S", 10)
	large := f.bulkProduct(t, "Shirt L", 10)
	sale := f.sell(t, item(small.ID, 2))

	// WHEN one small shirt is swapped for a large one costing more
	ex, err := f.svc.CreateExchange(ctx, f.exchange(sale.ID, swap(small.ID, large.ID, 1, 10, 12)))
	require.NoError(t, err)

	// THEN the small one is back in stock, the large one is out
	assert.Equal(t, "EXC-00001", ex.InvoiceNo)
	assert.True(t, ex.Difference.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(9), f.quantity(t, small.ID))
	assert.Equal(t, int64(9), f.quantity(t, large.ID))

	// the customer can now return the large shirt against the same sale
	held, err := f.store.HeldQuantity(ctx, sale.ID, large.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held)

	// WHEN the exchange is deleted
	require.NoError(t, f.svc.DeleteExchange(ctx, ex.ID))

	// THEN both products are back where they were after the sale
	assert.Equal(t, int64(8), f.quantity(t, small.ID))
	assert.Equal(t, int64(10), f.quantity(t, large.ID))
}

func TestExchange_SerializedSwap(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	phone := f.serialProduct(t, "Phone", "F1", "F2", "F3")
	sale := f.sell(t, item(phone.ID, 1, "F1"))

	in := f.exchange(sale.ID, swap(phone.ID, phone.ID, 1, 100, 100))
	in.Items[0].OldSerials = []string{"F1"}
	ex, err := f.svc.CreateExchange(ctx, in)
	require.NoError(t, err)

	// F1 came back, F2 was picked as the replacement
	assert.Equal(t, map[string]domain.SerialState{
		"F1": domain.SerialAvailable, "F2": domain.SerialSold, "F3": domain.SerialAvailable,
	}, f.states(t, phone.ID))
	loaded, err := f.svc.GetExchange(ctx, ex.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, []string{"F1"}, serialStrings(loaded.Items[0].OldSerials))
	assert.Equal(t, []string{"F2"}, serialStrings(loaded.Items[0].NewSerials))

	// F2 is now returnable on the original sale, F1 is not
	_, err = f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(phone.ID, 1, "F1")))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.svc.DeleteExchange(ctx, ex.ID))
	assert.Equal(t, map[string]domain.SerialState{
		"F1": domain.SerialSold, "F2": domain.SerialAvailable, "F3": domain.SerialAvailable,
	}, f.states(t, phone.ID))
}

func TestExchange_Rules(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	a := f.bulkProduct(t, "A", 10)
	b := f.bulkProduct(t, "B", 1)
	c := f.bulkProduct(t, "C", 10)
	sale := f.sell(t, item(a.ID, 1))

	_, err := f.svc.CreateExchange(ctx, f.exchange(sale.ID, swap(c.ID, b.ID, 1, 10, 10)))
	assert.ErrorIs(t, err, apperr.ErrValidation, "old product not on sale")

	_, err = f.svc.CreateExchange(ctx, f.exchange(sale.ID, swap(a.ID, b.ID, 2, 10, 10)))
	assert.ErrorIs(t, err, apperr.ErrValidation, "more than was sold")

	require.NoError(t, f.svc.DeleteSale(ctx, sale.ID))
	sale = f.sell(t, item(a.ID, 3))
	_, err = f.svc.CreateExchange(ctx, f.exchange(sale.ID, swap(a.ID, b.ID, 2, 10, 10)))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock, "replacement out of stock")

	assert.Equal(t, int64(7), f.quantity(t, a.ID))
	assert.Equal(t, int64(1), f.quantity(t, b.ID))
}

func TestExchange_DeleteBlockedByLaterActivity(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	a := f.bulkProduct(t, "A", 10)
	b := f.bulkProduct(t, "B", 10)
	sale := f.sell(t, item(a.ID, 2))

	ex, err := f.svc.CreateExchange(ctx, f.exchange(sale.ID, swap(a.ID, b.ID, 1, 10, 10)))
	require.NoError(t, err)
	_, err = f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(b.ID, 1)))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteExchange(ctx, ex.ID), apperr.ErrStateConflict)
	assert.ErrorIs(t, f.svc.DeleteSale(ctx, sale.ID), apperr.ErrStateConflict)
}
