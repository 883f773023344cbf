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

func (f *fixture) salesReturn(saleID int64, items ...ItemInput) SalesReturnInput {
	return SalesReturnInput{SaleID: saleID, UserID: f.userID, Items: items}
}

func TestSalesReturn_BulkRestockAndReverse(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Juice", 10)
	sale := f.sell(t, item(p.ID, 4))

	in := f.salesReturn(sale.ID, item(p.ID, 3))
	in.TotalRefund = decimal.NewFromInt(30)
	ret, err := f.svc.CreateSalesReturn(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "SRET-00001", ret.InvoiceNo)
	assert.Equal(t, f.customerID, ret.CustomerID)
	assert.True(t, ret.TotalAmount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, int64(9), f.quantity(t, p.ID))

	// only one unit of the sale is still outstanding
	_, err = f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(p.ID, 2)))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.svc.DeleteSalesReturn(ctx, ret.ID))
	assert.Equal(t, int64(6), f.quantity(t, p.ID))
	_, err = f.svc.GetSalesReturn(ctx, ret.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSalesReturn_Rules(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Juice", 10)
	other := f.bulkProduct(t, "Water", 10)
	sale := f.sell(t, item(p.ID, 2))

	_, err := f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(other.ID, 1)))
	assert.ErrorIs(t, err, apperr.ErrValidation, "product not on sale")

	_, err = f.svc.CreateSalesReturn(ctx, f.salesReturn(999, item(p.ID, 1)))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	in := f.salesReturn(sale.ID, item(p.ID, 1))
	in.TotalRefund = decimal.NewFromInt(11)
	_, err = f.svc.CreateSalesReturn(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrValidation, "refund above total")

	assert.Equal(t, int64(8), f.quantity(t, p.ID))
}

func TestSalesReturn_SerializedUnitsMustComeFromTheSale(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	q := f.serialProduct(t, "Speaker", "K1", "K2", "K3")
	sale := f.sell(t, item(q.ID, 1, "K1"))
	f.sell(t, item(q.ID, 1, "K2"))

	_, err := f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(q.ID, 1)))
	assert.ErrorIs(t, err, apperr.ErrValidation, "serials are required")

	_, err = f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(q.ID, 1, "K2")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "K2 went out on another sale")

	ret, err := f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(q.ID, 1, "K1")))
	require.NoError(t, err)
	assert.Equal(t, domain.SerialAvailable, f.states(t, q.ID)["K1"])

	_, err = f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(q.ID, 1, "K1")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "K1 already returned")

	require.NoError(t, f.svc.DeleteSalesReturn(ctx, ret.ID))
	assert.Equal(t, domain.SerialSold, f.states(t, q.ID)["K1"])
}

func TestSalesReturn_DeleteFailsWhenSerialWasResold(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	q := f.serialProduct(t, "Speaker", "K1")
	sale := f.sell(t, item(q.ID, 1, "K1"))
	ret, err := f.svc.CreateSalesReturn(ctx, f.salesReturn(sale.ID, item(q.ID, 1, "K1")))
	require.NoError(t, err)

	f.sell(t, item(q.ID, 1, "K1"))

	assert.ErrorIs(t, f.svc.DeleteSalesReturn(ctx, ret.ID), apperr.ErrSerialUnavailable)
}

func TestPurchaseReturn_BulkAndSerialized(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	bulk := f.bulkProduct(t, "Cement", 0)
	serial := f.serialProduct(t, "Drill")
	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(bulk.ID, 10), item(serial.ID, 2, "D1", "D2")))
	require.NoError(t, err)

	ret, err := f.svc.CreatePurchaseReturn(ctx, PurchaseReturnInput{
		PurchaseID: &purchase.ID,
		UserID:     f.userID,
		Items:      []ItemInput{item(bulk.ID, 4), item(serial.ID, 1, "D2")},
	})
	require.NoError(t, err)

	assert.Equal(t, "PRET-00001", ret.InvoiceNo)
	assert.Equal(t, f.supplierID, ret.SupplierID)
	assert.Equal(t, int64(6), f.quantity(t, bulk.ID))
	assert.Equal(t, map[string]domain.SerialState{
		"D1": domain.SerialAvailable, "D2": domain.SerialSold,
	}, f.states(t, serial.ID))

	// the purchase cannot change while a return depends on it
	assert.ErrorIs(t, f.svc.DeletePurchase(ctx, purchase.ID), apperr.ErrStateConflict)

	// only 6 of the 10 bought units can still go back
	_, err = f.svc.CreatePurchaseReturn(ctx, PurchaseReturnInput{
		PurchaseID: &purchase.ID,
		UserID:     f.userID,
		Items:      []ItemInput{item(bulk.ID, 7)},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.svc.DeletePurchaseReturn(ctx, ret.ID))
	assert.Equal(t, int64(10), f.quantity(t, bulk.ID))
	assert.Equal(t, domain.SerialAvailable, f.states(t, serial.ID)["D2"])
}

func TestPurchaseReturn_WithoutPurchase(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Paint", 3)
	q := f.serialProduct(t, "Saw", "W1")
	f.sell(t, item(q.ID, 1, "W1"))

	_, err := f.svc.CreatePurchaseReturn(ctx, PurchaseReturnInput{
		SupplierID: f.supplierID,
		UserID:     f.userID,
		Items:      []ItemInput{item(p.ID, 4)},
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = f.svc.CreatePurchaseReturn(ctx, PurchaseReturnInput{
		SupplierID: f.supplierID,
		UserID:     f.userID,
		Items:      []ItemInput{item(q.ID, 1, "W1")},
	})
	assert.ErrorIs(t, err, apperr.ErrSerialUnavailable)

	_, err = f.svc.CreatePurchaseReturn(ctx, PurchaseReturnInput{
		UserID: f.userID,
		Items:  []ItemInput{item(p.ID, 1)},
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound, "supplier is required without a purchase")

	assert.Equal(t, int64(3), f.quantity(t, p.ID))
}
