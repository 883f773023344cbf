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

func TestPurchase_UpdateNetsAgainstOriginalStock(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	// GIVEN product P with 4 units
	p := f.bulkProduct(t, "Oil", 4)

	// WHEN 5 units are purchased at 10
	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(p.ID, 5)))
	require.NoError(t, err)

	// THEN stock is 9 and there is one line
	assert.Equal(t, int64(9), f.quantity(t, p.ID))
	assert.Equal(t, "PUR-00001", purchase.InvoiceNo)
	loaded, err := f.svc.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.TotalAmount.Equal(decimal.NewFromInt(50)))

	// WHEN the purchase is updated to 8 units
	updated, err := f.svc.UpdatePurchase(ctx, purchase.ID, PurchaseUpdateInput{
		SupplierID: f.supplierID,
		Items:      []ItemInput{item(p.ID, 8)},
	})
	require.NoError(t, err)

	// THEN stock is original + 8, not original + 5 + 8
	assert.Equal(t, int64(12), f.quantity(t, p.ID))
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(80)))
	loaded, err = f.svc.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, int64(8), loaded.Items[0].Quantity)
}

func TestPurchase_UpdateAfterPartialSale(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	// GIVEN 5 units purchased into an empty product and 3 of them sold
	p := f.bulkProduct(t, "Oil", 0)
	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(p.ID, 5)))
	require.NoError(t, err)
	f.sell(t, item(p.ID, 3))
	require.Equal(t, int64(2), f.quantity(t, p.ID))

	// WHEN the purchase is raised to 8 units
	_, err = f.svc.UpdatePurchase(ctx, purchase.ID, PurchaseUpdateInput{
		SupplierID: f.supplierID,
		Items:      []ItemInput{item(p.ID, 8)},
	})
	require.NoError(t, err)

	// THEN stock is 0 + 8 - 3
	assert.Equal(t, int64(5), f.quantity(t, p.ID))

	// WHEN it is lowered below what was already sold
	_, err = f.svc.UpdatePurchase(ctx, purchase.ID, PurchaseUpdateInput{
		SupplierID: f.supplierID,
		Items:      []ItemInput{item(p.ID, 2)},
	})

	// THEN the update is refused and nothing moves
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.quantity(t, p.ID))
	loaded, err := f.svc.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, int64(8), loaded.Items[0].Quantity)
}

func TestPurchase_UpdateMovesProductsBetweenLines(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	oil := f.bulkProduct(t, "Oil", 0)
	salt := f.bulkProduct(t, "Salt", 0)
	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(oil.ID, 4)))
	require.NoError(t, err)

	_, err = f.svc.UpdatePurchase(ctx, purchase.ID, PurchaseUpdateInput{
		SupplierID: f.supplierID,
		Items:      []ItemInput{item(salt.ID, 2), item(salt.ID, 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.quantity(t, oil.ID))
	assert.Equal(t, int64(3), f.quantity(t, salt.ID))
}

func TestPurchase_HeaderOnlyUpdateKeepsItems(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Oil", 0)
	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(p.ID, 5)))
	require.NoError(t, err)

	updated, err := f.svc.UpdatePurchase(ctx, purchase.ID, PurchaseUpdateInput{
		SupplierID: f.supplierID,
		TotalPaid:  decimal.NewFromInt(50),
		Note:       "settled",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), f.quantity(t, p.ID))
	assert.True(t, updated.Due.IsZero())
	assert.Equal(t, "settled", updated.Note)
	assert.Len(t, updated.Items, 1)
}

func TestPurchase_FailedUpdateLeavesStockUntouched(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Oil", 0)
	q := f.serialProduct(t, "Heater", "H1")
	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(p.ID, 5)))
	require.NoError(t, err)

	// the new list reuses an existing serial, which fails after the reversal ran
	_, err = f.svc.UpdatePurchase(ctx, purchase.ID, PurchaseUpdateInput{
		SupplierID: f.supplierID,
		Items:      []ItemInput{item(p.ID, 8), item(q.ID, 1, "H1")},
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int64(5), f.quantity(t, p.ID))
}

func TestPurchase_SerializedReceivesAndDeleteRemovesSerials(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	q := f.serialProduct(t, "Printer")

	purchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(q.ID, 2, "P1", "P2")))
	require.NoError(t, err)

	assert.Equal(t, map[string]domain.SerialState{
		"P1": domain.SerialAvailable, "P2": domain.SerialAvailable,
	}, f.states(t, q.ID))
	assert.Equal(t, []string{"P1", "P2"}, serialStrings(purchase.Items[0].Serials))

	require.NoError(t, f.svc.DeletePurchase(ctx, purchase.ID))

	assert.Empty(t, f.states(t, q.ID))
	_, err = f.svc.GetPurchase(ctx, purchase.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPurchase_SerializedRules(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	q := f.serialProduct(t, "Printer", "P1")

	_, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(q.ID, 2, "P9")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "count mismatch")

	_, err = f.svc.CreatePurchase(ctx, f.purchaseInput(item(q.ID, 1)))
	assert.ErrorIs(t, err, apperr.ErrValidation, "serials required")

	_, err = f.svc.CreatePurchase(ctx, f.purchaseInput(item(q.ID, 1, "P1")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "serial already registered")

	assert.Equal(t, map[string]domain.SerialState{"P1": domain.SerialAvailable}, f.states(t, q.ID))
}

func TestPurchase_DeleteFailsOnceStockIsSold(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	bulk := f.bulkProduct(t, "Sugar", 0)
	serial := f.serialProduct(t, "Kettle")
	bulkPurchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(bulk.ID, 5)))
	require.NoError(t, err)
	serialPurchase, err := f.svc.CreatePurchase(ctx, f.purchaseInput(item(serial.ID, 1, "K1")))
	require.NoError(t, err)

	f.sell(t, item(bulk.ID, 3), item(serial.ID, 1))

	assert.ErrorIs(t, f.svc.DeletePurchase(ctx, bulkPurchase.ID), apperr.ErrInsufficientStock)
	assert.ErrorIs(t, f.svc.DeletePurchase(ctx, serialPurchase.ID), apperr.ErrStateConflict)
	assert.Equal(t, int64(2), f.quantity(t, bulk.ID))
	assert.Equal(t, map[string]domain.SerialState{"K1": domain.SerialSold}, f.states(t, serial.ID))
}

func TestPurchase_MissingSupplier(t *testing.T) {
	f := newTestService(t)
	p := f.bulkProduct(t, "Salt", 0)
	in := f.purchaseInput(item(p.ID, 1))
	in.SupplierID = 404

	_, err := f.svc.CreatePurchase(context.Background(), in)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, int64(0), f.quantity(t, p.ID))
}
