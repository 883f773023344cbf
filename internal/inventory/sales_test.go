package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
)

func TestCreateSale_BulkQuantityRoundTrip(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	// GIVEN product P with 10 units
	p := f.bulkProduct(t, "Paracetamol", 10)

	// WHEN 3 units are sold
	sale := f.sell(t, item(p.ID, 3))

	// THEN P has 7 left
	assert.Equal(t, int64(7), f.quantity(t, p.ID))
	assert.Equal(t, "SALE-00001", sale.InvoiceNo)
	require.Len(t, sale.Items, 1)
	assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(30)))

	// WHEN the sale is deleted
	require.NoError(t, f.svc.DeleteSale(ctx, sale.ID))

	// THEN P is back to 10 and the sale is gone
	assert.Equal(t, int64(10), f.quantity(t, p.ID))
	_, err := f.svc.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateSale_SerializedConsumesAndRestoresExactSerials(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	// GIVEN a serialized product with four Available units
	q := f.serialProduct(t, "Phone", "S1", "S2", "S3", "S4")

	// WHEN two units are sold without naming serials
	sale := f.sell(t, item(q.ID, 2))

	// THEN the first two by id are Sold and linked to the sale
	require.Len(t, sale.Items, 1)
	sold := serialStrings(sale.Items[0].Serials)
	assert.Equal(t, []string{"S1", "S2"}, sold)
	assert.Equal(t, map[string]domain.SerialState{
		"S1": domain.SerialSold, "S2": domain.SerialSold,
		"S3": domain.SerialAvailable, "S4": domain.SerialAvailable,
	}, f.states(t, q.ID))
	assert.Equal(t, int64(2), f.stock(t, q.ID))

	loaded, err := f.svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sold, serialStrings(loaded.Items[0].Serials))

	// WHEN the sale is deleted
	require.NoError(t, f.svc.DeleteSale(ctx, sale.ID))

	// THEN exactly those serials are Available again
	for serial, state := range f.states(t, q.ID) {
		assert.Equal(t, domain.SerialAvailable, state, serial)
	}
	assert.Equal(t, int64(4), f.stock(t, q.ID))
}

func TestCreateSale_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	p := f.bulkProduct(t, "Bandage", 2)

	_, err := f.svc.CreateSale(ctx, f.saleInput(item(p.ID, 3)))

	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.quantity(t, p.ID))
	sales, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCreateSale_StockCheckedAcrossLinesOfSameProduct(t *testing.T) {
	f := newTestService(t)

	p := f.bulkProduct(t, "Bandage", 5)

	_, err := f.svc.CreateSale(context.Background(), f.saleInput(item(p.ID, 3), item(p.ID, 3)))

	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.quantity(t, p.ID))
}

func TestCreateSale_InsufficientSerialsLeavesNoTrace(t *testing.T) {
	f := newTestService(t)

	q := f.serialProduct(t, "Laptop", "L1", "L2")

	_, err := f.svc.CreateSale(context.Background(), f.saleInput(item(q.ID, 3)))

	assert.ErrorIs(t, err, apperr.ErrInsufficientSerials)
	assert.Equal(t, map[string]domain.SerialState{
		"L1": domain.SerialAvailable, "L2": domain.SerialAvailable,
	}, f.states(t, q.ID))
}

func TestCreateSale_ExplicitSoldSerialIsRejected(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	// GIVEN S1, S2 Available and S3 Sold
	q := f.serialProduct(t, "Router", "S1", "S2", "S3")
	f.sell(t, item(q.ID, 1, "S3"))

	// WHEN selling S1 and S3
	_, err := f.svc.CreateSale(ctx, f.saleInput(item(q.ID, 2, "S1", "S3")))

	// THEN the sale fails and S1, S2 are untouched
	assert.ErrorIs(t, err, apperr.ErrSerialUnavailable)
	assert.Equal(t, map[string]domain.SerialState{
		"S1": domain.SerialAvailable, "S2": domain.SerialAvailable, "S3": domain.SerialSold,
	}, f.states(t, q.ID))
}

func TestCreateSale_ExplicitSerialChecks(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	q := f.serialProduct(t, "Router", "R1", "R2")
	other := f.serialProduct(t, "Modem", "M1")

	_, err := f.svc.CreateSale(ctx, f.saleInput(item(q.ID, 2, "R1")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "count mismatch")

	_, err = f.svc.CreateSale(ctx, f.saleInput(item(q.ID, 1, "M1")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "serial of another product")

	_, err = f.svc.CreateSale(ctx, f.saleInput(item(q.ID, 1, "NOPE")))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.CreateSale(ctx, f.saleInput(item(q.ID, 2, "R1", "R1")))
	assert.ErrorIs(t, err, apperr.ErrValidation, "duplicate in request")

	assert.Equal(t, int64(2), f.stock(t, q.ID))
	assert.Equal(t, int64(1), f.stock(t, other.ID))
}

func TestCreateSale_NamedSerialWinsOverAutoPick(t *testing.T) {
	for name, items := range map[string]func(id int64) []ItemInput{
		"auto line first":  func(id int64) []ItemInput { return []ItemInput{item(id, 1), item(id, 1, "S1")} },
		"named line first": func(id int64) []ItemInput { return []ItemInput{item(id, 1, "S1"), item(id, 1)} },
	} {
		t.Run(name, func(t *testing.T) {
			f := newTestService(t)
			q := f.serialProduct(t, "Scanner", "S1", "S2", "S3")

			sale := f.sell(t, items(q.ID)...)

			require.Len(t, sale.Items, 2)
			assert.Equal(t, map[string]domain.SerialState{
				"S1": domain.SerialSold, "S2": domain.SerialSold, "S3": domain.SerialAvailable,
			}, f.states(t, q.ID))
			for _, it := range sale.Items {
				if len(it.Serials) == 1 && it.Serials[0].Serial == "S1" {
					continue
				}
				assert.Equal(t, []string{"S2"}, serialStrings(it.Serials))
			}
		})
	}
}

func TestCreateSale_SerialNamedOnTwoLines(t *testing.T) {
	f := newTestService(t)
	q := f.serialProduct(t, "Scanner", "S1", "S2")

	_, err := f.svc.CreateSale(context.Background(), f.saleInput(item(q.ID, 1, "S1"), item(q.ID, 1, "S1")))

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int64(2), f.stock(t, q.ID))
}

func TestCreateSale_LaterLineFailureRollsBackEarlierLines(t *testing.T) {
	f := newTestService(t)

	a := f.bulkProduct(t, "A", 5)
	b := f.serialProduct(t, "B", "B1")

	_, err := f.svc.CreateSale(context.Background(), f.saleInput(item(a.ID, 2), item(b.ID, 2)))

	assert.ErrorIs(t, err, apperr.ErrInsufficientSerials)
	assert.Equal(t, int64(5), f.quantity(t, a.ID))
}

func TestCreateSale_RejectsInactiveProductAndMissingParties(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, ProductInput{Name: "Retired", Quantity: 5, Status: domain.ProductUnavailable})
	require.NoError(t, err)

	_, err = f.svc.CreateSale(ctx, f.saleInput(item(p.ID, 1)))
	assert.ErrorIs(t, err, apperr.ErrStateConflict)

	live := f.bulkProduct(t, "Live", 5)
	in := f.saleInput(item(live.ID, 1))
	in.CustomerID = 999
	_, err = f.svc.CreateSale(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	in = f.saleInput(item(live.ID, 1))
	in.UserID = 999
	_, err = f.svc.CreateSale(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.CreateSale(ctx, f.saleInput(item(12345, 1)))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateSale_Totals(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Soap", 10)

	in := f.saleInput(item(p.ID, 4))
	in.Discount = decimal.NewFromInt(5)
	in.TotalPaid = decimal.NewFromInt(20)
	in.TotalAmount = decimal.NewFromInt(35)

	sale, err := f.svc.CreateSale(ctx, in)
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(decimal.NewFromInt(40)))
	assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(35)))
	assert.True(t, sale.Due.Equal(decimal.NewFromInt(15)))

	in.TotalAmount = decimal.NewFromInt(40)
	_, err = f.svc.CreateSale(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int64(6), f.quantity(t, p.ID))
}

func TestCreateSale_InvoiceNumbersIncrease(t *testing.T) {
	f := newTestService(t)
	p := f.bulkProduct(t, "Gum", 10)

	first := f.sell(t, item(p.ID, 1))
	require.NoError(t, f.svc.DeleteSale(context.Background(), first.ID))
	second := f.sell(t, item(p.ID, 1))

	assert.Equal(t, "SALE-00001", first.InvoiceNo)
	assert.Equal(t, "SALE-00002", second.InvoiceNo)
}

func TestUpdateSale_HeaderOnly(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Tea", 10)
	sale := f.sell(t, item(p.ID, 2))

	other, err := f.svc.CreateCustomer(ctx, PartyInput{Name: "Regular"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateSale(ctx, sale.ID, SaleHeaderInput{
		CustomerID: other.ID,
		Discount:   decimal.NewFromInt(2),
		TotalPaid:  decimal.NewFromInt(10),
		Note:       "loyalty discount",
	})
	require.NoError(t, err)

	assert.Equal(t, other.ID, updated.CustomerID)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(18)))
	assert.True(t, updated.Due.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, int64(8), f.quantity(t, p.ID))

	_, err = f.svc.UpdateSale(ctx, sale.ID, SaleHeaderInput{CustomerID: other.ID, Discount: decimal.NewFromInt(50)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteSale_BlockedByReturn(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Milk", 10)
	sale := f.sell(t, item(p.ID, 4))

	_, err := f.svc.CreateSalesReturn(ctx, SalesReturnInput{SaleID: sale.ID, UserID: f.userID, Items: []ItemInput{item(p.ID, 1)}})
	require.NoError(t, err)

	err = f.svc.DeleteSale(ctx, sale.ID)

	assert.ErrorIs(t, err, apperr.ErrStateConflict)
	assert.Equal(t, int64(7), f.quantity(t, p.ID))
}

func TestCreateSale_RecordsMovements(t *testing.T) {
	f := newTestService(t)
	ctx := context.Background()
	p := f.bulkProduct(t, "Rice", 10)

	sale := f.sell(t, item(p.ID, 3))
	require.NoError(t, f.svc.DeleteSale(ctx, sale.ID))

	movements, err := f.svc.ListMovements(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 3)

	assert.Equal(t, domain.MovementSaleReversal, movements[0].MovementType)
	assert.Equal(t, int64(3), movements[0].QuantityChange)
	assert.Equal(t, domain.MovementSale, movements[1].MovementType)
	assert.Equal(t, int64(-3), movements[1].QuantityChange)
	assert.Equal(t, sale.ID, movements[1].ReferenceID)
	require.NotNil(t, movements[1].CreatedBy)
	assert.Equal(t, f.userID, *movements[1].CreatedBy)
	assert.Equal(t, domain.MovementOpening, movements[2].MovementType)
}

func TestCreateSale_ConcurrentSalesCannotOversell(t *testing.T) {
	f := newTestService(t)
	p := f.bulkProduct(t, "Limited", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateSale(context.Background(), f.saleInput(item(p.ID, 6)))
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(4), f.quantity(t, p.ID))
}
