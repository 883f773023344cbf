package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"shopkeep/m/domain"
	"shopkeep/m/internal/database"
	"shopkeep/m/internal/migrations"
	"shopkeep/m/internal/store"
)

type fixture struct {
	svc        *Service
	store      *store.Store
	userID     int64
	customerID int64
	supplierID int64
}

// newTestService returns a service over a fresh in-memory database with one
// user, one customer and one supplier.
func newTestService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(database.SQLite, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db, database.SQLite))

	st := store.New(db, database.SQLite)
	ctx := context.Background()

	role := domain.Role{Name: "admin", Permissions: domain.AllPermissions}
	require.NoError(t, st.InsertRole(ctx, &role))
	user := domain.User{Name: "Till Operator", Email: "till@example.com", Password: "hash", RoleID: role.ID}
	require.NoError(t, st.InsertUser(ctx, &user))

	svc := NewService(st, nil)
	customer, err := svc.CreateCustomer(ctx, PartyInput{Name: "Walk-in"})
	require.NoError(t, err)
	supplier, err := svc.CreateSupplier(ctx, PartyInput{Name: "Wholesale Ltd"})
	require.NoError(t, err)

	return &fixture{
		svc:        svc,
		store:      st,
		userID:     user.ID,
		customerID: customer.ID,
		supplierID: supplier.ID,
	}
}

func (f *fixture) bulkProduct(t *testing.T, name string, qty int64) domain.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), ProductInput{
		Name:        name,
		Quantity:    qty,
		RetailPrice: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) serialProduct(t *testing.T, name string, serials ...string) domain.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), ProductInput{
		Name:                 name,
		Quantity:             int64(len(serials)),
		RetailPrice:          decimal.NewFromInt(100),
		UseIndividualSerials: true,
		Serials:              serials,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) quantity(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	n, err := f.svc.ProductStock(context.Background(), productID)
	require.NoError(t, err)
	return n
}

// states maps every serial of the product to its state.
func (f *fixture) states(t *testing.T, productID int64) map[string]domain.SerialState {
	t.Helper()
	serials, err := f.store.ListSerials(context.Background(), productID, "")
	require.NoError(t, err)
	out := make(map[string]domain.SerialState, len(serials))
	for _, ps := range serials {
		out[ps.Serial] = ps.State
	}
	return out
}

func (f *fixture) sell(t *testing.T, items ...ItemInput) domain.Sale {
	t.Helper()
	sale, err := f.svc.CreateSale(context.Background(), f.saleInput(items...))
	require.NoError(t, err)
	return sale
}

func (f *fixture) saleInput(items ...ItemInput) SaleInput {
	return SaleInput{CustomerID: f.customerID, UserID: f.userID, Items: items}
}

func (f *fixture) purchaseInput(items ...ItemInput) PurchaseInput {
	return PurchaseInput{SupplierID: f.supplierID, UserID: f.userID, Items: items}
}

func item(productID, qty int64, serials ...string) ItemInput {
	return ItemInput{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(10), Serials: serials}
}

func serialStrings(serials []domain.ProductSerial) []string {
	out := make([]string, len(serials))
	for i, ps := range serials {
		out[i] = ps.Serial
	}
	return out
}
