package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/database"
	"shopkeep/m/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.SQLite, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db, database.SQLite))
	return New(db, database.SQLite)
}

func insertProduct(t *testing.T, s *Store, name string, qty int64) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Quantity: qty, RetailPrice: decimal.NewFromInt(5), Status: domain.ProductActive}
	require.NoError(t, s.InsertProduct(context.Background(), &p))
	return p
}

func TestNextInvoiceNo_IsMonotonicPerPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
			no, err := tx.NextInvoiceNo(ctx, PrefixSale)
			got = append(got, no)
			return err
		}))
	}
	assert.Equal(t, []string{"SALE-00001", "SALE-00002", "SALE-00003"}, got)

	no, err := s.NextInvoiceNo(ctx, PrefixPurchase)
	require.NoError(t, err)
	assert.Equal(t, "PUR-00001", no)
}

func TestNextInvoiceNo_RolledBackNumberIsReissued(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.NextInvoiceNo(ctx, PrefixExchange); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	no, err := s.NextInvoiceNo(ctx, PrefixExchange)
	require.NoError(t, err)
	assert.Equal(t, "EXC-00001", no)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := insertProduct(t, s, "Tea", 5)

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx *Tx) error {
			_, err := tx.AddQuantity(ctx, p.ID, 10)
			require.NoError(t, err)
			panic("half way")
		})
	})

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)
}

func TestAddQuantity_GuardsAgainstNegativeStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := insertProduct(t, s, "Tea", 3)

	ok, err := s.AddQuantity(ctx, p.ID, -4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.AddQuantity(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
	assert.Equal(t, int64(0), got.Stock)
}

func TestGetProduct_StockFollowsAvailableSerials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := domain.Product{Name: "Router", Quantity: 99, Status: domain.ProductActive, UseIndividualSerials: true}
	require.NoError(t, s.InsertProduct(ctx, &p))

	var ids []int64
	for _, v := range []string{"R1", "R2", "R3"} {
		ps := domain.ProductSerial{Serial: v, ProductID: p.ID, State: domain.SerialAvailable}
		require.NoError(t, s.InsertSerial(ctx, &ps))
		ids = append(ids, ps.ID)
	}
	n, err := s.SetSerialState(ctx, ids[:1], domain.SerialAvailable, domain.SerialSold)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// already sold, so the guarded update touches nothing
	n, err = s.SetSerialState(ctx, ids[:1], domain.SerialAvailable, domain.SerialSold)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stock)

	available, err := s.ListSerials(ctx, p.ID, domain.SerialAvailable)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "R2", available[0].Serial)
}

func TestGetProduct_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.EqualError(t, err, "product 42 not found")
}

func TestListMovements_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := insertProduct(t, s, "Tea", 0)

	for i, mt := range []domain.MovementType{domain.MovementOpening, domain.MovementSale, domain.MovementSaleReversal} {
		m := domain.StockMovement{
			ProductID:      p.ID,
			MovementType:   mt,
			QuantityChange: int64(i + 1),
			ReferenceType:  "test",
			ReferenceID:    int64(i),
		}
		require.NoError(t, s.InsertMovement(ctx, &m))
		assert.NotEmpty(t, m.ID)
	}

	got, err := s.ListMovements(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.MovementSaleReversal, got[0].MovementType)
	assert.Equal(t, domain.MovementOpening, got[2].MovementType)
	assert.Nil(t, got[0].SerialID)
}

func TestRoles_PermissionsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	role := domain.Role{Name: "cashier", Permissions: []domain.Permission{domain.PermInventoryRead, domain.PermSalesWrite}}
	require.NoError(t, s.InsertRole(ctx, &role))

	got, ok, err := s.GetRoleByName(ctx, "cashier")
	require.NoError(t, err)
	require.True(t, ok)
	assert.ElementsMatch(t, role.Permissions, got.Permissions)

	_, ok, err = s.GetRoleByName(ctx, "auditor")
	require.NoError(t, err)
	assert.False(t, ok)
}
