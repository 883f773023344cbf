package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopkeep/m/domain"
	"shopkeep/m/internal/database"
	"shopkeep/m/internal/inventory"
	"shopkeep/m/internal/migrations"
	"shopkeep/m/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Connect(database.SQLite, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db, database.SQLite))
	return store.New(db, database.SQLite)
}

func TestRoles_IsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, Roles(ctx, st, "Admin@Shop.local", "secret", nil))
	require.NoError(t, Roles(ctx, st, "admin@shop.local", "other", nil))

	roles, err := st.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.ElementsMatch(t, domain.AllPermissions, roles[0].Permissions)

	user, ok, err := st.GetUserByEmail(ctx, "admin@shop.local")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, roles[0].ID, user.RoleID)
	// the second call did not overwrite the password
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret")))
}

func TestLoadProducts_SkipsDuplicatesAndBadRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := inventory.NewService(st, nil)

	csv := strings.Join([]string{
		"name,sku,quantity,purchase,wholesale,retail",
		"Green Tea,TEA-1,12,1.50,2.00,2.50",
		"Black Tea,,4,1,1.5,2",
		"Broken,,many,1,1,1",
		"Green Tea Again,TEA-1,3,1,1,1",
		",,1,1,1,1",
	}, "\n")

	n, err := loadProducts(ctx, svc, strings.NewReader(csv), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Green Tea", products[0].Name)
	assert.Equal(t, int64(12), products[0].Stock)
	assert.Equal(t, "2.5", products[0].RetailPrice.String())

	// a second run adds nothing
	n, err = loadProducts(ctx, svc, strings.NewReader(csv), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
