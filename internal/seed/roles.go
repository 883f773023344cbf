// Package seed prepares a fresh database: the built-in roles, the first admin
// account and, optionally, a product catalog.
package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shopkeep/m/domain"
	"shopkeep/m/internal/store"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

var cashierPermissions = []domain.Permission{
	domain.PermInventoryRead,
	domain.PermPartiesWrite,
	domain.PermSalesWrite,
	domain.PermReturnsWrite,
	domain.PermExchangesWrite,
}

// Roles creates the admin and cashier roles and an admin user with the given
// credentials. Anything that already exists is left alone, so it is safe to
// call on every start.
func Roles(ctx context.Context, st *store.Store, adminEmail, adminPassword string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	return st.WithTx(ctx, func(tx *store.Tx) error {
		admin, err := ensureRole(ctx, tx, RoleAdmin, domain.AllPermissions, log)
		if err != nil {
			return err
		}
		if _, err := ensureRole(ctx, tx, RoleCashier, cashierPermissions, log); err != nil {
			return err
		}
		if adminEmail == "" {
			return nil
		}

		taken, err := tx.EmailTaken(ctx, adminEmail)
		if err != nil {
			return fmt.Errorf("check admin user: %w", err)
		}
		if taken {
			return nil
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		user := domain.User{Name: "Administrator", Email: adminEmail, Password: string(hashed), RoleID: admin.ID}
		if err := tx.InsertUser(ctx, &user); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		log.Info("seeded admin user", zap.String("email", adminEmail))
		return nil
	})
}

func ensureRole(ctx context.Context, tx *store.Tx, name string, perms []domain.Permission, log *zap.Logger) (domain.Role, error) {
	role, ok, err := tx.GetRoleByName(ctx, name)
	if err != nil {
		return role, fmt.Errorf("load role %s: %w", name, err)
	}
	if ok {
		return role, nil
	}
	role = domain.Role{Name: name, Permissions: perms}
	if err := tx.InsertRole(ctx, &role); err != nil {
		return role, fmt.Errorf("create role %s: %w", name, err)
	}
	log.Info("seeded role", zap.String("role", name))
	return role, nil
}
