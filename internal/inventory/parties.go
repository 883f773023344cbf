package inventory

import (
	"context"
	"strings"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

// PartyInput carries the editable fields of a customer or supplier.
type PartyInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (in *PartyInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	return nil
}

func (s *Service) CreateCustomer(ctx context.Context, in PartyInput) (domain.Customer, error) {
	if err := in.normalize(); err != nil {
		return domain.Customer{}, err
	}
	c := domain.Customer{Name: in.Name, Phone: in.Phone, Email: in.Email, Address: in.Address}
	err := s.store.InsertCustomer(ctx, &c)
	return c, err
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, in PartyInput) (domain.Customer, error) {
	if err := in.normalize(); err != nil {
		return domain.Customer{}, err
	}
	var c domain.Customer
	err := s.run(ctx, "update customer", func(tx *store.Tx) error {
		var err error
		if c, err = tx.GetCustomer(ctx, id); err != nil {
			return err
		}
		c.Name, c.Phone, c.Email, c.Address = in.Name, in.Phone, in.Email, in.Address
		return tx.UpdateCustomer(ctx, c)
	})
	return c, err
}

// DeleteCustomer refuses customers that sales, returns or exchanges name.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.run(ctx, "delete customer", func(tx *store.Tx) error {
		c, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return err
		}
		used, err := tx.CustomerReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.StateConflict("customer %s has records and cannot be deleted", c.Name)
		}
		return tx.DeleteCustomer(ctx, id)
	})
}

func (s *Service) CreateSupplier(ctx context.Context, in PartyInput) (domain.Supplier, error) {
	if err := in.normalize(); err != nil {
		return domain.Supplier{}, err
	}
	sup := domain.Supplier{Name: in.Name, Phone: in.Phone, Email: in.Email, Address: in.Address}
	err := s.store.InsertSupplier(ctx, &sup)
	return sup, err
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	return s.store.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.store.ListSuppliers(ctx)
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, in PartyInput) (domain.Supplier, error) {
	if err := in.normalize(); err != nil {
		return domain.Supplier{}, err
	}
	var sup domain.Supplier
	err := s.run(ctx, "update supplier", func(tx *store.Tx) error {
		var err error
		if sup, err = tx.GetSupplier(ctx, id); err != nil {
			return err
		}
		sup.Name, sup.Phone, sup.Email, sup.Address = in.Name, in.Phone, in.Email, in.Address
		return tx.UpdateSupplier(ctx, sup)
	})
	return sup, err
}

// DeleteSupplier refuses suppliers that purchases or purchase returns name.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.run(ctx, "delete supplier", func(tx *store.Tx) error {
		sup, err := tx.GetSupplier(ctx, id)
		if err != nil {
			return err
		}
		used, err := tx.SupplierReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.StateConflict("supplier %s has records and cannot be deleted", sup.Name)
		}
		return tx.DeleteSupplier(ctx, id)
	})
}
