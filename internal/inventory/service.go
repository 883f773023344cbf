// Package inventory keeps product stock and serial states consistent with the
// business records that move them.
//
// Every exported operation is one unit of work: it validates everything it
// needs, then writes the record together with its stock and serial effects,
// and either all of it commits or none of it does. On postgres and mysql the
// unit runs serializable and locks the product and serial rows it reads.
package inventory

import (
	"context"

	"go.uber.org/zap"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

type Service struct {
	store *store.Store
	log   *zap.Logger
}

func NewService(s *store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log.Named("inventory")}
}

// run executes fn as one unit of work and logs how it ended.
func (s *Service) run(ctx context.Context, op string, fn func(tx *store.Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	switch {
	case err == nil:
	case apperr.IsClientError(err):
		s.log.Warn("operation rejected",
			zap.String("op", op),
			zap.String("code", string(apperr.KindOf(err))),
			zap.Error(err))
	default:
		s.log.Error("operation failed", zap.String("op", op), zap.Error(err))
	}
	return err
}

// reference names the record a stock or serial change belongs to.
type reference struct {
	kind   string
	id     int64
	userID int64
}

func (r reference) movement(productID int64, serialID *int64, mt domain.MovementType, change int64) *domain.StockMovement {
	m := &domain.StockMovement{
		ProductID:      productID,
		SerialID:       serialID,
		MovementType:   mt,
		QuantityChange: change,
		ReferenceType:  r.kind,
		ReferenceID:    r.id,
	}
	if r.userID > 0 {
		uid := r.userID
		m.CreatedBy = &uid
	}
	return m
}

// productCache locks each product once per unit of work.
type productCache map[int64]domain.Product

func (c productCache) lock(ctx context.Context, tx *store.Tx, id int64) (domain.Product, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	p, err := tx.LockProduct(ctx, id)
	if err != nil {
		return p, err
	}
	c[id] = p
	return p, nil
}

func requireUser(ctx context.Context, tx *store.Tx, id int64) error {
	if id <= 0 {
		return apperr.Validation("user_id is required")
	}
	_, err := tx.GetUser(ctx, id)
	return err
}
