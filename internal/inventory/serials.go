package inventory

import (
	"context"
	"fmt"
	"strings"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

// reserveSerials picks the first n Available serials of p by id, skipping
// any already chosen earlier in the same unit of work.
func reserveSerials(ctx context.Context, tx *store.Tx, p domain.Product, n int64, taken map[int64]bool) ([]domain.ProductSerial, error) {
	candidates, err := tx.LockAvailableSerials(ctx, p.ID, n+int64(len(taken)))
	if err != nil {
		return nil, fmt.Errorf("reserve serials of product %d: %w", p.ID, err)
	}
	picked := make([]domain.ProductSerial, 0, n)
	for _, ps := range candidates {
		if int64(len(picked)) == n {
			break
		}
		if !taken[ps.ID] {
			picked = append(picked, ps)
		}
	}
	if int64(len(picked)) < n {
		return nil, apperr.InsufficientSerials("insufficient serials for %s: requested %d, available %d", p.Name, n, len(picked))
	}
	return picked, nil
}

// resolveSerials loads the listed serials of p in request order. Every
// string must exist and belong to p.
func resolveSerials(ctx context.Context, tx *store.Tx, p domain.Product, values []string) ([]domain.ProductSerial, error) {
	found, err := tx.LockSerialsByValue(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("load serials of product %d: %w", p.ID, err)
	}
	byValue := make(map[string]domain.ProductSerial, len(found))
	for _, ps := range found {
		byValue[ps.Serial] = ps
	}
	out := make([]domain.ProductSerial, 0, len(values))
	for _, v := range values {
		ps, ok := byValue[v]
		if !ok {
			return nil, apperr.NotFound("serial %s not found", v)
		}
		if ps.ProductID != p.ID {
			return nil, apperr.Validation("serial %s does not belong to %s", v, p.Name)
		}
		out = append(out, ps)
	}
	return out, nil
}

// requireState fails unless every serial is in the state ev applies to.
func requireState(serials []domain.ProductSerial, ev domain.SerialEvent) error {
	for _, ps := range serials {
		if _, err := ps.State.Transition(ev); err != nil {
			return serialError(ps, err)
		}
	}
	return nil
}

func serialError(ps domain.ProductSerial, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindSerialUnavailable:
		return apperr.SerialUnavailable("serial %s is not available", ps.Serial)
	case apperr.KindStateConflict:
		return apperr.StateConflict("serial %s is already available", ps.Serial)
	default:
		return fmt.Errorf("serial %s: %w", ps.Serial, err)
	}
}

// transitionSerials applies ev to every serial. The state check runs for all
// of them before anything is written, and the update itself only touches rows
// still in the expected state, so a concurrent change surfaces as
// SerialUnavailable instead of a silent double move.
func transitionSerials(ctx context.Context, tx *store.Tx, serials []domain.ProductSerial, ev domain.SerialEvent, mt domain.MovementType, ref reference) error {
	if len(serials) == 0 {
		return nil
	}
	if err := requireState(serials, ev); err != nil {
		return err
	}
	from := ev.From()
	to, _ := from.Transition(ev)

	ids := serialIDs(serials)
	n, err := tx.SetSerialState(ctx, ids, from, to)
	if err != nil {
		return fmt.Errorf("move serials to %s: %w", to, err)
	}
	if n != int64(len(ids)) {
		return apperr.SerialUnavailable("%d of %d serials changed state concurrently", int64(len(ids))-n, len(ids))
	}

	change := int64(-1)
	if ev == domain.SerialRestore {
		change = 1
	}
	for i := range serials {
		id := serials[i].ID
		if err := tx.InsertMovement(ctx, ref.movement(serials[i].ProductID, &id, mt, change)); err != nil {
			return err
		}
		serials[i].State = to
	}
	return nil
}

// markSold moves Available serials to Sold.
func markSold(ctx context.Context, tx *store.Tx, serials []domain.ProductSerial, mt domain.MovementType, ref reference) error {
	return transitionSerials(ctx, tx, serials, domain.SerialSell, mt, ref)
}

// markAvailable moves Sold serials back to Available.
func markAvailable(ctx context.Context, tx *store.Tx, serials []domain.ProductSerial, mt domain.MovementType, ref reference) error {
	return transitionSerials(ctx, tx, serials, domain.SerialRestore, mt, ref)
}

// checkSerialBatch enforces global uniqueness of new serial strings: no
// duplicate within values, and none already registered to a product other
// than ownerID. It returns the rows ownerID already has for these strings.
func checkSerialBatch(ctx context.Context, tx *store.Tx, values []string, ownerID int64) (map[string]domain.ProductSerial, error) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return nil, apperr.Validation("serial numbers must not be empty")
		}
		if seen[v] {
			return nil, apperr.Validation("duplicate serial %s in request", v)
		}
		seen[v] = true
	}
	existing, err := tx.LockSerialsByValue(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("check serials: %w", err)
	}
	own := make(map[string]domain.ProductSerial)
	for _, ps := range existing {
		if ownerID == 0 || ps.ProductID != ownerID {
			return nil, apperr.Validation("serial %s already exists", ps.Serial)
		}
		own[ps.Serial] = ps
	}
	return own, nil
}

// registerSerials creates Available serials for p and records them as
// arriving stock.
func registerSerials(ctx context.Context, tx *store.Tx, p domain.Product, values []string, warranty bool, mt domain.MovementType, ref reference) ([]domain.ProductSerial, error) {
	out := make([]domain.ProductSerial, 0, len(values))
	for _, v := range values {
		ps := domain.ProductSerial{
			Serial:      v,
			ProductID:   p.ID,
			State:       domain.SerialAvailable,
			HasWarranty: warranty,
		}
		if err := tx.InsertSerial(ctx, &ps); err != nil {
			return nil, fmt.Errorf("insert serial %s: %w", v, err)
		}
		id := ps.ID
		if err := tx.InsertMovement(ctx, ref.movement(p.ID, &id, mt, 1)); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, nil
}

// unregisterSerials deletes Available serials that no record other than a
// purchase refers to, recording them as leaving stock. Link rows pointing at
// them must already be gone.
func unregisterSerials(ctx context.Context, tx *store.Tx, serials []domain.ProductSerial, mt domain.MovementType, ref reference) error {
	for _, ps := range serials {
		id := ps.ID
		if err := tx.InsertMovement(ctx, ref.movement(ps.ProductID, &id, mt, -1)); err != nil {
			return err
		}
	}
	return tx.DeleteSerials(ctx, serialIDs(serials))
}

// requireRemovable fails unless every serial is Available and untouched by
// any sale, return or exchange.
func requireRemovable(ctx context.Context, tx *store.Tx, serials []domain.ProductSerial, withPurchases bool) error {
	for _, ps := range serials {
		if ps.State != domain.SerialAvailable {
			return apperr.StateConflict("serial %s is %s and cannot be removed", ps.Serial, ps.State)
		}
	}
	used, err := tx.ReferencedSerials(ctx, serialIDs(serials), withPurchases)
	if err != nil {
		return err
	}
	if len(used) > 0 {
		byID := make(map[int64]string, len(serials))
		for _, ps := range serials {
			byID[ps.ID] = ps.Serial
		}
		return apperr.StateConflict("serial %s is referenced by other records and cannot be removed", byID[used[0]])
	}
	return nil
}

// ListSerials returns the product's serials, optionally filtered by state.
func (s *Service) ListSerials(ctx context.Context, productID int64, state domain.SerialState) ([]domain.ProductSerial, error) {
	if state != "" && !state.Valid() {
		return nil, apperr.Validation("unknown serial state %q", state)
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListSerials(ctx, productID, state)
}

func serialIDs(serials []domain.ProductSerial) []int64 {
	ids := make([]int64, len(serials))
	for i, ps := range serials {
		ids[i] = ps.ID
	}
	return ids
}
