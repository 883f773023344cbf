package inventory

import (
	"strings"

	"github.com/shopspring/decimal"

	"shopkeep/m/internal/apperr"
)

// ItemInput is one requested line of a sale, purchase or return.
type ItemInput struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
	// Serials names the exact units. Optional on sales, where Available
	// serials are picked automatically when omitted.
	Serials []string
}

func (it ItemInput) lineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return apperr.Validation("at least one item is required")
	}
	seen := map[string]bool{}
	for i, it := range items {
		if it.ProductID <= 0 {
			return apperr.Validation("items[%d]: product_id is required", i)
		}
		if it.Quantity <= 0 {
			return apperr.Validation("items[%d]: quantity must be positive", i)
		}
		if it.UnitPrice.IsNegative() {
			return apperr.Validation("items[%d]: unitPrice must not be negative", i)
		}
		if err := checkRequestSerials(it.Serials, seen); err != nil {
			return err
		}
	}
	return nil
}

// checkRequestSerials rejects empty strings and strings repeated anywhere in
// the same request.
func checkRequestSerials(values []string, seen map[string]bool) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return apperr.Validation("serial numbers must not be empty")
		}
		if seen[v] {
			return apperr.Validation("duplicate serial %s in request", v)
		}
		seen[v] = true
	}
	return nil
}

// serialCount fails when an explicit serial list does not match quantity.
func serialCount(name string, serials []string, qty int64) error {
	if int64(len(serials)) != qty {
		return apperr.Validation("%s: %d serials given for quantity %d", name, len(serials), qty)
	}
	return nil
}

func nonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperr.Validation("%s must not be negative", field)
	}
	return nil
}

// totals is the money side of a sale or purchase header.
type totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Due      decimal.Decimal
}

// computeTotals derives the header amounts from the line subtotal. A non-zero
// claimed total must agree with the computed one.
func computeTotals(subtotal, discount, claimed, paid decimal.Decimal) (totals, error) {
	if err := nonNegative("discount", discount); err != nil {
		return totals{}, err
	}
	if err := nonNegative("totalPaid", paid); err != nil {
		return totals{}, err
	}
	if discount.GreaterThan(subtotal) {
		return totals{}, apperr.Validation("discount %s exceeds subtotal %s", discount.StringFixed(2), subtotal.StringFixed(2))
	}
	total := subtotal.Sub(discount)
	if !claimed.IsZero() && !claimed.Equal(total) {
		return totals{}, apperr.Validation("totalAmount %s does not match computed total %s", claimed.StringFixed(2), total.StringFixed(2))
	}
	if paid.GreaterThan(total) {
		return totals{}, apperr.Validation("totalPaid %s exceeds total %s", paid.StringFixed(2), total.StringFixed(2))
	}
	return totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		Paid:     paid,
		Due:      total.Sub(paid),
	}, nil
}

func sumLines(items []ItemInput) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.lineTotal())
	}
	return sum
}
