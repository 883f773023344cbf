package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Invoice number prefixes, one per record kind.
const (
	PrefixSale           = "SALE"
	PrefixPurchase       = "PUR"
	PrefixSalesReturn    = "SRET"
	PrefixPurchaseReturn = "PRET"
	PrefixExchange       = "EXC"
)

// NextInvoiceNo advances the counter for prefix and formats it, e.g.
// SALE-00042. Counters never go backwards, so numbers of deleted records are
// not reused. Must run inside the transaction that inserts the record.
func (q *Queries) NextInvoiceNo(ctx context.Context, prefix string) (string, error) {
	var last int64
	err := q.get(ctx, &last, `SELECT counter_value FROM invoice_counters WHERE prefix = ?`+q.forUpdate(), prefix)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		last = 1
		if _, err := q.exec(ctx, `INSERT INTO invoice_counters (prefix, counter_value) VALUES (?, ?)`, prefix, last); err != nil {
			return "", fmt.Errorf("start invoice counter %s: %w", prefix, err)
		}
	case err != nil:
		return "", fmt.Errorf("read invoice counter %s: %w", prefix, err)
	default:
		last++
		if _, err := q.exec(ctx, `UPDATE invoice_counters SET counter_value = ? WHERE prefix = ?`, last, prefix); err != nil {
			return "", fmt.Errorf("advance invoice counter %s: %w", prefix, err)
		}
	}
	return fmt.Sprintf("%s-%05d", prefix, last), nil
}
