package domain

import "time"

type MovementType string

const (
	MovementOpening        MovementType = "opening"
	MovementAdjustment     MovementType = "adjustment"
	MovementSale           MovementType = "sale"
	MovementSaleReversal   MovementType = "sale_reversal"
	MovementPurchase       MovementType = "purchase"
	MovementPurchaseRevert MovementType = "purchase_reversal"
	MovementSalesReturn    MovementType = "sales_return"
	MovementSalesReturnRev MovementType = "sales_return_reversal"
	MovementPurchaseReturn MovementType = "purchase_return"
	MovementPurchaseRetRev MovementType = "purchase_return_reversal"
	MovementExchangeIn     MovementType = "exchange_in"
	MovementExchangeOut    MovementType = "exchange_out"
	MovementExchangeRev    MovementType = "exchange_reversal"
)

// StockMovement is one append-only audit entry for a stock or serial change.
type StockMovement struct {
	ID             string       `db:"id" json:"id"`
	ProductID      int64        `db:"product_id" json:"product_id"`
	SerialID       *int64       `db:"serial_id" json:"serial_id,omitempty"`
	MovementType   MovementType `db:"movement_type" json:"movement_type"`
	QuantityChange int64        `db:"quantity_change" json:"quantity_change"`
	ReferenceType  string       `db:"reference_type" json:"reference_type"`
	ReferenceID    int64        `db:"reference_id" json:"reference_id"`
	CreatedBy      *int64       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}
