package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID          int64           `db:"id" json:"id"`
	InvoiceNo   string          `db:"invoice_no" json:"invoice_no"`
	SupplierID  int64           `db:"supplier_id" json:"supplier_id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount    decimal.Decimal `db:"discount" json:"discount"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`
	TotalPaid   decimal.Decimal `db:"total_paid" json:"totalPaid"`
	Due         decimal.Decimal `db:"due" json:"due"`
	Note        string          `db:"note" json:"note"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	Items       []PurchaseItem  `db:"-" json:"items"`
}

type PurchaseItem struct {
	ID         int64           `db:"id" json:"id"`
	PurchaseID int64           `db:"purchase_id" json:"purchase_id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LineTotal  decimal.Decimal `db:"line_total" json:"line_total"`
	Serials    []ProductSerial `db:"-" json:"serials,omitempty"`
}
