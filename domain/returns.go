package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesReturn struct {
	ID          int64             `db:"id" json:"id"`
	InvoiceNo   string            `db:"invoice_no" json:"invoice_no"`
	SaleID      int64             `db:"sale_id" json:"sale_id"`
	CustomerID  int64             `db:"customer_id" json:"customer_id"`
	UserID      int64             `db:"user_id" json:"user_id"`
	TotalAmount decimal.Decimal   `db:"total_amount" json:"totalAmount"`
	TotalRefund decimal.Decimal   `db:"total_refund" json:"totalRefund"`
	Note        string            `db:"note" json:"note"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	Items       []SalesReturnItem `db:"-" json:"items"`
}

type SalesReturnItem struct {
	ID            int64           `db:"id" json:"id"`
	SalesReturnID int64           `db:"sales_return_id" json:"sales_return_id"`
	ProductID     int64           `db:"product_id" json:"product_id"`
	Quantity      int64           `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LineTotal     decimal.Decimal `db:"line_total" json:"line_total"`
	Serials       []ProductSerial `db:"-" json:"serials,omitempty"`
}

type PurchaseReturn struct {
	ID          int64                `db:"id" json:"id"`
	InvoiceNo   string               `db:"invoice_no" json:"invoice_no"`
	PurchaseID  *int64               `db:"purchase_id" json:"purchase_id,omitempty"`
	SupplierID  int64                `db:"supplier_id" json:"supplier_id"`
	UserID      int64                `db:"user_id" json:"user_id"`
	TotalAmount decimal.Decimal      `db:"total_amount" json:"totalAmount"`
	TotalRefund decimal.Decimal      `db:"total_refund" json:"totalRefund"`
	Note        string               `db:"note" json:"note"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	Items       []PurchaseReturnItem `db:"-" json:"items"`
}

type PurchaseReturnItem struct {
	ID               int64           `db:"id" json:"id"`
	PurchaseReturnID int64           `db:"purchase_return_id" json:"purchase_return_id"`
	ProductID        int64           `db:"product_id" json:"product_id"`
	Quantity         int64           `db:"quantity" json:"quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LineTotal        decimal.Decimal `db:"line_total" json:"line_total"`
	Serials          []ProductSerial `db:"-" json:"serials,omitempty"`
}
