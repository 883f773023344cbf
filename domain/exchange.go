package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Exchange struct {
	ID            int64           `db:"id" json:"id"`
	InvoiceNo     string          `db:"invoice_no" json:"invoice_no"`
	SaleID        int64           `db:"sale_id" json:"sale_id"`
	CustomerID    int64           `db:"customer_id" json:"customer_id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	ReturnedTotal decimal.Decimal `db:"returned_total" json:"returned_total"`
	IssuedTotal   decimal.Decimal `db:"issued_total" json:"issued_total"`
	Difference    decimal.Decimal `db:"difference" json:"difference"`
	TotalPaid     decimal.Decimal `db:"total_paid" json:"totalPaid"`
	Note          string          `db:"note" json:"note"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	Items         []ExchangeItem  `db:"-" json:"items"`
}

// ExchangeItem takes Quantity units of OldProductID back from the customer
// and issues the same number of NewProductID units in their place.
type ExchangeItem struct {
	ID           int64           `db:"id" json:"id"`
	ExchangeID   int64           `db:"exchange_id" json:"exchange_id"`
	OldProductID int64           `db:"old_product_id" json:"old_product_id"`
	NewProductID int64           `db:"new_product_id" json:"new_product_id"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	OldUnitPrice decimal.Decimal `db:"old_unit_price" json:"oldUnitPrice"`
	NewUnitPrice decimal.Decimal `db:"new_unit_price" json:"newUnitPrice"`
	OldSerials   []ProductSerial `db:"-" json:"old_serials,omitempty"`
	NewSerials   []ProductSerial `db:"-" json:"new_serials,omitempty"`
}

type SerialDirection string

const (
	DirectionReturned SerialDirection = "returned"
	DirectionIssued   SerialDirection = "issued"
)
