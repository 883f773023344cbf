package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive      ProductStatus = "active"
	ProductUnavailable ProductStatus = "unavailable"
)

func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductUnavailable
}

// Product is a sellable item. For serialized products Quantity is informational
// only; stock on hand is the number of Available serials. Stock is filled in
// on reads with whichever count is authoritative.
type Product struct {
	ID                   int64           `db:"id" json:"id"`
	Name                 string          `db:"name" json:"name"`
	SKU                  *string         `db:"sku" json:"sku,omitempty"`
	Quantity             int64           `db:"quantity" json:"quantity"`
	PurchasePrice        decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	WholesalePrice       decimal.Decimal `db:"wholesale_price" json:"wholesale_price"`
	RetailPrice          decimal.Decimal `db:"retail_price" json:"retail_price"`
	UseIndividualSerials bool            `db:"use_individual_serials" json:"useIndividualSerials"`
	Status               ProductStatus   `db:"status" json:"status"`
	Stock                int64           `db:"stock" json:"stock"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

type ProductSerial struct {
	ID          int64       `db:"id" json:"id"`
	Serial      string      `db:"serial" json:"serial"`
	ProductID   int64       `db:"product_id" json:"product_id"`
	State       SerialState `db:"state" json:"state"`
	HasWarranty bool        `db:"has_warranty" json:"has_warranty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
