package api

import (
	"time"

	"github.com/shopspring/decimal"

	"shopkeep/m/domain"
	"shopkeep/m/internal/inventory"
)

// Requests

type itemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Serials   []string        `json:"serials,omitempty"`
}

func toItemInputs(items []itemRequest) []inventory.ItemInput {
	out := make([]inventory.ItemInput, len(items))
	for i, it := range items {
		out[i] = inventory.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Serials:   it.Serials,
		}
	}
	return out
}

type productRequest struct {
	Name                 string               `json:"name"`
	SKU                  *string              `json:"sku"`
	Quantity             int64                `json:"quantity"`
	PurchasePrice        decimal.Decimal      `json:"purchase_price"`
	WholesalePrice       decimal.Decimal      `json:"wholesale_price"`
	RetailPrice          decimal.Decimal      `json:"retail_price"`
	UseIndividualSerials bool                 `json:"useIndividualSerials"`
	Status               domain.ProductStatus `json:"status"`
	Serials              []string             `json:"serials"`
	HasWarranty          bool                 `json:"has_warranty"`
}

func (req productRequest) input() inventory.ProductInput {
	return inventory.ProductInput{
		Name:                 req.Name,
		SKU:                  req.SKU,
		Quantity:             req.Quantity,
		PurchasePrice:        req.PurchasePrice,
		WholesalePrice:       req.WholesalePrice,
		RetailPrice:          req.RetailPrice,
		UseIndividualSerials: req.UseIndividualSerials,
		Status:               req.Status,
		Serials:              req.Serials,
		HasWarranty:          req.HasWarranty,
	}
}

type partyRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (req partyRequest) input() inventory.PartyInput {
	return inventory.PartyInput{Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address}
}

type saleRequest struct {
	CustomerID  int64           `json:"customer_id"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Note        string          `json:"note"`
	Items       []itemRequest   `json:"items"`
}

type purchaseRequest struct {
	SupplierID  int64           `json:"supplier_id"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Note        string          `json:"note"`
	Items       []itemRequest   `json:"items"`
}

type salesReturnRequest struct {
	SaleID      int64           `json:"sale_id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalRefund decimal.Decimal `json:"totalRefund"`
	Note        string          `json:"note"`
	Items       []itemRequest   `json:"items"`
}

type purchaseReturnRequest struct {
	SupplierID  int64           `json:"supplier_id"`
	PurchaseID  *int64          `json:"purchase_id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalRefund decimal.Decimal `json:"totalRefund"`
	Note        string          `json:"note"`
	Items       []itemRequest   `json:"items"`
}

type exchangeItemRequest struct {
	OldProductID int64           `json:"old_product_id"`
	NewProductID int64           `json:"new_product_id"`
	Quantity     int64           `json:"quantity"`
	OldUnitPrice decimal.Decimal `json:"oldUnitPrice"`
	NewUnitPrice decimal.Decimal `json:"newUnitPrice"`
	OldSerials   []string        `json:"old_serials,omitempty"`
	NewSerials   []string        `json:"new_serials,omitempty"`
}

type exchangeRequest struct {
	SaleID    int64                 `json:"sale_id"`
	TotalPaid decimal.Decimal       `json:"totalPaid"`
	Note      string                `json:"note"`
	Items     []exchangeItemRequest `json:"items"`
}

func (req exchangeRequest) input(userID int64) inventory.ExchangeInput {
	items := make([]inventory.ExchangeItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = inventory.ExchangeItemInput{
			OldProductID: it.OldProductID,
			NewProductID: it.NewProductID,
			Quantity:     it.Quantity,
			OldUnitPrice: it.OldUnitPrice,
			NewUnitPrice: it.NewUnitPrice,
			OldSerials:   it.OldSerials,
			NewSerials:   it.NewSerials,
		}
	}
	return inventory.ExchangeInput{
		SaleID:    req.SaleID,
		UserID:    userID,
		TotalPaid: req.TotalPaid,
		Note:      req.Note,
		Items:     items,
	}
}

// Responses

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserResponse(u domain.User, role domain.Role) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: role.Name}
}

type productResponse struct {
	ID                   int64                `json:"id"`
	Name                 string               `json:"name"`
	SKU                  *string              `json:"sku,omitempty"`
	Quantity             int64                `json:"quantity"`
	Stock                int64                `json:"stock"`
	PurchasePrice        decimal.Decimal      `json:"purchase_price"`
	WholesalePrice       decimal.Decimal      `json:"wholesale_price"`
	RetailPrice          decimal.Decimal      `json:"retail_price"`
	UseIndividualSerials bool                 `json:"useIndividualSerials"`
	Status               domain.ProductStatus `json:"status"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		SKU:                  p.SKU,
		Quantity:             p.Quantity,
		Stock:                p.Stock,
		PurchasePrice:        p.PurchasePrice,
		WholesalePrice:       p.WholesalePrice,
		RetailPrice:          p.RetailPrice,
		UseIndividualSerials: p.UseIndividualSerials,
		Status:               p.Status,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

type serialResponse struct {
	ID          int64              `json:"id"`
	Serial      string             `json:"serial"`
	ProductID   int64              `json:"product_id"`
	State       domain.SerialState `json:"state"`
	HasWarranty bool               `json:"has_warranty"`
}

func toSerialResponses(serials []domain.ProductSerial) []serialResponse {
	out := make([]serialResponse, len(serials))
	for i, ps := range serials {
		out[i] = serialResponse{
			ID:          ps.ID,
			Serial:      ps.Serial,
			ProductID:   ps.ProductID,
			State:       ps.State,
			HasWarranty: ps.HasWarranty,
		}
	}
	return out
}

// serialStrings is how line items show the units they moved.
func serialStrings(serials []domain.ProductSerial) []string {
	if len(serials) == 0 {
		return nil
	}
	out := make([]string, len(serials))
	for i, ps := range serials {
		out[i] = ps.Serial
	}
	return out
}

type partyResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomerResponse(c domain.Customer) partyResponse {
	return partyResponse{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address, CreatedAt: c.CreatedAt}
}

func toSupplierResponse(s domain.Supplier) partyResponse {
	return partyResponse{ID: s.ID, Name: s.Name, Phone: s.Phone, Email: s.Email, Address: s.Address, CreatedAt: s.CreatedAt}
}

type lineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"line_total"`
	Serials   []string        `json:"serials,omitempty"`
}

type saleResponse struct {
	ID          int64           `json:"id"`
	InvoiceNo   string          `json:"invoice_no"`
	CustomerID  int64           `json:"customer_id"`
	UserID      int64           `json:"user_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Due         decimal.Decimal `json:"due"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []lineResponse  `json:"items,omitempty"`
}

func toSaleResponse(s domain.Sale) saleResponse {
	resp := saleResponse{
		ID:          s.ID,
		InvoiceNo:   s.InvoiceNo,
		CustomerID:  s.CustomerID,
		UserID:      s.UserID,
		Subtotal:    s.Subtotal,
		Discount:    s.Discount,
		TotalAmount: s.TotalAmount,
		TotalPaid:   s.TotalPaid,
		Due:         s.Due,
		Note:        s.Note,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, lineResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			Serials:   serialStrings(it.Serials),
		})
	}
	return resp
}

type purchaseResponse struct {
	ID          int64           `json:"id"`
	InvoiceNo   string          `json:"invoice_no"`
	SupplierID  int64           `json:"supplier_id"`
	UserID      int64           `json:"user_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Due         decimal.Decimal `json:"due"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []lineResponse  `json:"items,omitempty"`
}

func toPurchaseResponse(p domain.Purchase) purchaseResponse {
	resp := purchaseResponse{
		ID:          p.ID,
		InvoiceNo:   p.InvoiceNo,
		SupplierID:  p.SupplierID,
		UserID:      p.UserID,
		Subtotal:    p.Subtotal,
		Discount:    p.Discount,
		TotalAmount: p.TotalAmount,
		TotalPaid:   p.TotalPaid,
		Due:         p.Due,
		Note:        p.Note,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, lineResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			Serials:   serialStrings(it.Serials),
		})
	}
	return resp
}

type salesReturnResponse struct {
	ID          int64           `json:"id"`
	InvoiceNo   string          `json:"invoice_no"`
	SaleID      int64           `json:"sale_id"`
	CustomerID  int64           `json:"customer_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalRefund decimal.Decimal `json:"totalRefund"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []lineResponse  `json:"items,omitempty"`
}

func toSalesReturnResponse(r domain.SalesReturn) salesReturnResponse {
	resp := salesReturnResponse{
		ID:          r.ID,
		InvoiceNo:   r.InvoiceNo,
		SaleID:      r.SaleID,
		CustomerID:  r.CustomerID,
		UserID:      r.UserID,
		TotalAmount: r.TotalAmount,
		TotalRefund: r.TotalRefund,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt,
	}
	for _, it := range r.Items {
		resp.Items = append(resp.Items, lineResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			Serials:   serialStrings(it.Serials),
		})
	}
	return resp
}

type purchaseReturnResponse struct {
	ID          int64           `json:"id"`
	InvoiceNo   string          `json:"invoice_no"`
	PurchaseID  *int64          `json:"purchase_id,omitempty"`
	SupplierID  int64           `json:"supplier_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalRefund decimal.Decimal `json:"totalRefund"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []lineResponse  `json:"items,omitempty"`
}

func toPurchaseReturnResponse(r domain.PurchaseReturn) purchaseReturnResponse {
	resp := purchaseReturnResponse{
		ID:          r.ID,
		InvoiceNo:   r.InvoiceNo,
		PurchaseID:  r.PurchaseID,
		SupplierID:  r.SupplierID,
		UserID:      r.UserID,
		TotalAmount: r.TotalAmount,
		TotalRefund: r.TotalRefund,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt,
	}
	for _, it := range r.Items {
		resp.Items = append(resp.Items, lineResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			Serials:   serialStrings(it.Serials),
		})
	}
	return resp
}

type exchangeItemResponse struct {
	ID           int64           `json:"id"`
	OldProductID int64           `json:"old_product_id"`
	NewProductID int64           `json:"new_product_id"`
	Quantity     int64           `json:"quantity"`
	OldUnitPrice decimal.Decimal `json:"oldUnitPrice"`
	NewUnitPrice decimal.Decimal `json:"newUnitPrice"`
	OldSerials   []string        `json:"old_serials,omitempty"`
	NewSerials   []string        `json:"new_serials,omitempty"`
}

type exchangeResponse struct {
	ID            int64                  `json:"id"`
	InvoiceNo     string                 `json:"invoice_no"`
	SaleID        int64                  `json:"sale_id"`
	CustomerID    int64                  `json:"customer_id"`
	UserID        int64                  `json:"user_id"`
	ReturnedTotal decimal.Decimal        `json:"returned_total"`
	IssuedTotal   decimal.Decimal        `json:"issued_total"`
	Difference    decimal.Decimal        `json:"difference"`
	TotalPaid     decimal.Decimal        `json:"totalPaid"`
	Note          string                 `json:"note"`
	CreatedAt     time.Time              `json:"created_at"`
	Items         []exchangeItemResponse `json:"items,omitempty"`
}

func toExchangeResponse(e domain.Exchange) exchangeResponse {
	resp := exchangeResponse{
		ID:            e.ID,
		InvoiceNo:     e.InvoiceNo,
		SaleID:        e.SaleID,
		CustomerID:    e.CustomerID,
		UserID:        e.UserID,
		ReturnedTotal: e.ReturnedTotal,
		IssuedTotal:   e.IssuedTotal,
		Difference:    e.Difference,
		TotalPaid:     e.TotalPaid,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
	}
	for _, it := range e.Items {
		resp.Items = append(resp.Items, exchangeItemResponse{
			ID:           it.ID,
			OldProductID: it.OldProductID,
			NewProductID: it.NewProductID,
			Quantity:     it.Quantity,
			OldUnitPrice: it.OldUnitPrice,
			NewUnitPrice: it.NewUnitPrice,
			OldSerials:   serialStrings(it.OldSerials),
			NewSerials:   serialStrings(it.NewSerials),
		})
	}
	return resp
}

// mapAll converts a list with one of the mapping functions above.
func mapAll[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
