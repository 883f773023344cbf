package api

import (
	"net/http"

	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/inventory"
)

var errLinesFixed = apperr.Validation("sale lines cannot be changed, delete and re-enter the sale instead")

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(sales, toSaleResponse))
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	sale, err := h.svc.CreateSale(r.Context(), inventory.SaleInput{
		CustomerID:  req.CustomerID,
		UserID:      currentUserID(r),
		Discount:    req.Discount,
		TotalAmount: req.TotalAmount,
		TotalPaid:   req.TotalPaid,
		Note:        req.Note,
		Items:       toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSaleResponse(sale))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(sale))
}

// updateSale changes the header only; sold lines are fixed.
func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Items != nil {
		h.respondError(w, r, errLinesFixed)
		return
	}
	sale, err := h.svc.UpdateSale(r.Context(), id, inventory.SaleHeaderInput{
		CustomerID:  req.CustomerID,
		Discount:    req.Discount,
		TotalAmount: req.TotalAmount,
		TotalPaid:   req.TotalPaid,
		Note:        req.Note,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(sale))
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("sale", id))
}
