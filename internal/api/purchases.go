package api

import (
	"net/http"

	"shopkeep/m/internal/inventory"
)

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.svc.ListPurchases(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(purchases, toPurchaseResponse))
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	purchase, err := h.svc.CreatePurchase(r.Context(), inventory.PurchaseInput{
		SupplierID:  req.SupplierID,
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
	respondJSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	purchase, err := h.svc.GetPurchase(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

// updatePurchase rewrites the header, and the lines too when the body
// carries an items array.
func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	in := inventory.PurchaseUpdateInput{
		SupplierID:  req.SupplierID,
		Discount:    req.Discount,
		TotalAmount: req.TotalAmount,
		TotalPaid:   req.TotalPaid,
		Note:        req.Note,
	}
	if req.Items != nil {
		in.Items = toItemInputs(req.Items)
	}
	purchase, err := h.svc.UpdatePurchase(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeletePurchase(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("purchase", id))
}
