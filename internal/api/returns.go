package api

import (
	"net/http"

	"shopkeep/m/internal/inventory"
)

func (h *Handler) listSalesReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.svc.ListSalesReturns(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(returns, toSalesReturnResponse))
}

func (h *Handler) createSalesReturn(w http.ResponseWriter, r *http.Request) {
	var req salesReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	ret, err := h.svc.CreateSalesReturn(r.Context(), inventory.SalesReturnInput{
		SaleID:      req.SaleID,
		UserID:      currentUserID(r),
		TotalAmount: req.TotalAmount,
		TotalRefund: req.TotalRefund,
		Note:        req.Note,
		Items:       toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSalesReturnResponse(ret))
}

func (h *Handler) getSalesReturn(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ret, err := h.svc.GetSalesReturn(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSalesReturnResponse(ret))
}

func (h *Handler) deleteSalesReturn(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteSalesReturn(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("sales return", id))
}

func (h *Handler) listPurchaseReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.svc.ListPurchaseReturns(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(returns, toPurchaseReturnResponse))
}

func (h *Handler) createPurchaseReturn(w http.ResponseWriter, r *http.Request) {
	var req purchaseReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	ret, err := h.svc.CreatePurchaseReturn(r.Context(), inventory.PurchaseReturnInput{
		SupplierID:  req.SupplierID,
		PurchaseID:  req.PurchaseID,
		UserID:      currentUserID(r),
		TotalAmount: req.TotalAmount,
		TotalRefund: req.TotalRefund,
		Note:        req.Note,
		Items:       toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPurchaseReturnResponse(ret))
}

func (h *Handler) getPurchaseReturn(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ret, err := h.svc.GetPurchaseReturn(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseReturnResponse(ret))
}

func (h *Handler) deletePurchaseReturn(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeletePurchaseReturn(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("purchase return", id))
}
