package api

import "net/http"

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(customers, toCustomerResponse))
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCustomerResponse(c))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req partyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.svc.UpdateCustomer(r.Context(), id, req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("customer", id))
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(suppliers, toSupplierResponse))
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	s, err := h.svc.CreateSupplier(r.Context(), req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSupplierResponse(s))
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	s, err := h.svc.GetSupplier(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSupplierResponse(s))
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req partyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	s, err := h.svc.UpdateSupplier(r.Context(), id, req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSupplierResponse(s))
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteSupplier(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("supplier", id))
}
