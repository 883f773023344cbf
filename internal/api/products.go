package api

import (
	"net/http"

	"shopkeep/m/domain"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(products, toProductResponse))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("product", id))
}

// listSerials accepts ?state=available|sold.
func (h *Handler) listSerials(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	state := domain.SerialState(r.URL.Query().Get("state"))
	serials, err := h.svc.ListSerials(r.Context(), id, state)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSerialResponses(serials))
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	movements, err := h.svc.ListMovements(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, movements)
}
