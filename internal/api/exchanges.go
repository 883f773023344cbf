package api

import "net/http"

func (h *Handler) listExchanges(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.svc.ListExchanges(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAll(exchanges, toExchangeResponse))
}

func (h *Handler) createExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	ex, err := h.svc.CreateExchange(r.Context(), req.input(currentUserID(r)))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toExchangeResponse(ex))
}

func (h *Handler) getExchange(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ex, err := h.svc.GetExchange(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExchangeResponse(ex))
}

func (h *Handler) deleteExchange(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteExchange(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted("exchange", id))
}
