package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/techmart/internal/checkout"
	"github.com/fjod/techmart/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	timeout  time.Duration
}

func NewCheckoutHandler(svc *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, timeout: timeout}
}

type SubmitRequestDTO struct {
	domain.BillingDetails
	SaveBilling bool `json:"saveBilling"`
}

// Begin starts a session. ?buyNow=true checks out the buy-now slot instead of the cart.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.checkout.Begin(ctx, checkout.ModeFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/checkout/"+sess.ID.String())
	respondJSON(w, http.StatusCreated, sess)
}

func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.checkout.Session(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req PromoRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.checkout.ApplyPromo(ctx, id, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SubmitRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.checkout.Submit(ctx, id, req.BillingDetails, checkout.SubmitOptions{SaveBilling: req.SaveBilling})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.checkout.Abandon(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
