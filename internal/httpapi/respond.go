package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/techmart/internal/account"
	"github.com/fjod/techmart/internal/cart"
	"github.com/fjod/techmart/internal/checkout"
	"github.com/fjod/techmart/internal/orders"
	"github.com/fjod/techmart/internal/storage"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *checkout.ValidationError
		terr *checkout.IllegalTransitionError
	)

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   verr.Error(),
			Code:    "validation_failed",
			Details: verr.Field,
		})
	case errors.As(err, &terr):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   terr.Error(),
			Code:    "illegal_transition",
			Details: string(terr.To),
		})
	case errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, cart.ErrEmptyPromoCode):
		respondError(w, http.StatusBadRequest, "empty_promo_code", err.Error())
	case errors.Is(err, cart.ErrInvalidPromo):
		respondError(w, http.StatusUnprocessableEntity, "invalid_promo", err.Error())
	case errors.Is(err, checkout.ErrPromoLocked):
		respondError(w, http.StatusConflict, "promo_locked", err.Error())
	case errors.Is(err, checkout.ErrEmptyOrder):
		respondError(w, http.StatusConflict, "empty_order", err.Error())
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, account.ErrMissingCredentials),
		errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrWeakPassword):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, account.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, account.ErrAlreadyInWishlist):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, checkout.ErrSubmission):
		respondError(w, http.StatusServiceUnavailable, "submission_failed", checkout.ErrSubmission.Error())
	case errors.Is(err, storage.ErrStorage),
		errors.Is(err, account.ErrStorage):
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage is unavailable")
	default:
		loggerFrom(r.Context()).Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
