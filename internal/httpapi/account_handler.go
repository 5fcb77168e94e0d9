package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/techmart/internal/account"
	"github.com/fjod/techmart/internal/catalog"
	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AccountHandler struct {
	accounts *account.Service
	orders   *orders.Archive
	catalog  *catalog.Cache
	timeout  time.Duration
}

func NewAccountHandler(accounts *account.Service, archive *orders.Archive, c *catalog.Cache, timeout time.Duration) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		orders:   archive,
		catalog:  c,
		timeout:  timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdateDTO lists the fields a user may change. Nil fields are left alone.
type ProfileUpdateDTO struct {
	Name      *string `json:"name"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	Zip       *string `json:"zip"`
	Country   *string `json:"country"`
	Avatar    *string `json:"avatar"`
}

func (d ProfileUpdateDTO) apply(u *domain.User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.Name, d.Name)
	set(&u.FirstName, d.FirstName)
	set(&u.LastName, d.LastName)
	set(&u.Phone, d.Phone)
	set(&u.Company, d.Company)
	set(&u.Address, d.Address)
	set(&u.City, d.City)
	set(&u.State, d.State)
	set(&u.Zip, d.Zip)
	set(&u.Country, d.Country)
	set(&u.Avatar, d.Avatar)
}

type WishlistRequestDTO struct {
	ProductID domain.ProductID `json:"productId"`
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.Logout(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req account.Registration
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.accounts.Register(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r.Context())
	if !ok {
		writeError(w, r, account.ErrNotAuthenticated)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProfileUpdateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.accounts.UpdateProfile(ctx, func(u *domain.User) error {
		req.apply(u)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := userFrom(r.Context()); !ok {
		writeError(w, r, account.ErrNotAuthenticated)
		return
	}
	respondJSON(w, http.StatusOK, h.accounts.Wishlist(ctx))
}

func (h *AccountHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req WishlistRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := h.catalog.Product(ctx, req.ProductID); !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	list, err := h.accounts.AddToWishlist(ctx, req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *AccountHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.accounts.RemoveFromWishlist(ctx, domain.ProductID(chi.URLParam(r, "productID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.ProductID{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Orders lists the orders billed to the logged-in user's email.
func (h *AccountHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, ok := userFrom(r.Context())
	if !ok {
		writeError(w, r, account.ErrNotAuthenticated)
		return
	}
	respondJSON(w, http.StatusOK, h.orders.FindByUser(ctx, u.Email))
}

func (h *AccountHandler) Order(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, ok := userFrom(r.Context())
	if !ok {
		writeError(w, r, account.ErrNotAuthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}
	order, err := h.orders.ByID(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// other users' orders are reported as missing
	if !strings.EqualFold(order.BillingDetails.Email, u.Email) && order.UserID != u.ID {
		writeError(w, r, orders.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
