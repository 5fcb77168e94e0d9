package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/techmart/internal/cart"
	"github.com/fjod/techmart/internal/catalog"
	"github.com/fjod/techmart/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cart    *cart.Ledger
	buyNow  *cart.BuyNow
	promos  *cart.PromoSlot
	catalog *catalog.Cache
	timeout time.Duration
}

func NewCartHandler(ledger *cart.Ledger, buyNow *cart.BuyNow, promos *cart.PromoSlot, c *catalog.Cache, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    ledger,
		buyNow:  buyNow,
		promos:  promos,
		catalog: c,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID domain.ProductID `json:"productId"`
	Quantity  int              `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type PromoRequestDTO struct {
	Code string `json:"code"`
}

type CartView struct {
	Items     []domain.CartLineItem `json:"items"`
	ItemCount int                   `json:"itemCount"`
	Promo     *domain.PromoState    `json:"promo,omitempty"`
	Summary   domain.PriceSummary   `json:"summary"`
}

func (h *CartHandler) view(ctx context.Context) CartView {
	items := h.cart.Items(ctx)
	if items == nil {
		items = []domain.CartLineItem{}
	}
	promo := h.promos.Current(ctx)
	percent := 0
	if promo.Active() {
		percent = promo.Percent
	}
	return CartView{
		Items:     items,
		ItemCount: h.cart.ItemCount(ctx),
		Promo:     promo,
		Summary:   h.cart.Summary(ctx, percent).Rounded(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.view(ctx))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, ok := h.catalog.Product(ctx, req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err := h.cart.Add(ctx, product, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.view(ctx))
}

// UpdateQuantity removes the line when quantity is zero or less.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	id := domain.ProductID(chi.URLParam(r, "productID"))
	if err := h.cart.UpdateQuantity(ctx, id, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Remove(ctx, domain.ProductID(chi.URLParam(r, "productID"))); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PromoRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.promos.Apply(ctx, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx))
}

func (h *CartHandler) ClearPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.promos.Clear(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx))
}

func (h *CartHandler) GetBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items := h.buyNow.Get(ctx)
	if items == nil {
		items = []domain.CartLineItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// SetBuyNow replaces the buy-now slot with a single catalog product.
func (h *CartHandler) SetBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	product, ok := h.catalog.Product(ctx, req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err := h.buyNow.SetProduct(ctx, product, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.buyNow.Get(ctx))
}

func (h *CartHandler) ClearBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.buyNow.Clear(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
