package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/techmart/internal/catalog"
	"github.com/fjod/techmart/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog *catalog.Cache
	timeout time.Duration
}

func NewCatalogHandler(c *catalog.Cache, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: c, timeout: timeout}
}

// ListProducts filters by ?category=, ?subcategory= or ?sale=true, in that order.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	var products []domain.Product
	switch {
	case q.Get("category") != "":
		products = h.catalog.ProductsByCategory(ctx, q.Get("category"))
	case q.Get("subcategory") != "":
		products = h.catalog.ProductsBySubcategory(ctx, q.Get("subcategory"))
	case q.Get("sale") == "true":
		products = h.catalog.ProductsOnSale(ctx)
	default:
		products = h.catalog.Products(ctx)
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := h.catalog.Product(ctx, domain.ProductID(chi.URLParam(r, "productID")))
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.catalog.ReviewsFor(ctx, domain.ProductID(chi.URLParam(r, "productID"))))
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.catalog.Categories(ctx))
}

func (h *CatalogHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.catalog.Subcategories(ctx))
}
