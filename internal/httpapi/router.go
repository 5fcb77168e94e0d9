package httpapi

import (
	"net/http"
	"time"

	"github.com/fjod/techmart/internal/account"
	"github.com/fjod/techmart/internal/cart"
	"github.com/fjod/techmart/internal/catalog"
	"github.com/fjod/techmart/internal/checkout"
	"github.com/fjod/techmart/internal/orders"
	"github.com/fjod/techmart/internal/storage"
	"github.com/fjod/techmart/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 30 * time.Second

type Deps struct {
	Store    *storage.Store
	Catalog  *catalog.Cache
	Cart     *cart.Ledger
	BuyNow   *cart.BuyNow
	Promos   *cart.PromoSlot
	Checkout *checkout.Service
	Orders   *orders.Archive
	Accounts *account.Service

	RequestTimeout time.Duration
	Log            *zap.Logger
}

// NewRouter wires every storefront route under /api/v1.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	log := logger.OrNop(d.Log).Named("http")

	catalogHandler := NewCatalogHandler(d.Catalog, timeout)
	cartHandler := NewCartHandler(d.Cart, d.BuyNow, d.Promos, d.Catalog, timeout)
	checkoutHandler := NewCheckoutHandler(d.Checkout, timeout)
	accountHandler := NewAccountHandler(d.Accounts, d.Orders, d.Catalog, timeout)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(CurrentUser(d.Accounts.CurrentUser))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if !d.Store.IsAvailable(r.Context()) {
			respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage is unavailable")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/{productID}", catalogHandler.GetProduct)
			r.Get("/{productID}/reviews", catalogHandler.ListReviews)
		})
		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/subcategories", catalogHandler.ListSubcategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
			r.Post("/promo", cartHandler.ApplyPromo)
			r.Delete("/promo", cartHandler.ClearPromo)
		})

		r.Route("/buy-now", func(r chi.Router) {
			r.Get("/", cartHandler.GetBuyNow)
			r.Put("/", cartHandler.SetBuyNow)
			r.Delete("/", cartHandler.ClearBuyNow)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Begin)
			r.Get("/{sessionID}", checkoutHandler.GetSession)
			r.Post("/{sessionID}/promo", checkoutHandler.ApplyPromo)
			r.Post("/{sessionID}/submit", checkoutHandler.Submit)
			r.Delete("/{sessionID}", checkoutHandler.Abandon)
		})

		r.Route("/account", func(r chi.Router) {
			r.Post("/login", accountHandler.Login)
			r.Post("/logout", accountHandler.Logout)
			r.Post("/register", accountHandler.Register)
			r.Get("/me", accountHandler.Profile)
			r.Patch("/me", accountHandler.UpdateProfile)
			r.Get("/wishlist", accountHandler.Wishlist)
			r.Post("/wishlist", accountHandler.AddToWishlist)
			r.Delete("/wishlist/{productID}", accountHandler.RemoveFromWishlist)
			r.Get("/orders", accountHandler.Orders)
			r.Get("/orders/{orderID}", accountHandler.Order)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
