package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/techmart/internal/account"
	"github.com/fjod/techmart/internal/cart"
	"github.com/fjod/techmart/internal/catalog"
	"github.com/fjod/techmart/internal/checkout"
	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/events"
	"github.com/fjod/techmart/internal/orders"
	"github.com/fjod/techmart/internal/pricing"
	"github.com/fjod/techmart/internal/promo"
	"github.com/fjod/techmart/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mapSource serves datasets from memory.
type mapSource map[catalog.Dataset]string

func (m mapSource) Fetch(_ context.Context, ds catalog.Dataset) ([]byte, error) {
	raw, ok := m[ds]
	if !ok {
		return nil, catalog.ErrUnavailable
	}
	return []byte(raw), nil
}

type readOnlyBackend struct {
	*storage.MemoryBackend
}

func (readOnlyBackend) Set(context.Context, string, []byte) error {
	return errors.New("read-only")
}

var testCatalog = mapSource{
	catalog.Products: `[
		{"id":1,"name":"Laptop","price":50,"categoryId":"c1"},
		{"id":2,"name":"Mouse","price":20,"categoryId":"c2","discount":10},
		{"id":3,"name":"Monitor","price":200,"categoryId":"c1"}
	]`,
	catalog.Categories:    `[{"id":"c1","name":"Computers"},{"id":"c2","name":"Accessories"}]`,
	catalog.Subcategories: `[]`,
	catalog.Users:         `[{"id":"u1","email":"ann@example.com","password":"secret1","name":"Ann"}]`,
	catalog.Reviews:       `[{"id":"r1","productId":"1","rating":5},{"id":"r2","productId":"2","rating":3}]`,
}

type testServer struct {
	handler http.Handler
	archive *orders.Archive
	ledger  *cart.Ledger
}

func newTestServer(t *testing.T, backend storage.Backend) *testServer {
	t.Helper()
	store := storage.New(backend, nil)
	t.Cleanup(func() { store.Close() })

	engine, err := promo.NewEngine(promo.DefaultCodes())
	require.NoError(t, err)
	policy := pricing.DefaultPolicy()

	cat := catalog.NewCache(testCatalog, 0, nil)
	ledger := cart.NewLedger(store, policy, nil)
	buyNow := cart.NewBuyNow(store, nil)
	promos := cart.NewPromoSlot(store, engine, nil)
	archive := orders.NewArchive(store, nil)
	accounts := account.NewService(store, cat, account.Options{BcryptCost: bcrypt.MinCost}, nil)

	svc := checkout.NewService(checkout.Deps{
		Cart:     ledger,
		BuyNow:   buyNow,
		Promos:   promos,
		Engine:   engine,
		Policy:   policy,
		Orders:   archive,
		Events:   events.NewOutbox(store, nil),
		Profiles: accounts,
	})
	t.Cleanup(svc.Close)

	return &testServer{
		handler: NewRouter(Deps{
			Store:          store,
			Catalog:        cat,
			Cart:           ledger,
			BuyNow:         buyNow,
			Promos:         promos,
			Checkout:       svc,
			Orders:         archive,
			Accounts:       accounts,
			RequestTimeout: 5 * time.Second,
		}),
		archive: archive,
		ledger:  ledger,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func validBilling() map[string]any {
	return map[string]any{
		"firstName":     "Ann",
		"lastName":      "Lee",
		"email":         "ann@example.com",
		"address":       "1 Main St",
		"city":          "Cairo",
		"paymentMethod": "card",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	broken := newTestServer(t, readOnlyBackend{storage.NewMemoryBackend()})
	w = broken.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "storage_unavailable", decode[ErrorResponse](t, w).Code)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())

	tests := []struct {
		name  string
		path  string
		count int
	}{
		{"all products", "/api/v1/products", 3},
		{"by category", "/api/v1/products?category=c1", 2},
		{"category all", "/api/v1/products?category=all", 3},
		{"on sale", "/api/v1/products?sale=true", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, decode[[]domain.Product](t, w), tt.count)
		})
	}

	w := s.do(t, http.MethodGet, "/api/v1/products/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Monitor", decode[domain.Product](t, w).Name)

	w = s.do(t, http.MethodGet, "/api/v1/products/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/products/1/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Review](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/v1/categories", nil)
	assert.Len(t, decode[[]domain.Category](t, w), 2)
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())

	w := s.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[CartView](t, w)
	assert.NotNil(t, empty.Items)
	assert.True(t, empty.Summary.Total.IsZero())

	w = s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 2})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decode[CartView](t, w)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, decimal.NewFromInt(108).Equal(view.Summary.Total), view.Summary.Total.String())

	w = s.do(t, http.MethodPut, "/api/v1/cart/items/1", UpdateQuantityRequestDTO{Quantity: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[CartView](t, w).ItemCount)

	w = s.do(t, http.MethodPut, "/api/v1/cart/items/9", UpdateQuantityRequestDTO{Quantity: 3})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/cart/items/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[CartView](t, w).ItemCount)

	w = s.do(t, http.MethodDelete, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCartRoutes_Rejections(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown product", AddItemRequestDTO{ProductID: "99", Quantity: 1}, http.StatusNotFound, "not_found"},
		{"missing product", AddItemRequestDTO{Quantity: 1}, http.StatusBadRequest, "invalid_product_id"},
		{"negative quantity", AddItemRequestDTO{ProductID: "1", Quantity: -1}, http.StatusBadRequest, "invalid_argument"},
		{"not json", "{", http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
	assert.Empty(t, s.ledger.Items(context.Background()))
}

func TestCartPromo(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "3", Quantity: 1}).Code)

	w := s.do(t, http.MethodPost, "/api/v1/cart/promo", PromoRequestDTO{Code: "bogus"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/cart/promo", PromoRequestDTO{Code: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/cart/promo", PromoRequestDTO{Code: "save10"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[CartView](t, w)
	require.NotNil(t, view.Promo)
	assert.Equal(t, "SAVE10", view.Promo.Code)
	assert.True(t, decimal.NewFromInt(20).Equal(view.Summary.Discount))

	w = s.do(t, http.MethodDelete, "/api/v1/cart/promo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[CartView](t, w).Promo)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())

	w := s.do(t, http.MethodPost, "/api/v1/account/login", LoginRequestDTO{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 2}).Code)

	w = s.do(t, http.MethodPost, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sess := decode[checkout.Session](t, w)
	assert.Equal(t, checkout.ModeCart, sess.Mode)
	assert.Equal(t, "Ann", sess.Billing.FirstName)
	path := "/api/v1/checkout/" + sess.ID.String()
	assert.Equal(t, path, w.Header().Get("Location"))

	w = s.do(t, http.MethodPost, path+"/promo", PromoRequestDTO{Code: "SAVE15"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, path+"/promo", PromoRequestDTO{Code: "SAVE10"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "promo_locked", decode[ErrorResponse](t, w).Code)

	bad := validBilling()
	bad["email"] = "not-an-email"
	w = s.do(t, http.MethodPost, path+"/submit", bad)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "email", decode[ErrorResponse](t, w).Details)

	w = s.do(t, http.MethodPost, path+"/submit", validBilling())
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[checkout.Session](t, w)
	assert.Equal(t, domain.CheckoutStatusSucceeded, done.Status)
	require.NotNil(t, done.Order)
	assert.Equal(t, "u1", done.Order.UserID)

	w = s.do(t, http.MethodPost, path+"/submit", validBilling())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "illegal_transition", decode[ErrorResponse](t, w).Code)

	assert.Empty(t, s.ledger.Items(context.Background()))

	w = s.do(t, http.MethodGet, "/api/v1/account/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]domain.Order](t, w)
	require.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/api/v1/account/orders/"+list[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, list[0].ID, decode[domain.Order](t, w).ID)
}

func TestCheckout_EmptyAndUnknown(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())

	w := s.do(t, http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "empty_order", decode[ErrorResponse](t, w).Code)
	assert.Empty(t, w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/api/v1/checkout/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/checkout/8d3c4f2e-6c1b-4c59-9a55-0f3f6d5b1e77", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuyNowCheckout(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 1}).Code)

	w := s.do(t, http.MethodPut, "/api/v1/buy-now", AddItemRequestDTO{ProductID: "3", Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.CartLineItem](t, w), 1)

	w = s.do(t, http.MethodPost, "/api/v1/checkout?buyNow=true", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sess := decode[checkout.Session](t, w)
	assert.Equal(t, checkout.ModeBuyNow, sess.Mode)
	require.Len(t, sess.Items, 1)
	assert.Equal(t, domain.ProductID("3"), sess.Items[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/buy-now", nil)
	assert.Empty(t, decode[[]domain.CartLineItem](t, w))

	w = s.do(t, http.MethodPost, "/api/v1/checkout/"+sess.ID.String()+"/submit", validBilling())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.ledger.ItemCount(context.Background()))
	assert.Equal(t, 1, s.archive.Count(context.Background()))

	w = s.do(t, http.MethodDelete, "/api/v1/checkout/"+sess.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAccountRoutes(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryBackend())

	w := s.do(t, http.MethodGet, "/api/v1/account/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/account/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/account/login", LoginRequestDTO{Email: "ann@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/account/register", account.Registration{Name: "Bob", Email: "ann@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/account/register", account.Registration{Name: "Bob", Email: "bob@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/account/register", account.Registration{Name: "Bob", Email: "Bob@Example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	bob := decode[domain.User](t, w)
	assert.Equal(t, "bob@example.com", bob.Email)

	city := "Giza"
	w = s.do(t, http.MethodPatch, "/api/v1/account/me", ProfileUpdateDTO{City: &city})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[domain.User](t, w)
	assert.Equal(t, "Giza", updated.City)
	assert.Equal(t, bob.ID, updated.ID)

	w = s.do(t, http.MethodPost, "/api/v1/account/wishlist", WishlistRequestDTO{ProductID: "2"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/account/wishlist", WishlistRequestDTO{ProductID: "2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/account/wishlist", WishlistRequestDTO{ProductID: "77"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/account/wishlist/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.ProductID](t, w))

	w = s.do(t, http.MethodPost, "/api/v1/account/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/account/wishlist", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
