package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/techmart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const productsJSON = `[
	{"id": 1, "name": "Laptop", "price": 1200, "categoryId": 1, "subCategoryId": 11, "discount": 10, "images": ["l.png"]},
	{"id": "2", "name": "Mouse", "price": 25.5, "categoryId": "2", "subCategoryId": 21},
	{"id": 3, "name": "Keyboard", "price": 75, "categoryId": 2, "subCategoryId": 22, "discount": 0}
]`

type mockSource struct {
	mu    sync.RWMutex
	data  map[Dataset]string
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (m *mockSource) Fetch(ctx context.Context, ds Dataset) ([]byte, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.data[ds]), nil
}

func (m *mockSource) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func newMockSource() *mockSource {
	return &mockSource{data: map[Dataset]string{
		Products:      productsJSON,
		Categories:    `[{"id": 1, "name": "Computers"}, {"id": 2, "name": "Accessories"}]`,
		Subcategories: `[{"id": 11, "name": "Laptops", "categoryId": 1}]`,
		Users:         `[{"id": "1", "email": "a@b.co", "password": "secret1"}, {"id": 2, "email": 42}]`,
		Reviews:       `[{"id": 1, "productId": 1, "rating": 5, "comment": "great"}, {"id": 2, "productId": 3, "rating": 3}]`,
	}}
}

func TestQueries(t *testing.T) {
	c := NewCache(newMockSource(), 0, nil)
	ctx := context.Background()

	assert.Len(t, c.Products(ctx), 3)

	p, ok := c.Product(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Laptop", p.Name)
	_, ok = c.Product(ctx, "404")
	assert.False(t, ok)

	assert.Len(t, c.ProductsByCategory(ctx, "2"), 2)
	assert.Len(t, c.ProductsByCategory(ctx, "all"), 3)
	assert.Len(t, c.ProductsByCategory(ctx, ""), 3)
	assert.Empty(t, c.ProductsByCategory(ctx, "9"))
	assert.Len(t, c.ProductsBySubcategory(ctx, "21"), 1)
	assert.Len(t, c.ProductsBySubcategory(ctx, "all"), 3)

	sale := c.ProductsOnSale(ctx)
	require.Len(t, sale, 1)
	assert.Equal(t, domain.ProductID("1"), sale[0].ID)

	assert.Len(t, c.Categories(ctx), 2)
	assert.Len(t, c.Subcategories(ctx), 1)
	assert.Len(t, c.ReviewsFor(ctx, "1"), 1)
	assert.Empty(t, c.ReviewsFor(ctx, "2"))
}

func TestUsers_SkipsMalformedRecords(t *testing.T) {
	c := NewCache(newMockSource(), 0, nil)

	users := c.Users(context.Background())
	require.Len(t, users, 1)
	assert.Equal(t, "secret1", users[0].Password)
}

func TestCache_FetchesOnce(t *testing.T) {
	src := newMockSource()
	c := NewCache(src, 0, nil)
	ctx := context.Background()

	c.Products(ctx)
	c.Product(ctx, "1")
	c.ProductsOnSale(ctx)
	assert.EqualValues(t, 1, src.calls.Load())

	c.Invalidate()
	c.Products(ctx)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestCache_ConcurrentLoadsCollapse(t *testing.T) {
	src := newMockSource()
	src.gate = make(chan struct{})
	c := NewCache(src, 0, nil)

	const readers = 10
	var wg sync.WaitGroup
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			assert.Len(t, c.Products(context.Background()), 3)
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	// give the other readers time to pile up behind the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.LessOrEqual(t, src.calls.Load(), int32(2))
}

func TestCache_CancelledCallerDoesNotEmptySharedLoad(t *testing.T) {
	src := newMockSource()
	src.gate = make(chan struct{})
	c := NewCache(src, 0, nil)

	first, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		wg         sync.WaitGroup
		gotFirst   []domain.Product
		gotWaiting []domain.Product
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		gotFirst = c.Products(first)
	}()
	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	go func() {
		defer wg.Done()
		gotWaiting = c.Products(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Len(t, gotWaiting, 3)
	assert.Len(t, gotFirst, 3)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestCache_FailureIsNotCached(t *testing.T) {
	src := newMockSource()
	src.setErr(errors.New("network down"))
	c := NewCache(src, 0, nil)
	ctx := context.Background()

	products := c.Products(ctx)
	assert.NotNil(t, products)
	assert.Empty(t, products)

	src.setErr(nil)
	assert.Len(t, c.Products(ctx), 3)
}

func TestCache_TTL(t *testing.T) {
	src := newMockSource()
	c := NewCache(src, time.Minute, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Categories(ctx)
	now = now.Add(30 * time.Second)
	c.Categories(ctx)
	assert.EqualValues(t, 1, src.calls.Load())

	now = now.Add(time.Minute)
	c.Categories(ctx)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(newMockSource(), 0, nil)
	ctx := context.Background()

	first := c.Products(ctx)
	first[0].Name = "changed"
	assert.Equal(t, "Laptop", c.Products(ctx)[0].Name)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte(productsJSON), 0o600))

	c := NewCache(NewFileSource(dir), 0, nil)
	ctx := context.Background()

	assert.Len(t, c.Products(ctx), 3)
	assert.Empty(t, c.Categories(ctx))

	_, err := NewFileSource(dir).Fetch(ctx, Reviews)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/products.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(productsJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/data/", time.Second, nil)
	defer src.Close()
	ctx := context.Background()

	data, err := src.Fetch(ctx, Products)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Laptop")

	_, err = src.Fetch(ctx, Reviews)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "closed", src.BreakerState())
}

func TestHTTPSource_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second, nil)
	defer src.Close()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := src.Fetch(ctx, Products)
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", src.BreakerState())
	assert.EqualValues(t, 5, hits.Load())
}
