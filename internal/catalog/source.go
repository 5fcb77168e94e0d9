package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fjod/techmart/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Dataset string

const (
	Products      Dataset = "products"
	Categories    Dataset = "categories"
	Subcategories Dataset = "subcategories"
	Users         Dataset = "users"
	Reviews       Dataset = "reviews"
)

func (d Dataset) file() string {
	return string(d) + ".json"
}

var ErrUnavailable = errors.New("catalog source unavailable")

// Source returns the raw JSON array for a dataset.
type Source interface {
	Fetch(ctx context.Context, ds Dataset) ([]byte, error)
}

// FileSource reads <dir>/<dataset>.json.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (f *FileSource) Fetch(ctx context.Context, ds Dataset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.dir, ds.file()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// HTTPSource fetches <baseURL>/<dataset>.json through a circuit breaker so a
// dead data host fails fast instead of stalling every page.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker[[]byte]
}

func NewHTTPSource(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultSettings("catalog-http"), log),
	}
}

func (h *HTTPSource) Fetch(ctx context.Context, ds Dataset) ([]byte, error) {
	data, err := h.breaker.Execute(func() ([]byte, error) {
		return h.get(ctx, h.baseURL+"/"+ds.file())
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, ds, err)
	}
	return data, nil
}

func (h *HTTPSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// BreakerState exposes the breaker state for health reporting.
func (h *HTTPSource) BreakerState() string {
	return h.breaker.State()
}

// Close releases idle connections held by the HTTP client.
func (h *HTTPSource) Close() {
	h.client.CloseIdleConnections()
}
