package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/vitrine-checkout/api/middleware"
	"github.com/angelmondragon/vitrine-checkout/internal/cart"
	"github.com/angelmondragon/vitrine-checkout/internal/orders"
	"github.com/angelmondragon/vitrine-checkout/pkg/config"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/metrics"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCartService struct {
	lastKey cart.Key
}

func (s *stubCartService) Get(ctx context.Context, key cart.Key) cart.Cart {
	s.lastKey = key
	return cart.Cart{Subdomain: key.Subdomain}
}

func (s *stubCartService) AddItem(ctx context.Context, key cart.Key, productID int64, quantity int) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, key cart.Key, productID int64, delta int) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, key cart.Key, productID int64) (cart.Cart, error) {
	return cart.Cart{}, nil
}

func (s *stubCartService) Clear(ctx context.Context, key cart.Key) error {
	return nil
}

type stubOrdersService struct {
	auth string
}

func (s *stubOrdersService) List(ctx context.Context, storeID int64, authorization string, filters orders.Filters) ([]orders.Row, error) {
	s.auth = authorization
	return []orders.Row{}, nil
}

func (s *stubOrdersService) Recent(ctx context.Context, storeID int64, authorization string) ([]orders.Row, error) {
	return nil, nil
}

func (s *stubOrdersService) Summary(ctx context.Context, storeID int64, authorization string) (*vitrine.Summary, error) {
	return &vitrine.Summary{}, nil
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{
		Env:          "test",
		CORSOrigins:  []string{"http://localhost:3000"},
		MaxBodyBytes: 1 << 20,
	}}
}

func TestHealthRoutes(t *testing.T) {
	router := NewRouter(testConfig(), logger.Nop(), Services{Redis: stubPinger{}})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Vitrine-Env") != "test" {
			t.Fatalf("%s: expected env header", path)
		}
	}
}

func TestReadyFailsWhenRedisDown(t *testing.T) {
	router := NewRouter(testConfig(), logger.Nop(), Services{Redis: stubPinger{err: errors.New("connection refused")}})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestShopperRoutesCarrySession(t *testing.T) {
	carts := &stubCartService{}
	router := NewRouter(testConfig(), logger.Nop(), Services{Cart: carts})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/storefronts/lojinha/cart", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	sessionID := resp.Header().Get(middleware.SessionHeader)
	if sessionID == "" || carts.lastKey.SessionID != sessionID || carts.lastKey.Subdomain != "lojinha" {
		t.Fatalf("unexpected session wiring header=%q key=%+v", sessionID, carts.lastKey)
	}
}

func TestMerchantRoutesForwardAuthorization(t *testing.T) {
	svc := &stubOrdersService{}
	router := NewRouter(testConfig(), logger.Nop(), Services{Orders: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/stores/12/orders", nil)
	req.Header.Set("Authorization", "Bearer m")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.auth != "Bearer m" {
		t.Fatalf("expected authorization forwarded, got %q", svc.auth)
	}
	if resp.Header().Get(middleware.SessionHeader) != "" {
		t.Fatalf("merchant routes should not mint shopper sessions")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)
	checkoutMetrics.IncOrder("submitted")

	router := NewRouter(testConfig(), logger.Nop(), Services{Metrics: reg})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "vitrine_orders_submitted_total") {
		t.Fatalf("expected checkout metric in exposition")
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	router := NewRouter(testConfig(), logger.Nop(), Services{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if resp.Code != http.StatusNotFound || !strings.Contains(resp.Body.String(), "NOT_FOUND") {
		t.Fatalf("unexpected not found response %d %s", resp.Code, resp.Body.String())
	}
}
