package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vitrine-checkout/api/middleware"
	cartsvc "github.com/angelmondragon/vitrine-checkout/internal/cart"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
)

type stubCartService struct {
	cart     cartsvc.Cart
	err      error
	lastKey  cartsvc.Key
	lastID   int64
	lastQty  int
	removals int
}

func (s *stubCartService) Get(ctx context.Context, key cartsvc.Key) cartsvc.Cart {
	s.lastKey = key
	return s.cart
}

func (s *stubCartService) AddItem(ctx context.Context, key cartsvc.Key, productID int64, quantity int) (cartsvc.Cart, error) {
	s.lastKey, s.lastID, s.lastQty = key, productID, quantity
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, key cartsvc.Key, productID int64, delta int) (cartsvc.Cart, error) {
	s.lastKey, s.lastID, s.lastQty = key, productID, delta
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, key cartsvc.Key, productID int64) (cartsvc.Cart, error) {
	s.lastKey, s.lastID = key, productID
	s.removals++
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, key cartsvc.Key) error {
	return s.err
}

func sampleCart() cartsvc.Cart {
	return cartsvc.Cart{
		Subdomain: "ana",
		Items: []cartsvc.Item{
			{ProductID: 1, Title: "Caneca", UnitPrice: decimal.NewFromInt(10), Quantity: 2, Stock: 5},
			{ProductID: 2, Title: "Camiseta", UnitPrice: decimal.NewFromInt(5), Quantity: 3, Stock: 5},
		},
	}
}

func newRouter(svc cartsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Session(nil))
	r.Route("/s/{subdomain}", func(r chi.Router) {
		r.Use(middleware.StorefrontContext(nil))
		r.Get("/cart", Get(svc, nil))
		r.Post("/cart/items", AddItem(svc, nil))
		r.Patch("/cart/items/{productId}", UpdateItem(svc, nil))
		r.Delete("/cart/items/{productId}", RemoveItem(svc, nil))
	})
	return r
}

func TestGetReturnsTotals(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := httptest.NewRequest(http.MethodGet, "/s/Ana/cart", nil)
	req.Header.Set(middleware.SessionHeader, "session-abc-123")
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Subtotal.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected subtotal 35 got %s", envelope.Data.Subtotal)
	}
	if envelope.Data.ItemCount != 5 {
		t.Fatalf("expected 5 items got %d", envelope.Data.ItemCount)
	}
	if svc.lastKey.SessionID != "session-abc-123" || svc.lastKey.Subdomain != "ana" {
		t.Fatalf("unexpected key %+v", svc.lastKey)
	}
}

func TestAddItemDecodesPayload(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := httptest.NewRequest(http.MethodPost, "/s/ana/cart/items", strings.NewReader(`{"product_id":7,"quantity":2}`))
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastID != 7 || svc.lastQty != 2 {
		t.Fatalf("unexpected call id=%d qty=%d", svc.lastID, svc.lastQty)
	}
	if resp.Header().Get(middleware.SessionHeader) == "" {
		t.Fatalf("expected generated session header")
	}
}

func TestAddItemValidation(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodPost, "/s/ana/cart/items", strings.NewReader(`{"quantity":2}`))
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeConflict, "product out of stock")}
	req := httptest.NewRequest(http.MethodPost, "/s/ana/cart/items", strings.NewReader(`{"product_id":7,"quantity":1}`))
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestUpdateItemPassesDelta(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := httptest.NewRequest(http.MethodPatch, "/s/ana/cart/items/2", strings.NewReader(`{"delta":-1}`))
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastID != 2 || svc.lastQty != -1 {
		t.Fatalf("unexpected call id=%d delta=%d", svc.lastID, svc.lastQty)
	}
}

func TestRemoveItemRejectsBadID(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/s/ana/cart/items/abc", nil)
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.removals != 0 {
		t.Fatalf("service should not be called")
	}
}
