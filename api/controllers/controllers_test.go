package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/vitrine-checkout/api/middleware"
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCatalog struct {
	storefront *vitrine.Storefront
	err        error
	subdomain  string
}

func (s *stubCatalog) Get(ctx context.Context, subdomain string) (*vitrine.Storefront, error) {
	s.subdomain = subdomain
	return s.storefront, s.err
}

func (s *stubCatalog) Product(ctx context.Context, subdomain string, productID int64) (*vitrine.Product, error) {
	return nil, s.err
}

func TestHealthReady(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthReady("test", nil, stubPinger{})(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady("test", nil, stubPinger{err: errors.New("down")})(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady("test", nil, nil)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without redis got %d", resp.Code)
	}
}

func TestStorefrontGet(t *testing.T) {
	id := int64(12)
	svc := &stubCatalog{storefront: &vitrine.Storefront{ID: &id, Name: "Loja da Ana", Subdomain: "ana", Layout: enums.LayoutModern}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefronts/ana", nil)
	req = req.WithContext(middleware.WithSubdomain(req.Context(), "ana"))
	resp := httptest.NewRecorder()
	StorefrontGet(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.subdomain != "ana" {
		t.Fatalf("unexpected subdomain %q", svc.subdomain)
	}
	var envelope struct {
		Data vitrine.Storefront `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Name != "Loja da Ana" || envelope.Data.Layout != enums.LayoutModern {
		t.Fatalf("unexpected storefront %+v", envelope.Data)
	}
}

func TestStorefrontGetNotFound(t *testing.T) {
	svc := &stubCatalog{err: pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefronts/ghost", nil)
	req = req.WithContext(middleware.WithSubdomain(req.Context(), "ghost"))
	resp := httptest.NewRecorder()
	StorefrontGet(svc, nil)(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
