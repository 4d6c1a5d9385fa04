package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/northwindlabs/storefront/api/middleware"
	cartsvc "github.com/northwindlabs/storefront/internal/cart"
	"github.com/northwindlabs/storefront/pkg/enums"
	"github.com/northwindlabs/storefront/pkg/logger"
)

type guestStoreStub struct {
	items map[string][]cartsvc.GuestItem
}

func (s *guestStoreStub) Load(_ context.Context, token string) ([]cartsvc.GuestItem, error) {
	return s.items[token], nil
}

func (s *guestStoreStub) Save(_ context.Context, token string, items []cartsvc.GuestItem) error {
	s.items[token] = items
	return nil
}

func (s *guestStoreStub) Clear(_ context.Context, token string) error {
	delete(s.items, token)
	return nil
}

type gatewayStub struct{}

func (gatewayStub) List(context.Context, uuid.UUID) ([]cartsvc.Line, error) { return nil, nil }
func (gatewayStub) Upsert(context.Context, uuid.UUID, uuid.UUID, *uuid.UUID, int) error {
	return nil
}
func (gatewayStub) DeleteLine(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (gatewayStub) DeleteAll(context.Context, uuid.UUID) error             { return nil }

type loaderStub struct {
	snapshots map[uuid.UUID]*cartsvc.ProductSnapshot
}

func (s loaderStub) Snapshot(_ context.Context, productID uuid.UUID, _ *uuid.UUID) (*cartsvc.ProductSnapshot, error) {
	return s.snapshots[productID], nil
}

func newTestEngine(t *testing.T, store cartsvc.GuestStore, loader cartsvc.ProductLoader) *cartsvc.Engine {
	t.Helper()
	engine, err := cartsvc.NewEngine(cartsvc.EngineParams{
		GuestStore: store,
		Gateway:    gatewayStub{},
		Products:   loader,
		Logger:     logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestCartFetchGuestCart(t *testing.T) {
	productID := uuid.New()
	store := &guestStoreStub{items: map[string][]cartsvc.GuestItem{
		"guest-1": {{ID: uuid.NewString(), ProductID: productID, Quantity: 2, AddedAt: time.Now()}},
	}}
	loader := loaderStub{snapshots: map[uuid.UUID]*cartsvc.ProductSnapshot{
		productID: {
			ProductID:      productID,
			Name:           "Canvas Tote",
			UnitPriceCents: 1500,
			Stock:          10,
			Published:      true,
			Currency:       enums.CurrencyUSD,
		},
	}}
	handler := CartFetch(newTestEngine(t, store, loader), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-1"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.Cart `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalCents != 3000 {
		t.Fatalf("expected total 3000 got %d", envelope.Data.TotalCents)
	}
	if envelope.Data.ItemCount != 2 {
		t.Fatalf("expected item count 2 got %d", envelope.Data.ItemCount)
	}
}

func TestCartFetchMissingOwner(t *testing.T) {
	handler := CartFetch(newTestEngine(t, &guestStoreStub{}, loaderStub{}), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	handler := CartAddItem(newTestEngine(t, &guestStoreStub{}, loaderStub{}), nil)

	body, _ := json.Marshal(map[string]any{
		"product_id": uuid.NewString(),
		"quantity":   0,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-1"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartBuyNowAnonymousRejected(t *testing.T) {
	productID := uuid.New()
	store := &guestStoreStub{items: map[string][]cartsvc.GuestItem{}}
	handler := CartBuyNow(newTestEngine(t, store, loaderStub{}), nil)

	body, _ := json.Marshal(map[string]any{"product_id": productID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/buy-now", bytes.NewReader(body))
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-1"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if len(store.items["guest-1"]) != 0 {
		t.Fatalf("anonymous buy-now must not touch the guest cart")
	}
}
