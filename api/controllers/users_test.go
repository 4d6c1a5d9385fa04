package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/northwindlabs/storefront/api/middleware"
	"github.com/northwindlabs/storefront/internal/users"
)

type stubUsersService struct {
	profile    *users.UserDTO
	page       *users.UserPage
	err        error
	lastActive *bool
}

func (s *stubUsersService) GetProfile(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return s.profile, s.err
}

func (s *stubUsersService) UpdateProfile(context.Context, uuid.UUID, users.UpdateProfileInput) (*users.UserDTO, error) {
	return s.profile, s.err
}

func (s *stubUsersService) List(context.Context, string, int) (*users.UserPage, error) {
	return s.page, s.err
}

func (s *stubUsersService) SetActive(_ context.Context, _ uuid.UUID, active bool) (*users.UserDTO, error) {
	s.lastActive = &active
	return s.profile, s.err
}

func TestMeRequiresIdentity(t *testing.T) {
	handler := Me(&stubUsersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminSetUserActiveRejectsMissingFlag(t *testing.T) {
	svc := &stubUsersService{}
	handler := AdminSetUserActive(svc, nil)

	userID := uuid.New()
	body, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/users/"+userID.String()+"/active", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", userID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastActive != nil {
		t.Fatalf("service should not be called when the flag is missing")
	}
}

func TestAdminSetUserActiveDisablesAccount(t *testing.T) {
	profile := &users.UserDTO{ID: uuid.New(), Email: "shopper@example.com", IsActive: false}
	svc := &stubUsersService{profile: profile}
	handler := AdminSetUserActive(svc, nil)

	body, _ := json.Marshal(map[string]bool{"active": false})
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/users/"+profile.ID.String()+"/active", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", profile.ID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastActive == nil || *svc.lastActive {
		t.Fatalf("expected SetActive(false) to be forwarded")
	}

	var envelope struct {
		Data users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.IsActive {
		t.Fatalf("expected inactive account in response")
	}
}
