package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
)

func TestHealthHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	mock := services.NewMockGenerator()
	handler := NewHealthHandler(store, mock, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
	if resp.Components["storage"] != "healthy" || resp.Components["generator"] != "healthy" {
		t.Errorf("Expected healthy components, got %v", resp.Components)
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	store := storage.NewMemoryStore()
	mock := services.NewMockGenerator()
	mock.ReadyFunc = func(ctx context.Context) error {
		return errors.New("backend unavailable")
	}
	handler := NewHealthHandler(store, mock, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", resp.Status)
	}
	if resp.Components["generator"] != "unhealthy" {
		t.Errorf("Expected unhealthy generator, got %v", resp.Components)
	}
}
