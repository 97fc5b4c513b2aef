package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kahani-labs/kahani/internal/media"
	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
)

func setupMediaHandler(t *testing.T) (*MediaHandler, storage.Storage) {
	t.Helper()
	store := storage.NewMemoryStore()
	gen := services.NewMockGenerator()
	gen.SetResponse("A vivid cultural scene.")
	content := services.NewContentService(gen, testLogger())

	svc := media.NewService(store, content,
		&services.MockAudioGenerator{}, &services.MockImageGenerator{},
		t.TempDir(), testLogger())
	return NewMediaHandler(svc, testLogger()), store
}

func pollStatus(t *testing.T, handler *MediaHandler, mediaID, mediaType string) media.StatusResult {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/v1/media/status/"+mediaID+"?type="+mediaType, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
		}

		var status media.StatusResult
		if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		if status.Status != "processing" {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for media task")
	return media.StatusResult{}
}

func TestMediaHandler_GenerateAudio(t *testing.T) {
	handler, _ := setupMediaHandler(t)

	reqBody := `{"text":"Once upon a time","language":"en","voice_style":"narrative"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/media/generate-audio", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		MediaID string `json:"media_id"`
		Status  string `json:"status"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.MediaID == "" {
		t.Error("Expected non-empty media id")
	}
	if resp.Status != "generating" {
		t.Errorf("Expected status generating, got %s", resp.Status)
	}
	if !strings.HasPrefix(resp.URL, "/static/audio/") {
		t.Errorf("Expected static audio URL, got %s", resp.URL)
	}

	status := pollStatus(t, handler, resp.MediaID, "audio")
	if status.Status != media.StatusCompleted {
		t.Errorf("Expected completed, got %s", status.Status)
	}
	if status.FileSize == 0 {
		t.Error("Expected non-zero file size")
	}
}

func TestMediaHandler_GenerateAudioValidation(t *testing.T) {
	handler, _ := setupMediaHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/media/generate-audio", strings.NewReader(`{"text":""}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestMediaHandler_GenerateVisual(t *testing.T) {
	handler, _ := setupMediaHandler(t)

	reqBody := `{"description":"a crow by a pitcher","style":"illustration"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/media/generate-visual", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		MediaID     string `json:"media_id"`
		Description string `json:"description"`
		URL         string `json:"url"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Description != "A vivid cultural scene." {
		t.Errorf("Expected enhanced description, got %q", resp.Description)
	}
	if !strings.HasPrefix(resp.URL, "/static/images/") {
		t.Errorf("Expected static image URL, got %s", resp.URL)
	}

	status := pollStatus(t, handler, resp.MediaID, "image")
	if status.Status != media.StatusCompleted {
		t.Errorf("Expected completed, got %s", status.Status)
	}
}

func TestMediaHandler_StoryMedia(t *testing.T) {
	handler, store := setupMediaHandler(t)
	seedStory(t, store, "story-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/media/story/story-1/generate-complete-media", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var result media.StoryMediaResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.AudioID == "" || result.ImageID == "" {
		t.Error("Expected both media ids")
	}

	pollStatus(t, handler, result.AudioID, "audio")
	pollStatus(t, handler, result.ImageID, "image")
}

func TestMediaHandler_StoryMediaUnknownStory(t *testing.T) {
	handler, _ := setupMediaHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/media/story/missing/generate-complete-media", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestMediaHandler_StatusInvalidType(t *testing.T) {
	handler, _ := setupMediaHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/media/status/some-id?type=video", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}
