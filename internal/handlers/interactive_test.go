package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kahani-labs/kahani/internal/engine"
	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

func setupInteractiveHandler(t *testing.T) (*InteractiveHandler, storage.Storage, *services.MockGenerator) {
	t.Helper()
	store := storage.NewMemoryStore()
	mock := services.NewMockGenerator()
	content := services.NewContentService(mock, testLogger())
	eng := engine.New(store, content, testLogger())
	seedStory(t, store, "story-1")
	return NewInteractiveHandler(eng, testLogger()), store, mock
}

func startTestSession(t *testing.T, handler *InteractiveHandler, storyID string) *session.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/interactive/start/"+storyID, strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 starting session, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var sess session.Session
	if err := json.NewDecoder(rr.Body).Decode(&sess); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	return &sess
}

func TestInteractiveHandler_Start(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)

	sess := startTestSession(t, handler, "story-1")
	if sess.ID == "" {
		t.Error("Expected non-empty session id")
	}
	if len(sess.History) != 1 {
		t.Errorf("Expected history of length 1, got %d", len(sess.History))
	}
	if sess.Version != 1 {
		t.Errorf("Expected version 1, got %d", sess.Version)
	}
}

func TestInteractiveHandler_StartResponseKeys(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/interactive/start/story-1", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	for _, key := range []string{"session_id", "current_scene", "choices", "language", "version"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected response key %q, got keys %v", key, rawKeys(raw))
		}
	}
}

func rawKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestInteractiveHandler_StartEmptyBody(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/interactive/start/story-1", nil)
	req.Header.Set("Accept-Language", "hi-IN, en;q=0.5")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var sess session.Session
	if err := json.NewDecoder(rr.Body).Decode(&sess); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	if sess.Language != story.LanguageHindi {
		t.Errorf("Expected negotiated language hi, got %s", sess.Language)
	}
}

func TestInteractiveHandler_StartUnknownStory(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/interactive/start/missing", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
}

func TestInteractiveHandler_Choose(t *testing.T) {
	handler, _, mock := setupInteractiveHandler(t)
	sess := startTestSession(t, handler, "story-1")

	mock.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "JSON array") {
			return `[{"choice_id": "next", "choice_text": "Keep going", "consequence": "onward"}]`, nil
		}
		return "The water crept upward.", nil
	}

	reqBody := fmt.Sprintf(`{"session_id":%q,"choice_id":"drop_stones"}`, sess.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/interactive/choose", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var resp chooseResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.PreviousChoice != "Drop stones" {
		t.Errorf("Expected previous choice text, got %q", resp.PreviousChoice)
	}
	if resp.CurrentScene != "The water crept upward." {
		t.Errorf("Expected new scene, got %q", resp.CurrentScene)
	}
	if resp.Version != 2 {
		t.Errorf("Expected version 2, got %d", resp.Version)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].ID != "next" {
		t.Error("Expected replaced choice set")
	}
}

func TestInteractiveHandler_ChooseErrors(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)
	sess := startTestSession(t, handler, "story-1")

	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
	}{
		{
			name:           "invalid json",
			requestBody:    `{not json`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing fields",
			requestBody:    `{"session_id":""}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown session",
			requestBody:    `{"session_id":"missing","choice_id":"drop_stones"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid choice",
			requestBody:    fmt.Sprintf(`{"session_id":%q,"choice_id":"not_a_choice"}`, sess.ID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "version conflict",
			requestBody:    fmt.Sprintf(`{"session_id":%q,"choice_id":"drop_stones","version":99}`, sess.ID),
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/interactive/choose", strings.NewReader(tt.requestBody))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestInteractiveHandler_GetSession(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)
	sess := startTestSession(t, handler, "story-1")

	req := httptest.NewRequest(http.MethodGet, "/v1/interactive/session/"+sess.ID, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var got session.Session
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("Expected session %s, got %s", sess.ID, got.ID)
	}
}

func TestInteractiveHandler_History(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)
	sess := startTestSession(t, handler, "story-1")

	req := httptest.NewRequest(http.MethodGet, "/v1/interactive/session/"+sess.ID+"/history", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp struct {
		SessionID string   `json:"session_id"`
		History   []string `json:"history"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.SessionID != sess.ID {
		t.Errorf("Expected session id %s, got %s", sess.ID, resp.SessionID)
	}
	if len(resp.History) != 1 {
		t.Errorf("Expected history of length 1, got %d", len(resp.History))
	}
}

func TestInteractiveHandler_Restart(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)
	sess := startTestSession(t, handler, "story-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/interactive/session/"+sess.ID+"/restart", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var fresh session.Session
	if err := json.NewDecoder(rr.Body).Decode(&fresh); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	if fresh.ID == sess.ID {
		t.Error("Expected a new session id on restart")
	}

	// Old session is gone
	req = httptest.NewRequest(http.MethodGet, "/v1/interactive/session/"+sess.ID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for old session, got %d", rr.Code)
	}
}

func TestInteractiveHandler_End(t *testing.T) {
	handler, _, _ := setupInteractiveHandler(t)
	sess := startTestSession(t, handler, "story-1")

	req := httptest.NewRequest(http.MethodDelete, "/v1/interactive/session/"+sess.ID, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	// Second delete reports not found
	req = httptest.NewRequest(http.MethodDelete, "/v1/interactive/session/"+sess.ID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", rr.Code)
	}
}
