package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kahani-labs/kahani/internal/engine"
	"github.com/kahani-labs/kahani/pkg/story"
)

// InteractiveHandler serves the session lifecycle endpoints.
//
// Routes:
//
//	POST   /v1/interactive/start/{story_id}        - Start a session
//	POST   /v1/interactive/choose                  - Apply a choice
//	GET    /v1/interactive/session/{id}            - Read session state
//	GET    /v1/interactive/session/{id}/history    - Full replay log
//	DELETE /v1/interactive/session/{id}            - End session
//	POST   /v1/interactive/session/{id}/restart    - Fresh session, same story
type InteractiveHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewInteractiveHandler(engine *engine.Engine, logger *slog.Logger) *InteractiveHandler {
	return &InteractiveHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *InteractiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/interactive"), "/")

	switch {
	case strings.HasPrefix(path, "start/"):
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleStart(w, r, strings.TrimPrefix(path, "start/"))

	case path == "choose":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleChoose(w, r)

	case strings.HasPrefix(path, "session/"):
		h.routeSession(w, r, strings.TrimPrefix(path, "session/"))

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown interactive endpoint")
	}
}

func (h *InteractiveHandler) routeSession(w http.ResponseWriter, r *http.Request, rest string) {
	switch {
	case strings.HasSuffix(rest, "/history"):
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		h.handleHistory(w, r, strings.TrimSuffix(rest, "/history"))

	case strings.HasSuffix(rest, "/restart"):
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleRestart(w, r, strings.TrimSuffix(rest, "/restart"))

	default:
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, rest)
		case http.MethodDelete:
			h.handleEnd(w, r, rest)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
	}
}

// writeEngineError maps engine sentinels onto HTTP statuses.
func (h *InteractiveHandler) writeEngineError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, engine.ErrStoryNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Story not found")
	case errors.Is(err, engine.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, engine.ErrInvalidChoice):
		writeError(w, h.logger, http.StatusBadRequest, "Invalid choice for current scene")
	case errors.Is(err, engine.ErrVersionConflict):
		writeError(w, h.logger, http.StatusConflict, "Session was modified by another request")
	default:
		h.logger.Error("Interactive operation failed", "error", err, "op", op)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}

type startRequest struct {
	Language story.Language `json:"language"`
}

func (h *InteractiveHandler) handleStart(w http.ResponseWriter, r *http.Request, storyID string) {
	if storyID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Story ID is required")
		return
	}

	// Body is optional; an empty body means negotiate from headers.
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess, err := h.engine.Start(r.Context(), storyID, req.Language, r.Header.Get("Accept-Language"))
	if err != nil {
		h.writeEngineError(w, err, "start")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, sess)
}

type chooseRequest struct {
	SessionID string `json:"session_id"`
	ChoiceID  string `json:"choice_id"`
	Version   int64  `json:"version,omitempty"`
}

type chooseResponse struct {
	SessionID      string         `json:"session_id"`
	PreviousChoice string         `json:"previous_choice"`
	CurrentScene   string         `json:"current_scene"`
	Choices        []story.Choice `json:"choices"`
	Version        int64          `json:"version"`
}

func (h *InteractiveHandler) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.SessionID == "" || req.ChoiceID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and choice_id are required")
		return
	}

	result, err := h.engine.Choose(r.Context(), req.SessionID, req.ChoiceID, req.Version)
	if err != nil {
		h.writeEngineError(w, err, "choose")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, chooseResponse{
		SessionID:      result.Session.ID,
		PreviousChoice: result.PreviousChoice.Text,
		CurrentScene:   result.Session.CurrentScene,
		Choices:        result.Session.CurrentChoices,
		Version:        result.Session.Version,
	})
}

func (h *InteractiveHandler) handleGet(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.engine.Get(r.Context(), sessionID)
	if err != nil {
		h.writeEngineError(w, err, "get")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sess)
}

func (h *InteractiveHandler) handleHistory(w http.ResponseWriter, r *http.Request, sessionID string) {
	history, err := h.engine.History(r.Context(), sessionID)
	if err != nil {
		h.writeEngineError(w, err, "history")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"history":    history,
	})
}

func (h *InteractiveHandler) handleEnd(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.engine.End(r.Context(), sessionID); err != nil {
		h.writeEngineError(w, err, "end")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Session ended",
	})
}

func (h *InteractiveHandler) handleRestart(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.engine.Restart(r.Context(), sessionID)
	if err != nil {
		h.writeEngineError(w, err, "restart")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, sess)
}
