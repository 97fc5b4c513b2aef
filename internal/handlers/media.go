package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kahani-labs/kahani/internal/media"
)

// MediaHandler serves the media generation endpoints. Generation is
// asynchronous: POST endpoints answer 202 with a media id and the
// deterministic URL; clients poll the status endpoint.
//
// Routes:
//
//	POST /v1/media/generate-audio                       - Narrate text
//	POST /v1/media/generate-visual                      - Illustrate a scene
//	GET  /v1/media/status/{id}?type=audio|image         - Poll a generation
//	POST /v1/media/story/{id}/generate-complete-media   - Audio + image for a story
type MediaHandler struct {
	media  *media.Service
	logger *slog.Logger
}

func NewMediaHandler(media *media.Service, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		media:  media,
		logger: logger,
	}
}

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/media"), "/")

	switch {
	case path == "generate-audio":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleGenerateAudio(w, r)

	case path == "generate-visual":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleGenerateVisual(w, r)

	case strings.HasPrefix(path, "status/"):
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		h.handleStatus(w, r, strings.TrimPrefix(path, "status/"))

	case strings.HasPrefix(path, "story/") && strings.HasSuffix(path, "/generate-complete-media"):
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		storyID := strings.TrimSuffix(strings.TrimPrefix(path, "story/"), "/generate-complete-media")
		h.handleStoryMedia(w, r, storyID)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown media endpoint")
	}
}

type mediaQueuedResponse struct {
	MediaID     string `json:"media_id"`
	Status      string `json:"status"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

func (h *MediaHandler) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req media.AudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	task, err := h.media.GenerateAudio(req)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug("Audio generation queued", "media_id", task.ID)
	writeJSON(w, h.logger, http.StatusAccepted, mediaQueuedResponse{
		MediaID: task.ID,
		Status:  "generating",
		URL:     task.URL,
	})
}

func (h *MediaHandler) handleGenerateVisual(w http.ResponseWriter, r *http.Request) {
	var req media.VisualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	task, description, err := h.media.GenerateVisual(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug("Visual generation queued", "media_id", task.ID)
	writeJSON(w, h.logger, http.StatusAccepted, mediaQueuedResponse{
		MediaID:     task.ID,
		Status:      "generating",
		URL:         task.URL,
		Description: description,
	})
}

func (h *MediaHandler) handleStatus(w http.ResponseWriter, r *http.Request, mediaID string) {
	if mediaID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Media ID is required")
		return
	}

	mediaType := r.URL.Query().Get("type")
	if mediaType == "" {
		mediaType = media.TypeAudio
	}

	status, err := h.media.Status(mediaID, mediaType)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, status)
}

func (h *MediaHandler) handleStoryMedia(w http.ResponseWriter, r *http.Request, storyID string) {
	if storyID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Story ID is required")
		return
	}

	result, err := h.media.GenerateStoryMedia(r.Context(), storyID)
	if err != nil {
		if errors.Is(err, media.ErrStoryNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to queue story media", "error", err, "story_id", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to queue media generation")
		return
	}

	h.logger.Debug("Story media generation queued", "story_id", storyID)
	writeJSON(w, h.logger, http.StatusAccepted, result)
}
