package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
	"github.com/kahani-labs/kahani/pkg/story"
)

// maxUploadSize bounds multipart story uploads.
const maxUploadSize = 1 << 20 // 1 MB

// StoryHandler serves the story registry endpoints.
//
// Routes:
//
//	POST   /v1/stories                 - Create story from JSON input
//	POST   /v1/stories/upload          - Create story from multipart text file
//	GET    /v1/stories                 - List stories (language/story_type/culture filters)
//	GET    /v1/stories/{id}            - Read story by ID
//	PUT    /v1/stories/{id}            - Re-enhance and replace story content
//	DELETE /v1/stories/{id}            - Delete story by ID
//	POST   /v1/stories/{id}/translate  - Fork story into a target language
type StoryHandler struct {
	storage storage.Storage
	content *services.ContentService
	logger  *slog.Logger
}

func NewStoryHandler(storage storage.Storage, content *services.ContentService, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{
		storage: storage,
		content: content,
		logger:  logger,
	}
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}

	case path == "upload":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleUpload(w, r)

	case strings.HasSuffix(path, "/translate"):
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleTranslate(w, r, strings.TrimSuffix(path, "/translate"))

	default:
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, path)
		case http.MethodPut:
			h.handleUpdate(w, r, path)
		case http.MethodDelete:
			h.handleDelete(w, r, path)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT, DELETE")
		}
	}
}

// buildStory runs the enhancement pipeline over validated input and
// assembles a registry record. Interactive stories get a seed choice
// set; non-interactive stories carry none.
func (h *StoryHandler) buildStory(r *http.Request, in *story.Input) *story.Story {
	enhanced, ok := h.content.Enhance(r.Context(), in)
	if !ok {
		h.logger.Warn("Enhancement degraded to original content", "title", in.Title)
	}

	s := &story.Story{
		ID:              uuid.New().String(),
		Title:           in.Title,
		EnhancedContent: enhanced,
		Language:        in.Language,
		Culture:         in.Culture,
		StoryType:       in.StoryType,
		Interactive:     in.InteractiveEnabled(),
		CreatedAt:       time.Now().UTC(),
	}
	if s.Interactive {
		s.Choices = h.content.GenerateChoices(r.Context(), s.Excerpt(500), "")
	}
	return s
}

func (h *StoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in story.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if err := in.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	s := h.buildStory(r, &in)
	if err := h.storage.SaveStory(r.Context(), s); err != nil {
		h.logger.Error("Failed to save story", "error", err, "story_id", s.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create story")
		return
	}

	h.logger.Debug("Story created", "story_id", s.ID, "title", s.Title)
	writeJSON(w, h.logger, http.StatusCreated, s)
}

// handleUpload accepts a text file plus form fields and runs the same
// creation pipeline as the JSON endpoint.
func (h *StoryHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	in := story.Input{
		Title:          r.FormValue("title"),
		Content:        string(content),
		StoryType:      story.StoryType(r.FormValue("story_type")),
		Language:       story.Language(r.FormValue("language")),
		Culture:        r.FormValue("culture"),
		TargetAgeGroup: r.FormValue("target_age_group"),
	}
	if v := r.FormValue("interactive_enabled"); v != "" {
		enabled := v == "true" || v == "1"
		in.Interactive = &enabled
	}
	if err := in.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	s := h.buildStory(r, &in)
	if err := h.storage.SaveStory(r.Context(), s); err != nil {
		h.logger.Error("Failed to save uploaded story", "error", err, "story_id", s.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create story")
		return
	}

	h.logger.Debug("Story uploaded", "story_id", s.ID, "title", s.Title)
	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *StoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := storage.StoryFilter{
		Language:  story.Language(r.URL.Query().Get("language")),
		StoryType: story.StoryType(r.URL.Query().Get("story_type")),
		Culture:   r.URL.Query().Get("culture"),
	}

	stories, err := h.storage.ListStories(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list stories", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list stories")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"stories": stories,
		"count":   len(stories),
	})
}

func (h *StoryHandler) handleRead(w http.ResponseWriter, r *http.Request, storyID string) {
	s, err := h.storage.GetStory(r.Context(), storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to load story", "error", err, "story_id", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

// handleUpdate re-runs the enhancement pipeline over new input and
// replaces the story record in place, keeping the id and created
// timestamp. Attached media URLs survive until regeneration.
func (h *StoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request, storyID string) {
	existing, err := h.storage.GetStory(r.Context(), storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to load story for update", "error", err, "story_id", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}

	var in story.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	s := h.buildStory(r, &in)
	s.ID = existing.ID
	s.CreatedAt = existing.CreatedAt
	s.AudioURL = existing.AudioURL
	s.ImageURL = existing.ImageURL

	if err := h.storage.SaveStory(r.Context(), s); err != nil {
		h.logger.Error("Failed to save updated story", "error", err, "story_id", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to update story")
		return
	}

	h.logger.Debug("Story updated", "story_id", storyID)
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *StoryHandler) handleDelete(w http.ResponseWriter, r *http.Request, storyID string) {
	if err := h.storage.DeleteStory(r.Context(), storyID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to delete story", "error", err, "story_id", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete story")
		return
	}
	h.logger.Debug("Story deleted", "story_id", storyID)
	w.WriteHeader(http.StatusNoContent)
}

// handleTranslate forks a story into a target language under a new id.
// The source story is never mutated. Translation failure degrades to
// the original content rather than failing the request.
func (h *StoryHandler) handleTranslate(w http.ResponseWriter, r *http.Request, storyID string) {
	target := story.Language(r.URL.Query().Get("target"))
	if !target.IsValid() {
		writeError(w, h.logger, http.StatusBadRequest, "target query parameter must be a supported language")
		return
	}

	src, err := h.storage.GetStory(r.Context(), storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error("Failed to load story for translation", "error", err, "story_id", storyID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}

	translated := *src
	translated.ID = uuid.New().String()
	translated.Language = target
	translated.EnhancedContent = h.content.Translate(r.Context(), src.EnhancedContent, target)
	translated.AudioURL = ""
	translated.ImageURL = ""
	translated.CreatedAt = time.Now().UTC()

	if err := h.storage.SaveStory(r.Context(), &translated); err != nil {
		h.logger.Error("Failed to save translated story", "error", err, "story_id", translated.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save translated story")
		return
	}

	h.logger.Debug("Story translated", "source_id", storyID, "story_id", translated.ID, "language", target)
	writeJSON(w, h.logger, http.StatusCreated, &translated)
}
