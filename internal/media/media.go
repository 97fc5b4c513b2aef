// Package media coordinates background narration and illustration
// generation. Requests return immediately with a provisional id and a
// deterministic target location; generation proceeds in the background
// and publishes media URLs back onto story records when derived from a
// story.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
	"github.com/kahani-labs/kahani/pkg/story"
)

// Task states. Queued and running both surface as "processing" on the
// wire; completed carries the file size and a fallback flag so clients
// can tell placeholder output from real output.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	TypeAudio = "audio"
	TypeImage = "image"
)

// ErrStoryNotFound mirrors the registry miss for story-derived media.
var ErrStoryNotFound = errors.New("story not found")

// Task is the handle for one background generation. It is updated in
// place by the worker goroutine under the service mutex.
type Task struct {
	ID        string    `json:"media_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Path      string    `json:"-"`
	URL       string    `json:"url"`
	Fallback  bool      `json:"fallback,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AudioRequest asks for narration of story text.
type AudioRequest struct {
	Text       string         `json:"text"`
	Language   story.Language `json:"language"`
	VoiceStyle string         `json:"voice_style"`
}

// Validate fills defaults and rejects malformed input.
func (r *AudioRequest) Validate() error {
	if r.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if r.Language == "" {
		r.Language = story.LanguageEnglish
	}
	if !r.Language.IsValid() {
		return fmt.Errorf("invalid language: %q", r.Language)
	}
	if r.VoiceStyle == "" {
		r.VoiceStyle = "narrative"
	}
	switch r.VoiceStyle {
	case "narrative", "dramatic", "calm", "energetic":
	default:
		return fmt.Errorf("invalid voice style: %q", r.VoiceStyle)
	}
	return nil
}

// VisualRequest asks for an illustration of a scene.
type VisualRequest struct {
	Description  string `json:"description"`
	StoryContext string `json:"story_context"`
	Style        string `json:"style"`
}

// Validate fills defaults and rejects malformed input.
func (r *VisualRequest) Validate() error {
	if r.Description == "" {
		return fmt.Errorf("description cannot be empty")
	}
	if r.Style == "" {
		r.Style = "illustration"
	}
	switch r.Style {
	case "illustration", "realistic", "cartoon", "traditional_art":
	default:
		return fmt.Errorf("invalid style: %q", r.Style)
	}
	return nil
}

// Service orchestrates media generation. The task registry is
// in-process; an unknown id (service restarted) degrades to a
// file-existence probe at the deterministic target path.
type Service struct {
	store    storage.Storage
	content  *services.ContentService
	audio    services.AudioGenerator
	image    services.ImageGenerator
	mediaDir string
	logger   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*Task

	// attachMu serializes story-record updates from completion
	// callbacks. The audio and image goroutines finish independently;
	// an unserialized read-modify-write would let the second save
	// overwrite the first's URL with the empty value it read.
	attachMu sync.Mutex
}

// NewService creates a media orchestration service writing under
// mediaDir (audio/ and images/ subdirectories).
func NewService(store storage.Storage, content *services.ContentService, audio services.AudioGenerator, image services.ImageGenerator, mediaDir string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		content:  content,
		audio:    audio,
		image:    image,
		mediaDir: mediaDir,
		logger:   logger,
		tasks:    make(map[string]*Task),
	}
}

func (s *Service) audioPath(id string) string {
	return filepath.Join(s.mediaDir, "audio", fmt.Sprintf("audio_%s.mp3", id))
}

func (s *Service) imagePath(id string) string {
	return filepath.Join(s.mediaDir, "images", fmt.Sprintf("image_%s.png", id))
}

func audioURL(id string) string {
	return fmt.Sprintf("/static/audio/audio_%s.mp3", id)
}

func imageURL(id string) string {
	return fmt.Sprintf("/static/images/image_%s.png", id)
}

// newTask registers a queued task. Target path and URL are derived
// from the task's own id so Status can probe the path after a restart.
func (s *Service) newTask(mediaType string) *Task {
	now := time.Now().UTC()
	t := &Task{
		ID:        uuid.New().String(),
		Type:      mediaType,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mediaType == TypeAudio {
		t.Path = s.audioPath(t.ID)
		t.URL = audioURL(t.ID)
	} else {
		t.Path = s.imagePath(t.ID)
		t.URL = imageURL(t.ID)
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	return t
}

func (s *Service) setStatus(id, status string, fallback bool, fileSize int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	t.Status = status
	t.Fallback = fallback
	t.FileSize = fileSize
	t.UpdatedAt = time.Now().UTC()
}

// GenerateAudio schedules narration and returns immediately. The
// returned task id resolves through Status while the background worker
// runs detached from the request context.
func (s *Service) GenerateAudio(req AudioRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := s.newTask(TypeAudio)
	go s.runAudio(t.ID, t.Path, req, nil)
	return t, nil
}

// GenerateVisual enhances the description synchronously (part of the
// response contract), then schedules illustration. The enhanced
// description is returned alongside the task.
func (s *Service) GenerateVisual(ctx context.Context, req VisualRequest) (*Task, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	description := s.content.DescribeVisual(ctx, req.Description, req.StoryContext)

	t := s.newTask(TypeImage)
	go s.runImage(t.ID, t.Path, description, req.Style, nil)
	return t, description, nil
}

// StoryMediaResult reports the scheduled composite generation.
type StoryMediaResult struct {
	StoryID  string `json:"story_id"`
	AudioID  string `json:"audio_id"`
	ImageID  string `json:"image_id"`
	AudioURL string `json:"audio_url"`
	ImageURL string `json:"image_url"`
}

// GenerateStoryMedia derives narration from the story's full enhanced
// content and an illustration from its opening plus cultural context,
// runs both independently, and publishes the media URLs back onto the
// story record as each completes. If the story is deleted before a
// completion lands, that update is silently dropped.
func (s *Service) GenerateStoryMedia(ctx context.Context, storyID string) (*StoryMediaResult, error) {
	st, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	audioReq := AudioRequest{
		Text:       st.EnhancedContent,
		Language:   st.Language,
		VoiceStyle: "narrative",
	}
	if err := audioReq.Validate(); err != nil {
		return nil, err
	}

	storyContext := fmt.Sprintf("%s %s", st.Culture, st.StoryType)
	description := s.content.DescribeVisual(ctx, st.Excerpt(200), storyContext)

	audioTask := s.newTask(TypeAudio)
	imageTask := s.newTask(TypeImage)

	go s.runAudio(audioTask.ID, audioTask.Path, audioReq, func(url string) {
		s.attachStoryMedia(storyID, url, "")
	})
	go s.runImage(imageTask.ID, imageTask.Path, description, "illustration", func(url string) {
		s.attachStoryMedia(storyID, "", url)
	})

	return &StoryMediaResult{
		StoryID:  storyID,
		AudioID:  audioTask.ID,
		ImageID:  imageTask.ID,
		AudioURL: audioTask.URL,
		ImageURL: imageTask.URL,
	}, nil
}

// runAudio executes one narration task. It runs detached from the
// triggering request; the generation client's own timeout bounds it.
func (s *Service) runAudio(taskID, path string, req AudioRequest, onDone func(url string)) {
	s.setStatus(taskID, StatusRunning, false, 0)

	ok := s.audio.GenerateAudio(context.Background(), req.Text, req.Language, req.VoiceStyle, path)
	s.finish(taskID, path, ok)

	if onDone != nil {
		onDone(audioURL(taskID))
	}
}

func (s *Service) runImage(taskID, path, description, style string, onDone func(url string)) {
	s.setStatus(taskID, StatusRunning, false, 0)

	ok := s.image.GenerateImage(context.Background(), description, style, path)
	s.finish(taskID, path, ok)

	if onDone != nil {
		onDone(imageURL(taskID))
	}
}

// finish records the terminal state. The adapters guarantee a file at
// the target even on backend failure; a missing file means the write
// itself failed, which is the only true failure state.
func (s *Service) finish(taskID, path string, ok bool) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Error("Media task left no output file", "task_id", taskID, "path", path)
		s.setStatus(taskID, StatusFailed, false, 0)
		return
	}
	s.setStatus(taskID, StatusCompleted, !ok, info.Size())
}

// attachStoryMedia publishes a completed media URL onto the story
// record. A registry miss means the story was deleted mid-generation;
// the update is dropped without recreating the record.
func (s *Service) attachStoryMedia(storyID, audioURL, imageURL string) {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Failed to load story for media update", "story_id", storyID, "error", err)
		}
		return
	}

	if audioURL != "" {
		st.AudioURL = audioURL
	}
	if imageURL != "" {
		st.ImageURL = imageURL
	}
	if err := s.store.SaveStory(ctx, st); err != nil {
		s.logger.Error("Failed to attach media to story", "story_id", storyID, "error", err)
	}
}

// StatusResult is the polled view of a generation.
type StatusResult struct {
	MediaID  string `json:"media_id"`
	Status   string `json:"status"`
	FileSize int64  `json:"file_size,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Status reports a task's progress. Queued and running collapse to
// "processing". Ids unknown to the registry fall back to probing the
// deterministic target path, which covers service restarts.
func (s *Service) Status(mediaID, mediaType string) (*StatusResult, error) {
	if mediaType != TypeAudio && mediaType != TypeImage {
		return nil, fmt.Errorf("invalid media type: %q", mediaType)
	}

	s.mu.Lock()
	t, ok := s.tasks[mediaID]
	s.mu.Unlock()

	if ok {
		switch t.Status {
		case StatusCompleted:
			return &StatusResult{MediaID: mediaID, Status: StatusCompleted, FileSize: t.FileSize, Fallback: t.Fallback}, nil
		case StatusFailed:
			return &StatusResult{MediaID: mediaID, Status: StatusFailed}, nil
		default:
			return &StatusResult{MediaID: mediaID, Status: "processing"}, nil
		}
	}

	path := s.audioPath(mediaID)
	if mediaType == TypeImage {
		path = s.imagePath(mediaID)
	}
	info, err := os.Stat(path)
	if err != nil {
		return &StatusResult{MediaID: mediaID, Status: "processing"}, nil
	}
	return &StatusResult{MediaID: mediaID, Status: StatusCompleted, FileSize: info.Size()}, nil
}
