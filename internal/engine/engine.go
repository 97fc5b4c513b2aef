// Package engine implements the interactive narrative session engine:
// the state machine that owns session records, mediates choice selection
// against generated branches, and drives continuation generation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

var (
	// ErrStoryNotFound signals an unresolvable story id.
	ErrStoryNotFound = errors.New("story not found")

	// ErrSessionNotFound signals an unresolvable session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidChoice signals a choice id absent from the session's
	// current choice set. Stale ids from prior scenes land here too.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrVersionConflict signals a stale version token on a session
	// mutation. Only returned to callers that present a version.
	ErrVersionConflict = errors.New("session version conflict")
)

// Engine owns interactive session records. Sessions are committed
// wholesale per operation; two unserialized writers on the same session
// id get last-writer-wins unless they opt into version tokens.
type Engine struct {
	store   storage.Storage
	content *services.ContentService
	logger  *slog.Logger
}

// New creates a session engine.
func New(store storage.Storage, content *services.ContentService, logger *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		content: content,
		logger:  logger,
	}
}

// ChooseResult is the outcome of a successful choice transition.
type ChooseResult struct {
	Session        *session.Session
	PreviousChoice story.Choice
}

// resolveLanguage applies the display-language precedence: explicit
// request, then transport negotiation, then the story's own language,
// then english.
func resolveLanguage(requested story.Language, acceptLanguage string, s *story.Story) story.Language {
	if requested.IsValid() {
		return requested
	}
	if acceptLanguage != "" {
		return story.Negotiate(acceptLanguage)
	}
	if s.Language.IsValid() {
		return s.Language
	}
	return story.LanguageEnglish
}

// Start creates a session for a story. The opening scene is the story's
// leading excerpt, history begins with that excerpt, and the story's
// authored choices seed the current set. A story with no authored
// choices yields an ACTIVE session with an empty choice set; the engine
// does not synthesize choices at start.
func (e *Engine) Start(ctx context.Context, storyID string, requestedLang story.Language, acceptLanguage string) (*session.Session, error) {
	s, err := e.store.GetStory(ctx, storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	sess := session.New(s, resolveLanguage(requestedLang, acceptLanguage, s))
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.logger.Debug("Session started",
		"session_id", sess.ID,
		"story_id", storyID,
		"language", sess.Language,
		"choices", len(sess.CurrentChoices))
	return sess, nil
}

// Choose advances a session by one transition. The choice id must
// resolve against the current choice set; on a miss the session is left
// untouched. A non-zero version is checked against the stored record
// before any generation happens. Scene and choices are replaced in a
// single commit so readers never observe one without the other.
func (e *Engine) Choose(ctx context.Context, sessionID, choiceID string, version int64) (*ChooseResult, error) {
	sess, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if version != 0 && version != sess.Version {
		return nil, ErrVersionConflict
	}

	chosen, ok := sess.FindChoice(choiceID)
	if !ok {
		return nil, ErrInvalidChoice
	}

	newScene := e.content.ContinueStory(ctx, sess.History, chosen.Consequence)
	newChoices := e.content.GenerateChoices(ctx, newScene, "")

	sess.Advance(chosen, newScene, newChoices)
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.logger.Debug("Choice applied",
		"session_id", sessionID,
		"choice_id", choiceID,
		"history_len", len(sess.History))
	return &ChooseResult{Session: sess, PreviousChoice: chosen}, nil
}

// Restart replaces a session with a fresh one for the same story,
// keeping the reader's resolved display language. The old record is
// deleted and the new session always carries a new id. Restart fails
// with ErrStoryNotFound if the story was deleted after the session was
// created.
func (e *Engine) Restart(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	storyID := sess.StoryID
	if err := e.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	return e.Start(ctx, storyID, sess.Language, "")
}

// End destroys a session. A second End on the same id reports
// ErrSessionNotFound.
func (e *Engine) End(ctx context.Context, sessionID string) error {
	if err := e.store.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	e.logger.Debug("Session ended", "session_id", sessionID)
	return nil
}

// Get returns the session record, read-only.
func (e *Engine) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.getSession(ctx, sessionID)
}

// History returns the session's full replay log, choice markers
// included.
func (e *Engine) History(ctx context.Context, sessionID string) ([]string, error) {
	sess, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

func (e *Engine) getSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}
