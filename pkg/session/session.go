// Package session defines the interactive session record: one reader's
// stateful traversal of a story's branches.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kahani-labs/kahani/pkg/story"
)

// SceneExcerptLen is the number of runes of enhanced content copied into
// a new session as its opening scene.
const SceneExcerptLen = 500

// Session is a reader's live traversal of one story. History is
// append-only: every transition adds a "Choice: <text>" marker followed
// by the new scene, so the full replay is reconstructable. Version
// increments on every commit and backs optimistic concurrency for
// callers that opt in.
type Session struct {
	ID             string         `json:"session_id"`
	StoryID        string         `json:"story_id"`
	CurrentScene   string         `json:"current_scene"`
	History        []string       `json:"story_history"`
	CurrentChoices []story.Choice `json:"choices"`
	Language       story.Language `json:"language"`
	Version        int64          `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// New seeds a session from a story: scene 0 is the story's opening
// excerpt, history starts with that excerpt, and the story's authored
// choices are copied with defaults for any missing fields. An empty
// authored choice list yields a session with no choices; the engine
// does not synthesize any.
func New(s *story.Story, lang story.Language) *Session {
	excerpt := s.Excerpt(SceneExcerptLen)
	choices := make([]story.Choice, len(s.Choices))
	for i, c := range s.Choices {
		if c.ID == "" {
			c.ID = fmt.Sprintf("choice_%d", i+1)
		}
		if c.Text == "" {
			c.Text = fmt.Sprintf("Choice %d", i+1)
		}
		if c.Consequence == "" {
			c.Consequence = fmt.Sprintf("You chose option %d", i+1)
		}
		choices[i] = c
	}

	now := time.Now().UTC()
	return &Session{
		ID:             uuid.New().String(),
		StoryID:        s.ID,
		CurrentScene:   excerpt,
		History:        []string{excerpt},
		CurrentChoices: choices,
		Language:       lang,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// FindChoice resolves a choice id against the current choice set only.
// Stale ids from earlier scenes are not resolvable.
func (s *Session) FindChoice(choiceID string) (story.Choice, bool) {
	for _, c := range s.CurrentChoices {
		if c.ID == choiceID {
			return c, true
		}
	}
	return story.Choice{}, false
}

// Advance commits one transition: the choice marker and the new scene
// are appended to history, and the scene and choice set are replaced
// together so a reader never sees one without the other.
func (s *Session) Advance(chosen story.Choice, newScene string, newChoices []story.Choice) {
	s.History = append(s.History, "Choice: "+chosen.Text, newScene)
	s.CurrentScene = newScene
	s.CurrentChoices = newChoices
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}
