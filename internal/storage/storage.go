// Package storage provides the persistence boundary for stories and
// interactive sessions. The engine and handlers depend on the Storage
// interface only, so the Redis implementation can be swapped for any
// durable key-value backing without touching engine logic.
package storage

import (
	"context"
	"errors"

	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

// ErrNotFound is returned when a story or session id does not resolve.
var ErrNotFound = errors.New("record not found")

// StoryFilter narrows ListStories results. Zero values match everything.
type StoryFilter struct {
	Language  story.Language
	StoryType story.StoryType
	Culture   string // case-insensitive substring match
}

// StoryReader is the read-only story lookup the session engine depends
// on. The engine never reaches into registry internals.
type StoryReader interface {
	// GetStory retrieves a story by id. Returns ErrNotFound if absent.
	GetStory(ctx context.Context, id string) (*story.Story, error)
}

// Storage defines persistence for the story registry and session engine.
// Reads return copies, never live handles into the store.
type Storage interface {
	StoryReader

	// Ping tests the backing connection
	Ping(ctx context.Context) error

	// Close closes the backing connection
	Close() error

	// SaveStory writes a story record wholesale.
	SaveStory(ctx context.Context, s *story.Story) error

	// ListStories returns stories matching the filter, unordered.
	ListStories(ctx context.Context, filter StoryFilter) ([]*story.Story, error)

	// DeleteStory removes a story by id. Returns ErrNotFound if absent.
	DeleteStory(ctx context.Context, id string) error

	// SaveSession writes a session record wholesale.
	SaveSession(ctx context.Context, s *session.Session) error

	// GetSession retrieves a session by id. Returns ErrNotFound if absent.
	GetSession(ctx context.Context, id string) (*session.Session, error)

	// DeleteSession removes a session by id. Returns ErrNotFound if absent.
	DeleteSession(ctx context.Context, id string) error
}
