package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

// MemoryStore implements Storage with in-process maps. It is the
// development and test backend; records are JSON round-tripped on every
// read and write so callers get value copies, matching the Redis
// implementation's semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	stories  map[string][]byte
	sessions map[string][]byte
}

var _ Storage = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stories:  make(map[string][]byte),
		sessions: make(map[string][]byte),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) SaveStory(ctx context.Context, s *story.Story) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[s.ID] = data
	return nil
}

func (m *MemoryStore) GetStory(ctx context.Context, id string) (*story.Story, error) {
	m.mu.RLock()
	data, ok := m.stories[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s story.Story
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) ListStories(ctx context.Context, filter StoryFilter) ([]*story.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stories []*story.Story
	for _, data := range m.stories {
		var s story.Story
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		if matchesFilter(&s, filter) {
			stories = append(stories, &s)
		}
	}
	return stories, nil
}

func (m *MemoryStore) DeleteStory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return ErrNotFound
	}
	delete(m.stories, id)
	return nil
}

func (m *MemoryStore) SaveSession(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = data
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}
