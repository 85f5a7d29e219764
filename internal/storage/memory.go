package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store. It backs tests and
// dependency-free development runs.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries map[string]*Summary
	users     map[string]*User
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[string]*Summary),
		users:     make(map[string]*User),
	}
}

// CreateSummary stores a copy of the record.
func (m *MemoryStore) CreateSummary(_ context.Context, s *Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Participants = append([]string(nil), s.Participants...)
	m.summaries[s.ID] = &cp
	return nil
}

// GetSummary fetches one record by ID.
func (m *MemoryStore) GetSummary(_ context.Context, id string) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	cp.Participants = append([]string(nil), s.Participants...)
	return &cp, nil
}

// ListSummariesByParticipant returns matching records newest first.
func (m *MemoryStore) ListSummariesByParticipant(_ context.Context, participantID string) ([]*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Summary
	for _, s := range m.summaries {
		if s.HasParticipant(participantID) {
			cp := *s
			cp.Participants = append([]string(nil), s.Participants...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteSummary removes one record.
func (m *MemoryStore) DeleteSummary(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.summaries[id]; !ok {
		return ErrNotFound
	}
	delete(m.summaries, id)
	return nil
}

// CreateUser stores a new account, enforcing unique emails.
func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// GetUser fetches one account by ID.
func (m *MemoryStore) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail fetches one account by email (case-insensitive).
func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
