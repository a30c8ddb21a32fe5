package store

import (
	"context"
	"sort"
	"sync"

	"kitapsever/pkg/domain"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	byEmail  map[string]string
	comments map[string][]domain.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		byEmail:  make(map[string]string),
		comments: make(map[string][]domain.Comment),
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrDuplicateEmail
	}
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUserEmail(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) AddComment(_ context.Context, c domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[c.BookID] = append(m.comments[c.BookID], c)
	return nil
}

func (m *MemoryStore) ListCommentsByBook(_ context.Context, bookID string) ([]domain.Comment, error) {
	m.mu.RLock()
	src := m.comments[bookID]
	out := make([]domain.Comment, len(src))
	copy(out, src)
	m.mu.RUnlock()
	// stable so equal timestamps keep reverse insertion order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
