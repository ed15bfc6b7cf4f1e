package repo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"inksynth/internal/domain"
)

// UserDirectoryMemory is an in-process directory for development and tests.
type UserDirectoryMemory struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

// NewUserDirectoryMemory returns a directory seeded with users.
func NewUserDirectoryMemory(users ...domain.User) *UserDirectoryMemory {
	m := &UserDirectoryMemory{users: make(map[string]domain.User), now: time.Now}
	for _, u := range users {
		m.Put(u)
	}
	return m
}

// Put stores a copy of u.
func (m *UserDirectoryMemory) Put(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = cloneUser(u)
}

// GetUser returns a copy of the stored user.
func (m *UserDirectoryMemory) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

// UpdatePublicMetadata replaces the metadata of an existing user.
func (m *UserDirectoryMemory) UpdatePublicMetadata(_ context.Context, id string, metadata json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PublicMetadata = append(json.RawMessage(nil), metadata...)
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return nil
}

func cloneUser(u domain.User) domain.User {
	u.PublicMetadata = append(json.RawMessage(nil), u.PublicMetadata...)
	if u.FirstName != nil {
		v := *u.FirstName
		u.FirstName = &v
	}
	if u.FullName != nil {
		v := *u.FullName
		u.FullName = &v
	}
	return u
}

var _ domain.UserDirectory = (*UserDirectoryMemory)(nil)
