package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*User
	sessions map[string]*Session
	uploads  map[string]*Upload
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		users:    make(map[string]*User),
		sessions: make(map[string]*Session),
		uploads:  make(map[string]*Upload),
	}
}

func (s *InMemoryStore) CreateUser(_ context.Context, email, passwordHash, fullName string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *InMemoryStore) UserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) UserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *InMemoryStore) CreateSession(_ context.Context, userID, title, question string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Question:  question,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return cloneSession(sess), nil
}

func (s *InMemoryStore) SessionByID(_ context.Context, id, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneSession(sess), nil
}

func (s *InMemoryStore) ListSessions(_ context.Context, userID string, limit, offset int) ([]*Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			all = append(all, cloneSession(sess))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStore) CompleteSession(_ context.Context, id, userID string, c Completion) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	sess.Transcript = c.Transcript
	sess.AudioKey = c.AudioKey
	sess.DurationSeconds = c.DurationSeconds
	fb := c.Feedback
	sess.Feedback = &fb
	sess.UpdatedAt = now
	sess.CompletedAt = &now
	return cloneSession(sess), nil
}

func (s *InMemoryStore) CreateUpload(_ context.Context, userID, key, contentType string, size int64, uploadedAt time.Time) (*Upload, error) {
	u := &Upload{
		ID:          uuid.NewString(),
		UserID:      userID,
		Key:         key,
		ContentType: contentType,
		FileSize:    size,
		UploadedAt:  uploadedAt.UTC(),
		ConfirmedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[u.ID] = u
	return u, nil
}

func (s *InMemoryStore) Close() error { return nil }

func cloneUser(u *User) *User {
	c := *u
	return &c
}

func cloneSession(sess *Session) *Session {
	c := *sess
	if sess.Feedback != nil {
		fb := *sess.Feedback
		c.Feedback = &fb
	}
	if sess.CompletedAt != nil {
		t := *sess.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
