package store

import (
	"context"
	"sync"

	"gatehouse/internal/users/models"
	"gatehouse/pkg/platform/sentinel"
)

// InMemoryStore keeps the default deployment dependency-free and the tests
// fast. It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[int64]models.User
	byEmail map[string]int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[int64]models.User),
		byEmail: make(map[string]int64),
	}
}

// Create assigns the next ID and stores the record. The normalized email is
// the uniqueness key; a duplicate yields sentinel.ErrConflict and no write.
func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	email := models.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}

	s.seq++
	user.ID = s.seq
	stored := *user
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user := s.byID[id]
	return &user, nil
}
