package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"gatehouse/internal/users/models"
	"gatehouse/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) TestLookupBehavior() {
	s.Run("returns user by ID when exists", func() {
		store := NewInMemory()
		user := &models.User{
			Name:     "Jane Doe",
			Email:    "jane.doe@example.com",
			Password: "$2a$10$hash",
			City:     "Portland",
			State:    "Oregon",
		}
		s.Require().NoError(store.Create(context.Background(), user))
		s.NotZero(user.ID)

		found, err := store.FindByID(context.Background(), user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, found.Email)
		s.Equal(user.Password, found.Password)
	})

	s.Run("returns user by email regardless of case", func() {
		store := NewInMemory()
		user := &models.User{Name: "Email Lookup", Email: "email.lookup@example.com"}
		s.Require().NoError(store.Create(context.Background(), user))

		found, err := store.FindByEmail(context.Background(), "Email.Lookup@EXAMPLE.com")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)
	})

	s.Run("returns ErrNotFound when user ID does not exist", func() {
		_, err := s.store.FindByID(context.Background(), 9999)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound when email does not exist", func() {
		_, err := s.store.FindByEmail(context.Background(), "missing@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestEmailUniqueness() {
	s.Run("rejects duplicate normalized email", func() {
		store := NewInMemory()
		first := &models.User{Name: "First", Email: "dupe@example.com"}
		s.Require().NoError(store.Create(context.Background(), first))

		second := &models.User{Name: "Second", Email: "DUPE@example.com"}
		err := store.Create(context.Background(), second)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		s.Zero(second.ID)
	})

	s.Run("concurrent creates with same email produce one winner", func() {
		store := NewInMemory()
		const goroutines = 20

		var wg sync.WaitGroup
		results := make(chan error, goroutines)
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u := &models.User{Name: "Racer", Email: "race@example.com"}
				results <- store.Create(context.Background(), u)
			}()
		}
		wg.Wait()
		close(results)

		var successes, conflicts int
		for err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, sentinel.ErrConflict):
				conflicts++
			}
		}
		s.Equal(1, successes)
		s.Equal(goroutines-1, conflicts)
	})
}

func (s *InMemoryStoreSuite) TestIDsAreAssignedMonotonically() {
	ctx := context.Background()
	a := &models.User{Name: "A", Email: "a@example.com"}
	b := &models.User{Name: "B", Email: "b@example.com"}
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))
	s.Greater(b.ID, a.ID)
}
