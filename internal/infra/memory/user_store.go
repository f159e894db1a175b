package memory

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository.
type UserStore struct {
	db *Database
}

func (s *UserStore) Create(_ context.Context, user domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[user.Username]; ok {
		return domain.ErrConflict
	}
	s.db.users[user.Username] = user
	return nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	user, ok := s.db.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}
